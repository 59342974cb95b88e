package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/shouni/go-web-harvest/pkg/export"
	"github.com/shouni/go-web-harvest/pkg/httpclient"
	"github.com/shouni/go-web-harvest/pkg/ocr"
	"github.com/shouni/go-web-harvest/pkg/scrape"
)

// Options は、1回の抽出実行に対して呼び出し元が与えるパラメータです。
type Options struct {
	URL          string // 取得対象のページURL
	Selector     string // 要素抽出のCSSセレクター (空 = ページ全体を1要素として扱う)
	ElementLimit int    // 正の場合、要素レコード数の上限
	ScrapeImages bool   // 画像の位置特定とメタデータ付与を行うか
	ImageLimit   int    // 正の場合、画像レコード数の上限
	UseOCR       bool   // 画像内テキストの文字認識を要求するか
}

// Result は、抽出パイプラインの出力です。
type Result struct {
	Elements []scrape.ElementRecord
	Images   []scrape.ImageRecord
}

// Extractor は、fetch → parse → select → enrich の一連の抽出パイプラインを
// 同期的・逐次的に実行します。パイプラインの実行ごとに解析済みドキュメントと
// レコードバッファを専有し、実行をまたぐ状態は持ちません。
type Extractor struct {
	client *httpclient.Client
}

// New は、新しいExtractorのインスタンスを生成します。
func New(client *httpclient.Client) (*Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("pipeline.New: client cannot be nil")
	}
	return &Extractor{client: client}, nil
}

// Run は、抽出パイプラインを実行します。
// ページ本体のフェッチに失敗した場合のみエラーを返します。それ以外の失敗
// (不正セレクター、文脈関係の欠落、認識失敗) は各レコードの空の結果として
// 表現され、処理全体を中断させません。
func (e *Extractor) Run(ctx context.Context, opts Options) (*Result, error) {
	rawHTML, err := e.client.FetchText(ctx, opts.URL)
	if err != nil {
		return nil, fmt.Errorf("ページの取得に失敗しました (URL: %s): %w", opts.URL, err)
	}

	doc, err := scrape.NewDocument(rawHTML)
	if err != nil {
		return nil, fmt.Errorf("ページの解析に失敗しました (URL: %s): %w", opts.URL, err)
	}

	result := &Result{}

	if opts.Selector != "" {
		sel := scrape.Select(doc, opts.Selector, opts.ElementLimit)
		result.Elements = scrape.ExtractElements(sel)
	} else {
		// セレクター未指定の場合はページ全体を単一の要素として抽出する
		result.Elements = scrape.ExtractElements(doc.Selection)
	}

	if opts.ScrapeImages {
		// 認識能力の探索は実行ごとに一度だけ。見つからなければ nil のまま
		// ハーベスタへ渡り、全レコードで静かにスキップされる。
		var recognizer scrape.Recognizer
		if opts.UseOCR {
			if t := ocr.Detect(); t != nil {
				recognizer = t
			}
		}

		harvester := scrape.NewHarvester(e.client, recognizer)
		result.Images = harvester.EnrichImages(ctx, doc, opts.URL, scrape.EnrichOptions{
			Selector: opts.Selector,
			Limit:    opts.ImageLimit,
			UseOCR:   opts.UseOCR,
		})
	}

	return result, nil
}

// DownloadImages は、各レコードの画像を1件ずつ順番に取得し、
// アーカイブ格納用の名前付きブロブを返します。
// 取得に失敗した画像はログに記録してスキップされ、他の画像に影響しません。
func (e *Extractor) DownloadImages(ctx context.Context, records []scrape.ImageRecord) []export.NamedBlob {
	blobs := make([]export.NamedBlob, 0, len(records))
	for _, rec := range records {
		data, err := e.client.FetchBytes(ctx, rec.ImageURL)
		if err != nil {
			log.Printf("[pipeline] 画像のダウンロードに失敗したためスキップします URL=%s: %v", rec.ImageURL, err)
			continue
		}
		blobs = append(blobs, export.NamedBlob{Name: rec.Filename, Data: data})
	}
	return blobs
}
