package scrape

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	textutil "github.com/shouni/go-utils/text"
)

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、画像バイト列を取得する機能のインターフェースを定義します。
// Harvester は、この抽象に依存します。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Recognizer は、画像ピクセルに埋め込まれたテキストを抽出する
// 外部の文字認識能力のインターフェースを定義します。
type Recognizer interface {
	Recognize(ctx context.Context, data []byte) (string, error)
}

// ----------------------------------------------------------------------
// 定数定義 (文脈収穫関連のみ)
// ----------------------------------------------------------------------
const (
	// figureSelector は「図」相当の包含要素を表します。
	figureSelector  = "figure"
	captionSelector = "figcaption"

	// blockContainerSelector は最近傍のブロックレベル包含要素を表します。
	blockContainerSelector = "div, article, section, p, main"
)

// Harvester は、位置特定された各画像に周辺の文脈メタデータを付与します。
type Harvester struct {
	fetcher    Fetcher
	recognizer Recognizer // nil の場合、文字認識は全レコードでスキップ
}

// NewHarvester は、新しいHarvesterのインスタンスを生成します。
// recognizer は省略可能です (nil を渡すと認識は無効になります)。
func NewHarvester(fetcher Fetcher, recognizer Recognizer) *Harvester {
	return &Harvester{
		fetcher:    fetcher,
		recognizer: recognizer,
	}
}

// EnrichOptions は、画像メタデータ付与の実行パラメータです。
type EnrichOptions struct {
	Selector string // 一致ノード配下に画像探索を限定するセレクター (空 = 全体)
	Limit    int    // 正の場合、対象画像数の上限
	UseOCR   bool   // 文字認識を要求するか
}

// EnrichImages は、LocateImages の順序で各画像URLに対応するレコードを構築します。
// 存在しない文脈関係はそのフィールドを空文字列にするだけで、失敗にはなりません。
// 文字認識はハーベスタ構築時に一度だけ探索された能力を使用し、利用できない
// 場合はすべてのレコードで ocr_text が空のままになります (静かな縮退)。
func (h *Harvester) EnrichImages(ctx context.Context, doc *goquery.Document, baseURL string, opts EnrichOptions) []ImageRecord {
	urls := LocateImages(doc, baseURL, opts.Selector, opts.Limit)
	if len(urls) == 0 {
		return nil
	}

	// LocateImages が結果を返した時点で baseURL は解釈可能と分かっている
	base, _ := url.Parse(baseURL)

	var recognizer Recognizer
	if opts.UseOCR {
		recognizer = h.recognizer
	}

	records := make([]ImageRecord, 0, len(urls))
	for i, imageURL := range urls {
		rec := ImageRecord{
			Index:    i + 1,
			ImageURL: imageURL,
			Filename: imageFilename(imageURL, i+1),
		}

		// 解決済みURLの比較で対応ノードを再特定する。同一URLへ解決される複数の
		// ノードは重複除去の時点で1レコードに畳まれており、文書順で最初の
		// ノードの文脈が採用される。
		if node := findImageNode(doc, base, imageURL); node != nil {
			harvestContext(node, &rec)
		}

		if recognizer != nil {
			rec.OCRText = h.recognizeImage(ctx, recognizer, imageURL)
		}

		records = append(records, rec)
	}
	return records
}

// findImageNode は、解決済みURLが一致する最初の img ノードを文書順で探します。
func findImageNode(doc *goquery.Document, base *url.URL, imageURL string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if abs, ok := resolveImageSrc(base, img); ok && abs == imageURL {
			found = img
			return false
		}
		return true
	})
	return found
}

// harvestContext は、画像ノードの周辺ツリー関係から文脈テキストを収穫します。
// 親・兄弟・包含要素のいずれが欠けていても、該当フィールドが空になるだけです。
func harvestContext(img *goquery.Selection, rec *ImageRecord) {
	rec.Alt = strings.TrimSpace(img.AttrOr("alt", ""))
	rec.Title = strings.TrimSpace(img.AttrOr("title", ""))

	if figure := img.Closest(figureSelector); figure.Length() > 0 {
		rec.Caption = textutil.NormalizeText(figure.Find(captionSelector).First().Text())
	}

	if parent := img.Parent(); parent.Length() > 0 {
		rec.ParentText = textutil.NormalizeText(parent.Text())
	}

	rec.PrevSiblingText = textutil.NormalizeText(img.Prev().Text())
	rec.NextSiblingText = textutil.NormalizeText(img.Next().Text())

	if container := img.Closest(blockContainerSelector); container.Length() > 0 {
		rec.ContainerText = textutil.NormalizeText(container.Text())
	}
}

// recognizeImage は、画像バイト列を取得して文字認識にかけます。
// 取得・デコード・認識のいずれの失敗もこのレコードの ocr_text を
// 空にするだけで、バッチ全体を中断させません。
func (h *Harvester) recognizeImage(ctx context.Context, recognizer Recognizer, imageURL string) string {
	if h.fetcher == nil {
		return ""
	}
	data, err := h.fetcher.FetchBytes(ctx, imageURL)
	if err != nil {
		return ""
	}
	text, err := recognizer.Recognize(ctx, data)
	if err != nil {
		return ""
	}
	return text
}

// imageFilename は、URLパスの末尾要素をファイル名として導出します。
// パスから名前が得られない場合は image_<index>.jpg を合成します
// (index はレコード列の中での1始まりの位置)。
func imageFilename(imageURL string, index int) string {
	fallback := fmt.Sprintf("image_%d.jpg", index)

	parsed, err := url.Parse(imageURL)
	if err != nil {
		return fallback
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	return name
}
