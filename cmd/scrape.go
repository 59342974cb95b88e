package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shouni/go-web-harvest/internal/pipeline"
	"github.com/shouni/go-web-harvest/pkg/export"
	"github.com/spf13/cobra"
)

// コマンドラインフラグ変数を定義
var (
	rawURL       string // --url 抽出対象のページURL
	selector     string // --selector 要素抽出のCSSセレクター
	elementLimit int    // --limit 要素レコード数の上限
	scrapeImages bool   // --images 画像メタデータの付与を行うか
	imageLimit   int    // --image-limit 画像レコード数の上限
	useOCR       bool   // --ocr 画像内テキストの文字認識を要求するか

	csvPath  string // --csv 要素レコードのCSV出力先
	xlsxPath string // --images-xlsx 画像メタデータのスプレッドシート出力先
	zipPath  string // --images-zip ダウンロード画像のZIPアーカイブ出力先
)

// 全体処理のタイムアウト設定: クライアントタイムアウトの2倍
const overallScrapeTimeoutFactor = 2

// runScrapePipeline は、単一ページの抽出を実行するメインロジックです。
func runScrapePipeline(ctx context.Context, extractor *pipeline.Extractor, opts pipeline.Options) (*pipeline.Result, error) {
	result, err := extractor.Run(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("抽出パイプラインの実行エラー (URL: %s): %w", opts.URL, err)
	}
	return result, nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "単一ページから要素と画像メタデータを抽出し、CSV/XLSX/ZIPへエクスポートします",
	Long: `指定されたURLのページを取得し、CSSセレクターに一致する要素をレコードとして抽出します。
--images を指定すると、ページ内の画像を位置特定して周辺の文脈メタデータを収穫します。
抽出結果は要求された場合のみ、CSV・スプレッドシート・ZIPアーカイブとしてファイルに書き出されます。`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {

		// 1. URLのスキーム補完とバリデーション
		processedURL, err := ensureScheme(rawURL)
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}

		// 2. 全体タイムアウトを設定: クライアントタイムアウトの2倍
		overallTimeout := time.Duration(Flags.TimeoutSec*overallScrapeTimeoutFactor) * time.Second
		if Flags.TimeoutSec == 0 {
			overallTimeout = DefaultOverallTimeout
		}
		log.Printf("処理対象URL: %s (全体タイムアウト: %s)", processedURL, overallTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout)
		defer cancel()

		// 3. 依存性の初期化
		// cmd/root.go で初期化された共有クライアントを使用。ユーザー指定の
		// --timeout と --max-attempts が反映されます。
		client := GetGlobalClient()
		if client == nil {
			return fmt.Errorf("HTTPクライアントが初期化されていません。rootコマンドのPreRunを確認してください")
		}

		extractor, err := pipeline.New(client)
		if err != nil {
			return fmt.Errorf("Extractorの初期化エラー: %w", err)
		}

		// 4. メインロジックの実行
		result, err := runScrapePipeline(ctx, extractor, pipeline.Options{
			URL:          processedURL,
			Selector:     selector,
			ElementLimit: elementLimit,
			ScrapeImages: scrapeImages,
			ImageLimit:   imageLimit,
			UseOCR:       useOCR,
		})
		if err != nil {
			return err
		}

		// 5. 結果の出力
		fmt.Println("--- 抽出結果 ---")
		fmt.Printf("要素レコード数: %d (セレクター: %q)\n", len(result.Elements), selector)
		if scrapeImages {
			fmt.Printf("画像レコード数: %d\n", len(result.Images))
		}
		fmt.Println("-----------------")

		// 6. エクスポート (要求された場合のみファイルを生成)
		return writeExports(ctx, extractor, result)
	},
}

// writeExports は、フラグで要求されたエクスポートをファイルへ書き出します。
func writeExports(ctx context.Context, extractor *pipeline.Extractor, result *pipeline.Result) error {
	if csvPath != "" {
		data := export.ToCSV(export.ElementTable(result.Elements))
		if err := os.WriteFile(csvPath, data, 0o644); err != nil {
			return fmt.Errorf("CSVの書き出しに失敗しました (%s): %w", csvPath, err)
		}
		log.Printf("要素レコードのCSVを書き出しました: %s (%dバイト)", csvPath, len(data))
	}

	if xlsxPath != "" {
		data := export.ToXLSX(export.ImageTable(result.Images))
		if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
			return fmt.Errorf("スプレッドシートの書き出しに失敗しました (%s): %w", xlsxPath, err)
		}
		log.Printf("画像メタデータのスプレッドシートを書き出しました: %s (%dバイト)", xlsxPath, len(data))
	}

	if zipPath != "" {
		blobs := extractor.DownloadImages(ctx, result.Images)
		if len(blobs) == 0 {
			log.Printf("ダウンロードに成功した画像がないため、ZIPアーカイブを生成しません")
			return nil
		}
		data, err := export.ToArchive(blobs)
		if err != nil {
			return fmt.Errorf("ZIPアーカイブの生成に失敗しました: %w", err)
		}
		if err := os.WriteFile(zipPath, data, 0o644); err != nil {
			return fmt.Errorf("ZIPアーカイブの書き出しに失敗しました (%s): %w", zipPath, err)
		}
		log.Printf("画像のZIPアーカイブを書き出しました: %s (%d件, %dバイト)", zipPath, len(blobs), len(data))
	}

	return nil
}

func init() {
	scrapeCmd.Flags().StringVarP(&rawURL, "url", "u", "", "抽出対象のページURL")
	scrapeCmd.Flags().StringVarP(&selector, "selector", "s", "p", "要素抽出のCSSセレクター (空 = ページ全体)")
	scrapeCmd.Flags().IntVarP(&elementLimit, "limit", "l", 0, "要素レコード数の上限 (0 = 無制限)")
	scrapeCmd.Flags().BoolVar(&scrapeImages, "images", false, "画像の位置特定とメタデータ付与を行う")
	scrapeCmd.Flags().IntVar(&imageLimit, "image-limit", 0, "画像レコード数の上限 (0 = 無制限)")
	scrapeCmd.Flags().BoolVar(&useOCR, "ocr", false, "画像内テキストの文字認識を要求する (tesseractが必要)")

	scrapeCmd.Flags().StringVar(&csvPath, "csv", "", "要素レコードのCSV出力先パス")
	scrapeCmd.Flags().StringVar(&xlsxPath, "images-xlsx", "", "画像メタデータのスプレッドシート出力先パス")
	scrapeCmd.Flags().StringVar(&zipPath, "images-zip", "", "ダウンロード画像のZIPアーカイブ出力先パス")

	// URLフラグを必須にする
	scrapeCmd.MarkFlagRequired("url")
}
