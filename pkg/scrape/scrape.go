package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	textutil "github.com/shouni/go-utils/text"
	"golang.org/x/net/html"
)

// NewDocument は、生のHTMLテキストを解析してドキュメントツリーを返します。
// 不正なマークアップは寛容に解釈されるため、メモリ上の入力に対して
// 解析そのものが失敗することは実質的にありません。
func NewDocument(rawHTML string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}
	return doc, nil
}

// Select は、CSSセレクターに一致するノードを文書順で返します。
// 不正なセレクター構文は、エラーを伝播させずに空の選択として扱います
// (呼び出し元から見える空の結果であり、例外ではありません)。
// limit が正の場合、結果は文書順の先頭 limit 件に切り詰められます。
// limit が 0 以下の場合は無制限です。
func Select(doc *goquery.Document, selector string, limit int) *goquery.Selection {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		// 不正なセレクターは空の一致列として呼び出し元へ返す
		return doc.Selection.Slice(0, 0)
	}

	sel := doc.FindMatcher(matcher)
	if limit > 0 && sel.Length() > limit {
		sel = sel.Slice(0, limit)
	}
	return sel
}

// ExtractElements は、一致したノード列を入力順を保ったまま
// ElementRecord の列へ変換します。1ノードにつき1レコードです。
func ExtractElements(sel *goquery.Selection) []ElementRecord {
	records := make([]ElementRecord, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		markup, err := goquery.OuterHtml(s)
		if err != nil {
			// シリアライズ失敗はレコードの html フィールドを空にするだけに留める
			markup = ""
		}

		attrs := make(map[string]string)
		if len(s.Nodes) > 0 {
			attrs = nodeAttrs(s.Nodes[0])
		}

		records = append(records, ElementRecord{
			Text:  textutil.NormalizeText(s.Text()),
			HTML:  markup,
			Attrs: attrs,
		})
	})
	return records
}

// nodeAttrs は、ノードの属性を順序付きの定義からマップへ写し取ります。
func nodeAttrs(n *html.Node) map[string]string {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}
	return attrs
}
