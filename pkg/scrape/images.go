package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LocateImages は、ドキュメント内の画像参照を絶対URLの列として返します。
// selector が与えられた場合は一致ノード配下の img 子孫のみを、選択順・ノード順に
// 収集します。selector が空の場合はドキュメント全体を文書順に走査します。
// 各参照の相対srcは baseURL に対して標準のURL結合規則で解決されます
// (スキーム相対・パス相対・絶対参照のいずれもベースに対して正規化されます)。
// src を持たない参照はエラーではなくスキップされます。
// 結果は初出順を保ったまま重複を除去し、limit が正の場合は先頭 limit 件に
// 切り詰めます。
func LocateImages(doc *goquery.Document, baseURL, selector string, limit int) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	scope := doc.Selection
	if selector != "" {
		scope = Select(doc, selector, 0)
	}

	var urls []string
	scope.Find("img").Each(func(_ int, img *goquery.Selection) {
		if abs, ok := resolveImageSrc(base, img); ok {
			urls = append(urls, abs)
		}
	})

	// 初出順を保ったまま重複を除去
	seen := make(map[string]struct{}, len(urls))
	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		unique = append(unique, u)
	}

	if limit > 0 && len(unique) > limit {
		return unique[:limit]
	}
	return unique
}

// resolveImageSrc は、img ノードの src 属性をベースURLに対して解決します。
// src が存在しない・空である・URLとして解釈できない場合は ok=false を返します。
func resolveImageSrc(base *url.URL, img *goquery.Selection) (string, bool) {
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" {
		return "", false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
