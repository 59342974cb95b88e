package export

import (
	"encoding/json"
	"strconv"

	"github.com/shouni/go-web-harvest/pkg/scrape"
)

// レコード列からTableへのアダプター。
// 列順は各レコード型のキー集合の定義順に固定されています。

// ElementTable は、要素レコード列を表形式へ変換します。
func ElementTable(records []scrape.ElementRecord) Table {
	if len(records) == 0 {
		return Table{}
	}

	t := Table{Header: []string{"text", "html", "attrs"}}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{r.Text, r.HTML, encodeAttrs(r.Attrs)})
	}
	return t
}

// ImageTable は、画像メタデータレコード列を表形式へ変換します。
func ImageTable(records []scrape.ImageRecord) Table {
	if len(records) == 0 {
		return Table{}
	}

	t := Table{Header: []string{
		"index", "image_url", "filename", "alt", "title", "caption",
		"parent_text", "prev_sibling_text", "next_sibling_text",
		"container_text", "ocr_text",
	}}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Index), r.ImageURL, r.Filename, r.Alt, r.Title,
			r.Caption, r.ParentText, r.PrevSiblingText, r.NextSiblingText,
			r.ContainerText, r.OCRText,
		})
	}
	return t
}

// encodeAttrs は、属性マップをキー順が決定的なJSONへ平坦化します。
func encodeAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return "{}"
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(data)
}
