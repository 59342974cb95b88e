package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"
)

// Table は、同一のフィールド集合を共有するレコード列の表形式表現です。
// Header は先頭レコードのキー集合から導出された列順を保持します。
type Table struct {
	Header []string
	Rows   [][]string
}

// NamedBlob は、アーカイブに格納する名前付きバイナリです。
type NamedBlob struct {
	Name string
	Data []byte
}

// ToCSV は、テーブルをUTF-8のカンマ区切りテキストへエンコードします。
// 1行目はヘッダー、以降は1レコード1行です。区切り文字や改行を含む値は
// 標準の区切りテキスト引用規則でエスケープされます。
// 空の入力は空のバイト列を返します。
func ToCSV(t Table) []byte {
	if len(t.Rows) == 0 {
		return nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// bytes.Buffer への書き込みは失敗しない
	_ = w.Write(t.Header)
	_ = w.WriteAll(t.Rows)
	w.Flush()

	return buf.Bytes()
}

// ToXLSX は、単一シートのスプレッドシートへエンコードします。
// 1列が1レコードキー、1行が1レコードに対応します。
// エンコードに失敗した場合は、エラーを呼び出し元へ返す代わりに
// CSVバイト列へフォールバックします。空の入力は空のバイト列を返します。
func ToXLSX(t Table) []byte {
	if len(t.Rows) == 0 {
		return nil
	}

	data, err := encodeXLSX(t)
	if err != nil {
		log.Printf("[export] スプレッドシートのエンコードに失敗したため、CSVへフォールバックします: %v", err)
		return ToCSV(t)
	}
	return data
}

func encodeXLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &t.Header); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToArchive は、deflate圧縮のZIPアーカイブを生成します。
// エントリ名は与えられた名前をそのまま使用します (一意性・安全性は呼び出し元の責務)。
func ToArchive(blobs []NamedBlob) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, blob := range blobs {
		w, err := zw.Create(blob.Name)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("アーカイブエントリ(%s)の作成に失敗しました: %w", blob.Name, err)
		}
		if _, err := w.Write(blob.Data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("アーカイブエントリ(%s)の書き込みに失敗しました: %w", blob.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("アーカイブの完了処理に失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
