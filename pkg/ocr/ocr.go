package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"

	// カラー画像としてデコード可能な形式のデコーダ登録
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// DefaultBinary は、探索する外部文字認識コマンドの名前です。
const DefaultBinary = "tesseract"

// Tesseract は、外部の tesseract コマンドを利用した文字認識能力です。
// コマンドが見つからない環境では Detect が nil を返し、呼び出し元は
// 認識を静かにスキップします (エラーにはなりません)。
type Tesseract struct {
	binPath string
}

// Detect は、外部文字認識能力を探索します。
// 付与処理の開始時に一度だけ呼び出し、画像ごとの再探索は行わない想定です。
func Detect() *Tesseract {
	binPath, err := exec.LookPath(DefaultBinary)
	if err != nil {
		return nil
	}
	return &Tesseract{binPath: binPath}
}

// NewTesseract は、コマンドパスを指定してTesseractを生成します (テスト用)。
func NewTesseract(binPath string) *Tesseract {
	return &Tesseract{binPath: binPath}
}

// Recognize は、画像バイト列をカラー画像としてデコードし、
// 埋め込まれたテキストを抽出して返します。
func (t *Tesseract) Recognize(ctx context.Context, data []byte) (string, error) {
	encoded, err := decodeToColorPNG(data)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, t.binPath, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(encoded)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("文字認識コマンドの実行に失敗しました: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// decodeToColorPNG は、入力バイト列をカラー画像 (RGBA) として解釈し直し、
// 認識コマンドへ渡すためのPNGとして再エンコードします。
// jpeg/png/gif/webp のデコーダが登録されています。
func decodeToColorPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("画像の再エンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
