package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyPNG はテスト用の 2x2 カラー画像をPNGバイト列として生成します。
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	t.Run("unavailable_capability_yields_nil", func(t *testing.T) {
		// PATHを空にすると外部コマンドは見つからず、能力は nil として報告される
		t.Setenv("PATH", "")
		assert.Nil(t, Detect())
	})
}

func TestDecodeToColorPNG(t *testing.T) {
	t.Run("valid_image_is_reencoded", func(t *testing.T) {
		encoded, err := decodeToColorPNG(tinyPNG(t))
		require.NoError(t, err)

		// 再エンコード結果はカラー画像としてデコード可能
		img, format, err := image.Decode(bytes.NewReader(encoded))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	})

	t.Run("undecodable_input_yields_error", func(t *testing.T) {
		_, err := decodeToColorPNG([]byte("not an image"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "画像のデコードに失敗しました")
	})
}

func TestRecognize(t *testing.T) {
	ctx := context.Background()

	t.Run("decode_failure_precedes_command_execution", func(t *testing.T) {
		// デコード段階で失敗するため、存在しないコマンドでも実行には到達しない
		rec := NewTesseract("no-such-binary")
		text, err := rec.Recognize(ctx, []byte("not an image"))
		assert.Error(t, err)
		assert.Empty(t, text)
	})

	t.Run("missing_binary_yields_error", func(t *testing.T) {
		rec := NewTesseract("/nonexistent/tesseract")
		text, err := rec.Recognize(ctx, tinyPNG(t))
		assert.Error(t, err)
		assert.Empty(t, text)
		assert.Contains(t, err.Error(), "文字認識コマンドの実行に失敗しました")
	})
}
