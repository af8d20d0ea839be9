package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
)

// CompressToJPEG は image.Decode が扱える画像 (PNG, GIF, JPEG) を JPEG に再エンコードします。
// 透過部分は白で塗りつぶされます。quality が 1〜100 の範囲外なら jpeg.DefaultQuality を使います。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, flatten(src), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("JPEGエンコードに失敗しました (source: %s): %w", format, err)
	}
	return buf.Bytes(), nil
}

// flatten は src を白背景に合成した不透明な画像を返します。
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, src, b.Min, draw.Over)
	return dst
}
