package generator

import "errors"

const (
	// DefaultImageCompressionQuality は参照画像を JPEG 圧縮する際の既定品質です。
	DefaultImageCompressionQuality = 75
)

// ErrNoImageData は Gemini が応答したものの、画像パーツが含まれていなかったことを示します。
var ErrNoImageData = errors.New("no image data")

// ImageOutput は Core の内部解析結果
type ImageOutput struct {
	Data     []byte
	MimeType string
	UsedSeed int64
}
