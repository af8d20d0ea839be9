package generator

import (
	"context"

	"github.com/shouni/go-reimagine-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenerativeModel は Gemini クライアントのうち、画像生成で利用する部分だけを切り出したものです。
type GenerativeModel interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// ImageGenerator はセッション層が利用する画像生成の窓口です。
type ImageGenerator interface {
	// Generate は参照画像とプロンプトから 1 枚の画像を生成します。
	// 応答に画像が含まれない場合は ErrNoImageData をラップしたエラーを返します。
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResponse, error)
}
