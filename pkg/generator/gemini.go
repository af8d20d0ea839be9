package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-reimagine-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiGenerator は参照画像とプロンプトから画像を 1 枚生成するジェネレーターです。
type GeminiGenerator struct {
	imgCore  *GeminiImageCore
	aiClient GenerativeModel
	model    string
	limiter  *rate.Limiter
}

// NewGeminiGenerator は GeminiGenerator を初期化します。
// limiter が nil の場合はリクエスト間隔を制御しません。
func NewGeminiGenerator(
	model string,
	core *GeminiImageCore,
	aiClient GenerativeModel,
	limiter *rate.Limiter,
) (*GeminiGenerator, error) {
	if core == nil {
		return nil, fmt.Errorf("core (GeminiImageCore) is required")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (GenerativeModel) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &GeminiGenerator{
		imgCore:  core,
		aiClient: aiClient,
		model:    model,
		limiter:  limiter,
	}, nil
}

// Generate は参照画像 (送信順を維持) とプロンプトを 1 回のリクエストで Gemini に送信します。
func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResponse, error) {
	parts, err := g.imgCore.ToParts(ctx, req.Images)
	if err != nil {
		return nil, fmt.Errorf("リクエストの組み立てに失敗しました: %w", err)
	}
	parts = append(parts, &genai.Part{Text: BuildPrompt(req.Prompt, req.AspectRatio)})

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("レートリミット待機中に中断されました: %w", err)
		}
	}

	slog.InfoContext(ctx, "Geminiに画像生成をリクエストします",
		"model", g.model,
		"ref_count", len(req.Images),
		"aspect_ratio", req.AspectRatio,
	)

	resp, err := g.aiClient.GenerateWithParts(ctx, g.model, parts, gemini.GenerateOptions{Seed: req.Seed})
	if err != nil {
		// 空の応答やセーフティブロックはクライアント側で APIResponseError として返される
		var apiErr *gemini.APIResponseError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%v: %w", err, ErrNoImageData)
		}
		return nil, err
	}

	out, err := g.imgCore.parseToResponse(resp, dereferenceSeed(req.Seed))
	if err != nil {
		return nil, err
	}

	return &domain.ImageResponse{
		Data:     out.Data,
		MimeType: out.MimeType,
		UsedSeed: out.UsedSeed,
	}, nil
}
