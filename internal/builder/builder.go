package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-reimagine-kit/internal/config"
	"github.com/shouni/go-reimagine-kit/pkg/download"
	"github.com/shouni/go-reimagine-kit/pkg/generator"
	"github.com/shouni/go-reimagine-kit/pkg/loader"
	"github.com/shouni/go-reimagine-kit/pkg/session"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (generator.GenerativeModel, error) {
	// MaxRetries 未指定時はクライアント既定の 1 回だけ一時エラーを再試行する
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(config.DefaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// BuildLoader は参照画像の読み込みを担当する Loader を構築します。
func BuildLoader(appCtx *AppContext) (*loader.Loader, error) {
	// URL から取得した参照画像を保持するキャッシュ
	imgCache := cache.New(config.DefaultImageCacheTTL, config.DefaultCacheCleanup)

	l, err := loader.New(appCtx.Reader, appCtx.httpClient, imgCache, config.DefaultImageCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("Loaderの初期化に失敗しました: %w", err)
	}
	return l, nil
}

// BuildImageGenerator は Gemini を利用する ImageGenerator を構築します。
func BuildImageGenerator(appCtx *AppContext) (generator.ImageGenerator, error) {
	opts := appCtx.Options

	var limiter *rate.Limiter
	if opts.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RateInterval), config.DefaultRateBurst)
	}

	core := generator.NewGeminiImageCore(opts.Compress, opts.CompressionQuality)
	imgGen, err := generator.NewGeminiGenerator(appCtx.Config.GeminiImageModel, core, appCtx.aiClient, limiter)
	if err != nil {
		return nil, fmt.Errorf("GeminiGeneratorの初期化に失敗しました: %w", err)
	}
	return imgGen, nil
}

// BuildSaver は生成画像の保存を担当する Saver を構築します。
func BuildSaver(appCtx *AppContext) (*download.Saver, error) {
	saver, err := download.NewSaver(appCtx.Writer, appCtx.Config.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("Saverの初期化に失敗しました: %w", err)
	}
	return saver, nil
}

// BuildSession は GenerationSession を構築します。
func BuildSession(appCtx *AppContext, opts ...session.Option) (*session.GenerationSession, error) {
	imgGen, err := BuildImageGenerator(appCtx)
	if err != nil {
		return nil, err
	}
	saver, err := BuildSaver(appCtx)
	if err != nil {
		return nil, err
	}

	s, err := session.New(imgGen, saver, opts...)
	if err != nil {
		return nil, fmt.Errorf("GenerationSessionの初期化に失敗しました: %w", err)
	}
	return s, nil
}
