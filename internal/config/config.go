package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義です。
const (
	DefaultImageModel         = "gemini-2.5-flash-image"
	DefaultOutputDir          = "output"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultRateInterval       = 5 * time.Second
	DefaultRateBurst          = 1
	DefaultCompressionQuality = 75
	DefaultImageCacheTTL      = 1 * time.Hour
	DefaultCacheCleanup       = 30 * time.Minute
	DefaultGeminiTemperature  = float32(0.4)
)

// Config は環境変数から読み込むアプリケーション全体の設定です。
type Config struct {
	GeminiAPIKey     string
	GeminiImageModel string
	OutputDir        string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() *Config {
	cfg := &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		OutputDir:        envutil.GetEnv("REIMAGINE_OUTPUT_DIR", DefaultOutputDir),
	}
	cfg.Options = GenerateOptions{
		ImageModel:         cfg.GeminiImageModel,
		OutputDir:          cfg.OutputDir,
		HTTPTimeout:        DefaultHTTPTimeout,
		RateInterval:       DefaultRateInterval,
		CompressionQuality: DefaultCompressionQuality,
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータです。
type GenerateOptions struct {
	// 入力
	Images      []string // --image (ローカルパス、gs://、http(s)://)
	Prompt      string   // --prompt
	Seed        string   // --seed
	AspectRatio string   // --aspect-ratio

	// 出力
	OutputDir string // --output-dir (ローカル or gs://...)

	// AI 挙動設定
	ImageModel         string // --image-model
	Compress           bool   // --compress: 参照画像を JPEG に圧縮して送信する
	CompressionQuality int    // --quality

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	RateInterval time.Duration // --rate-interval
}

// Apply は明示的に指定されたフラグの値で設定を上書きします。
func (c *Config) Apply(opts GenerateOptions) {
	if opts.ImageModel != "" {
		c.GeminiImageModel = opts.ImageModel
	}
	if opts.OutputDir != "" {
		c.OutputDir = opts.OutputDir
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = DefaultHTTPTimeout
	}
	if opts.CompressionQuality <= 0 || opts.CompressionQuality > 100 {
		opts.CompressionQuality = DefaultCompressionQuality
	}
	opts.ImageModel = c.GeminiImageModel
	opts.OutputDir = c.OutputDir
	c.Options = opts
}
