package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("環境変数が未設定の場合はデフォルト値を使う", func(t *testing.T) {
		for _, key := range []string{"GEMINI_API_KEY", "IMAGE_GEMINI_MODEL", "REIMAGINE_OUTPUT_DIR"} {
			t.Setenv(key, "") // 終了時に元の値へ戻す
			os.Unsetenv(key)
		}

		cfg := LoadConfig()
		assert.Empty(t, cfg.GeminiAPIKey)
		assert.Equal(t, DefaultImageModel, cfg.GeminiImageModel)
		assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
		assert.Equal(t, DefaultHTTPTimeout, cfg.Options.HTTPTimeout)
		assert.Equal(t, DefaultCompressionQuality, cfg.Options.CompressionQuality)
	})

	t.Run("環境変数の値を読み込む", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		t.Setenv("IMAGE_GEMINI_MODEL", "custom-image-model")
		t.Setenv("REIMAGINE_OUTPUT_DIR", "gs://bucket/out")

		cfg := LoadConfig()
		assert.Equal(t, "test-key", cfg.GeminiAPIKey)
		assert.Equal(t, "custom-image-model", cfg.GeminiImageModel)
		assert.Equal(t, "gs://bucket/out", cfg.OutputDir)
		assert.Equal(t, "gs://bucket/out", cfg.Options.OutputDir)
	})
}

func TestConfig_Apply(t *testing.T) {
	cfg := &Config{GeminiImageModel: "env-model", OutputDir: "env-dir"}

	cfg.Apply(GenerateOptions{Prompt: "castle", CompressionQuality: 150})
	assert.Equal(t, "env-model", cfg.GeminiImageModel)
	assert.Equal(t, "env-dir", cfg.Options.OutputDir)
	assert.Equal(t, "castle", cfg.Options.Prompt)
	assert.Equal(t, DefaultCompressionQuality, cfg.Options.CompressionQuality)
	assert.Equal(t, DefaultHTTPTimeout, cfg.Options.HTTPTimeout)

	cfg.Apply(GenerateOptions{ImageModel: "flag-model", OutputDir: "flag-dir", HTTPTimeout: time.Second})
	assert.Equal(t, "flag-model", cfg.GeminiImageModel)
	assert.Equal(t, "flag-dir", cfg.OutputDir)
	assert.Equal(t, time.Second, cfg.Options.HTTPTimeout)
}
