package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shouni/go-reimagine-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

func TestNewGeminiGenerator(t *testing.T) {
	t.Run("nilチェック: 依存関係が足りない場合はエラーを返す", func(t *testing.T) {
		_, err := NewGeminiGenerator("model", nil, nil, nil)
		assert.Error(t, err)

		_, err = NewGeminiGenerator("model", NewGeminiImageCore(false, 0), nil, nil)
		assert.Error(t, err)

		_, err = NewGeminiGenerator("", NewGeminiImageCore(false, 0), &mockAIClient{}, nil)
		assert.Error(t, err)
	})
}

func TestGeminiGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	modelName := "gemini-2.5-flash-image"

	t.Run("成功: 画像を先頭に、プロンプトを末尾に並べて送信する", func(t *testing.T) {
		var seedVal int64 = 777
		req := domain.GenerationRequest{
			Images: []domain.ImageFile{
				{Name: "a.png", MIMEType: "image/png", Data: []byte("a")},
				{Name: "b.png", MIMEType: "image/png", Data: []byte("b")},
			},
			Prompt:      "add a castle",
			AspectRatio: domain.AspectLandscape,
			Seed:        &seedVal,
		}

		ai := &mockAIClient{
			generateWithPartsFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				assert.Equal(t, modelName, model)
				require.Len(t, parts, 3)
				assert.Equal(t, []byte("a"), parts[0].InlineData.Data)
				assert.Equal(t, []byte("b"), parts[1].InlineData.Data)
				assert.True(t, strings.HasPrefix(parts[2].Text, "add a castle"))
				assert.True(t, strings.HasSuffix(parts[2].Text, "The output image must have a strict aspect ratio of exactly 16:9."))
				require.NotNil(t, opts.Seed)
				assert.Equal(t, seedVal, *opts.Seed)
				return imageResponse("image/png", []byte("generated")), nil
			},
		}

		gen, err := NewGeminiGenerator(modelName, NewGeminiImageCore(false, 0), ai, nil)
		require.NoError(t, err)

		resp, err := gen.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []byte("generated"), resp.Data)
		assert.Equal(t, "image/png", resp.MimeType)
		assert.Equal(t, seedVal, resp.UsedSeed)
		assert.Equal(t, 1, ai.calls)
	})

	t.Run("失敗: 不正な参照画像があれば通信しない", func(t *testing.T) {
		ai := &mockAIClient{}
		gen, _ := NewGeminiGenerator(modelName, NewGeminiImageCore(false, 0), ai, nil)

		_, err := gen.Generate(ctx, domain.GenerationRequest{
			Images: []domain.ImageFile{{Name: "bad.txt", MIMEType: "text/plain", Data: []byte("x")}},
			Prompt: "sunset",
		})
		assert.Error(t, err)
		assert.Equal(t, 0, ai.calls)
	})

	t.Run("失敗: AIクライアントのエラーがそのまま返る", func(t *testing.T) {
		expectedErr := errors.New("quota exceeded")
		ai := &mockAIClient{
			generateWithPartsFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				return nil, expectedErr
			},
		}
		gen, _ := NewGeminiGenerator(modelName, NewGeminiImageCore(false, 0), ai, nil)

		_, err := gen.Generate(ctx, domain.GenerationRequest{Prompt: "sunset"})
		assert.ErrorIs(t, err, expectedErr)
	})

	t.Run("失敗: 画像なしの応答はErrNoImageData", func(t *testing.T) {
		ai := &mockAIClient{
			generateWithPartsFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				return &gemini.Response{RawResponse: &genai.GenerateContentResponse{
					Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "sorry"}}}}},
				}}, nil
			},
		}
		gen, _ := NewGeminiGenerator(modelName, NewGeminiImageCore(false, 0), ai, nil)

		_, err := gen.Generate(ctx, domain.GenerationRequest{Prompt: "sunset"})
		assert.ErrorIs(t, err, ErrNoImageData)
	})

	t.Run("失敗: クライアントが返す空応答やブロックはErrNoImageData", func(t *testing.T) {
		ai := &mockAIClient{
			generateWithPartsFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				return nil, fmt.Errorf("generate: %w", &gemini.APIResponseError{})
			},
		}
		gen, _ := NewGeminiGenerator(modelName, NewGeminiImageCore(false, 0), ai, nil)

		_, err := gen.Generate(ctx, domain.GenerationRequest{Prompt: "sunset"})
		assert.ErrorIs(t, err, ErrNoImageData)
		var apiErr *gemini.APIResponseError
		assert.False(t, errors.As(err, &apiErr), "元のエラーは文言のみ引き継ぐ")
	})

	t.Run("キャンセル済みのcontextではレートリミット待機で中断する", func(t *testing.T) {
		ai := &mockAIClient{}
		limiter := rate.NewLimiter(rate.Limit(0.001), 1)
		limiter.Allow() // トークンを使い切る
		gen, _ := NewGeminiGenerator(modelName, NewGeminiImageCore(false, 0), ai, limiter)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := gen.Generate(cancelled, domain.GenerationRequest{Prompt: "sunset"})
		assert.Error(t, err)
		assert.Equal(t, 0, ai.calls)
	})
}
