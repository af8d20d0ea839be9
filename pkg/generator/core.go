package generator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/go-reimagine-kit/pkg/domain"
	"github.com/shouni/go-reimagine-kit/pkg/imgutil"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

// GeminiImageCore は参照画像のパーツ変換とレスポンス解析を担う基盤クラスです。
type GeminiImageCore struct {
	compress bool
	quality  int
}

// NewGeminiImageCore は GeminiImageCore を初期化します。
// compress が true の場合、参照画像は送信前に JPEG へ圧縮されます。
func NewGeminiImageCore(compress bool, quality int) *GeminiImageCore {
	if quality <= 0 || quality > 100 {
		quality = DefaultImageCompressionQuality
	}
	return &GeminiImageCore{
		compress: compress,
		quality:  quality,
	}
}

// ToParts は参照画像を並列に genai.Part へ変換します。
// 1 枚でも変換できない画像があれば全体を失敗として扱います。
func (c *GeminiImageCore) ToParts(ctx context.Context, images []domain.ImageFile) ([]*genai.Part, error) {
	parts := make([]*genai.Part, len(images))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, img := range images {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			part, err := c.toPart(img)
			if err != nil {
				return fmt.Errorf("参照画像 %d (%s) を変換できません: %w", i+1, img.Name, err)
			}
			parts[i] = part
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

func (c *GeminiImageCore) toPart(img domain.ImageFile) (*genai.Part, error) {
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("画像データが空です")
	}

	data := img.Data
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("MIMEタイプが画像ではありません: %s", mimeType)
	}

	if c.compress {
		if compressed, err := imgutil.CompressToJPEG(data, c.quality); err == nil {
			data = compressed
			mimeType = "image/jpeg"
		} else {
			slog.Warn("JPEG圧縮に失敗したため元データを送信します", "name", img.Name, "error", err)
		}
	}

	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
}

// parseToResponse は Gemini のレスポンスから最初の画像パーツを取り出します。
func (c *GeminiImageCore) parseToResponse(resp *gemini.Response, seed int64) (*ImageOutput, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, fmt.Errorf("Geminiからの有効な応答がありませんでした: %w", ErrNoImageData)
	}

	// 最初の候補 (Candidate) のみを利用する。
	candidate := resp.RawResponse.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if isImageBlob(part) {
				return &ImageOutput{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
					UsedSeed: seed,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロック
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("画像生成が異常終了しました (FinishReason: %s): %w", candidate.FinishReason, ErrNoImageData)
	}

	return nil, ErrNoImageData
}

// isImageBlob は part が画像として扱えるインラインデータを持つかを返します。MIME が空の場合は許容します。
func isImageBlob(part *genai.Part) bool {
	if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
		return false
	}
	mimeType := part.InlineData.MIMEType
	return mimeType == "" || strings.HasPrefix(mimeType, "image/")
}
