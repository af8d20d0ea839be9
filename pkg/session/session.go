// Package session は、ベース画像とプロンプトのドラフト、1 回分の生成リクエスト、
// 生成履歴を 1 つの状態コンテナとして管理します。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shouni/go-reimagine-kit/pkg/domain"
	"github.com/shouni/go-reimagine-kit/pkg/generator"
	"github.com/shouni/go-reimagine-kit/pkg/history"
	"github.com/shouni/go-reimagine-kit/pkg/imgutil"
	"github.com/shouni/go-reimagine-kit/pkg/preview"

	"github.com/google/uuid"
)

const (
	improvisedFileName = "improvised-image.png"
	fallbackMIMEType   = "image/png"
)

// Downloader は生成画像をユーザーのファイルシステムへ保存します。
type Downloader interface {
	Save(ctx context.Context, imageRef string) (string, error)
}

// Confirmer は取り消しできない操作の前にユーザーへ確認を求めます。
type Confirmer func(message string) bool

// Option は GenerationSession の生成時オプションです。
type Option func(*GenerationSession)

// WithPreviewRegistry はプレビューハンドルの発行元を差し替えます。
func WithPreviewRegistry(r *preview.Registry) Option {
	return func(s *GenerationSession) { s.previews = r }
}

// WithClock は履歴の作成時刻に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *GenerationSession) { s.now = now }
}

// GenerationSession はドラフト、生成リクエスト、履歴を管理する状態コンテナです。
// 同時に実行される生成リクエストは常に 1 つまでです。
type GenerationSession struct {
	mu sync.Mutex

	generator generator.ImageGenerator
	saver     Downloader
	previews  *preview.Registry
	history   *history.Store
	now       func() time.Time

	// draft
	images  []domain.ImageFile
	handles []preview.Handle
	prompt  string
	seed    string
	ratio   domain.AspectRatio

	phase       Phase
	outcome     Outcome
	result      string
	errMessage  string
	tab         domain.Tab
	theme       domain.Theme
	inspectedID string

	listeners    []listenerEntry
	nextListener int
}

// New は GenerationSession を初期化します。saver は nil を許容します (ダウンロード不可)。
func New(gen generator.ImageGenerator, saver Downloader, opts ...Option) (*GenerationSession, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator (ImageGenerator) is required")
	}

	s := &GenerationSession{
		generator: gen,
		saver:     saver,
		history:   history.NewStore(domain.MaxHistory),
		now:       time.Now,
		ratio:     domain.DefaultAspectRatio,
		phase:     PhaseIdle,
		tab:       domain.TabGenerator,
		theme:     domain.ThemeLight,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.previews == nil {
		s.previews = preview.NewRegistry()
	}
	return s, nil
}

// AddImages はベース画像を追加し、追加した枚数を返します。
// 合計が domain.MaxBaseImages を超える分は切り捨てられ、追加できる画像がなければ何もしません。
func (s *GenerationSession) AddImages(files []domain.ImageFile) (int, error) {
	var accepted int
	err := s.update(func() error {
		if s.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}

		room := domain.MaxBaseImages - len(s.images)
		if room <= 0 || len(files) == 0 {
			return nil
		}
		batch := files[:min(room, len(files))]

		for _, f := range batch {
			s.images = append(s.images, f)
			s.handles = append(s.handles, s.previews.Acquire(f))
		}
		accepted = len(batch)

		// 新しいアップロードで直前の生成結果は無効になる
		s.result = ""
		s.errMessage = ""
		return nil
	})
	return accepted, err
}

// RemoveImage は index 番目のベース画像を取り除き、そのプレビューを解放します。
func (s *GenerationSession) RemoveImage(index int) error {
	return s.update(func() error {
		if s.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}
		if index < 0 || index >= len(s.images) {
			return fmt.Errorf("%w: %d (count: %d)", ErrIndexOutOfRange, index, len(s.images))
		}

		s.releaseHandles(s.handles[index : index+1])
		s.images = append(s.images[:index], s.images[index+1:]...)
		s.handles = append(s.handles[:index], s.handles[index+1:]...)
		return nil
	})
}

// SetPrompt はプロンプトを設定します。
func (s *GenerationSession) SetPrompt(prompt string) error {
	return s.update(func() error {
		if s.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}
		s.prompt = prompt
		return nil
	})
}

// SetSeed はシードを設定します。空文字はシード指定なしを意味します。
func (s *GenerationSession) SetSeed(seed string) error {
	seed = strings.TrimSpace(seed)
	if _, err := parseSeed(seed); err != nil {
		return err
	}
	return s.update(func() error {
		if s.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}
		s.seed = seed
		return nil
	})
}

// SetAspectRatio は出力画像の縦横比を設定します。
func (s *GenerationSession) SetAspectRatio(ratio domain.AspectRatio) error {
	parsed, err := domain.ParseAspectRatio(string(ratio))
	if err != nil {
		return err
	}
	return s.update(func() error {
		if s.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}
		s.ratio = parsed
		return nil
	})
}

// ClearDraft はドラフトを破棄し、すべてのプレビューを解放します。
func (s *GenerationSession) ClearDraft() error {
	return s.update(func() error {
		if s.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}
		s.resetDraft()
		return nil
	})
}

// Submit は現在のドラフトで画像生成を 1 回実行します。
//
// 入力が不足している場合は通信せずに KindValidation のエラーを返します。
// 応答に画像がない場合 (KindSoftFailure) や通信が失敗した場合 (KindHardFailure) は
// ドラフトをそのまま残します。成功時は履歴の先頭に追加し、ドラフトを空に戻します。
func (s *GenerationSession) Submit(ctx context.Context) (*domain.HistoryItem, error) {
	var (
		req            domain.GenerationRequest
		sourcePreviews []string
		seedText       string
	)
	err := s.update(func() error {
		if s.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}
		if len(s.images) == 0 || strings.TrimSpace(s.prompt) == "" {
			s.errMessage = MsgValidation
			return &Error{Kind: KindValidation, Message: MsgValidation}
		}

		seed, err := parseSeed(s.seed)
		if err != nil {
			return err
		}

		req = domain.GenerationRequest{
			Images:      append([]domain.ImageFile(nil), s.images...),
			Prompt:      s.prompt,
			AspectRatio: s.ratio,
			Seed:        seed,
		}
		sourcePreviews = make([]string, len(s.images))
		for i, img := range s.images {
			sourcePreviews[i] = imgutil.EncodeDataURI(img.MIMEType, img.Data)
		}
		seedText = s.seed

		s.phase = PhaseSubmitting
		s.result = ""
		s.errMessage = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "画像生成を開始します", "images", len(req.Images), "aspect_ratio", req.AspectRatio)
	resp, genErr := s.generator.Generate(ctx, req)

	var item *domain.HistoryItem
	err = s.update(func() error {
		s.phase = PhaseIdle

		if genErr != nil {
			if errors.Is(genErr, generator.ErrNoImageData) {
				slog.WarnContext(ctx, "応答に画像が含まれていませんでした", "error", genErr)
				s.outcome = OutcomeSoftFailure
				s.errMessage = MsgNoImage
				return &Error{Kind: KindSoftFailure, Message: MsgNoImage, Err: genErr}
			}
			slog.ErrorContext(ctx, "画像生成に失敗しました", "error", genErr)
			hf := hardFailure(genErr)
			s.outcome = OutcomeHardFailure
			s.errMessage = hf.Message
			return hf
		}

		mimeType := resp.MimeType
		if mimeType == "" {
			mimeType = fallbackMIMEType
		}
		created := domain.HistoryItem{
			ID:             uuid.NewString(),
			SourcePreviews: sourcePreviews,
			Prompt:         req.Prompt,
			GeneratedImage: imgutil.EncodeDataURI(mimeType, resp.Data),
			Seed:           seedText,
			AspectRatio:    req.AspectRatio,
			CreatedAt:      s.now(),
		}
		if evicted := s.history.Prepend(created); evicted != nil && evicted.ID == s.inspectedID {
			s.inspectedID = ""
		}

		s.resetDraft()
		s.result = created.GeneratedImage
		s.outcome = OutcomeSuccess
		item = &created
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "画像生成が完了しました", "id", item.ID, "history", s.HistoryLen())
	return item, nil
}

// Download は imageRef を保存し、保存先を返します。imageRef が空の場合は何もしません。
func (s *GenerationSession) Download(ctx context.Context, imageRef string) (string, error) {
	if imageRef == "" {
		return "", nil
	}
	if s.saver == nil {
		return "", fmt.Errorf("保存先が設定されていません")
	}
	return s.saver.Save(ctx, imageRef)
}

// Improvise は生成済みの画像を唯一のベース画像として新しいドラフトを始めます。
// 画像に戻せない参照が渡された場合は KindConversion のエラーを返し、ドラフトは変更しません。
func (s *GenerationSession) Improvise(imageRef string) error {
	return s.update(func() error {
		if s.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}

		mimeType, data, err := imgutil.DecodeDataURI(imageRef)
		if err != nil || len(data) == 0 {
			slog.Warn("生成画像をベース画像に変換できませんでした", "error", err)
			s.errMessage = MsgConversion
			return &Error{Kind: KindConversion, Message: MsgConversion, Err: err}
		}

		file := domain.ImageFile{Name: improvisedFileName, MIMEType: mimeType, Data: data}

		s.releaseHandles(s.handles)
		s.images = []domain.ImageFile{file}
		s.handles = []preview.Handle{s.previews.Acquire(file)}
		s.result = ""
		s.errMessage = ""
		s.tab = domain.TabGenerator
		s.inspectedID = ""
		return nil
	})
}

// ClearHistory は confirm が同意した場合に限り、履歴をすべて削除します。
func (s *GenerationSession) ClearHistory(confirm Confirmer) bool {
	if confirm == nil || !confirm(MsgConfirmClear) {
		return false
	}
	_ = s.update(func() error {
		s.history.Clear()
		s.inspectedID = ""
		return nil
	})
	return true
}

// HistoryItem は ID に一致する履歴を返します。
func (s *GenerationSession) HistoryItem(id string) (domain.HistoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Find(id)
}

// HistoryLen は現在の履歴件数です。
func (s *GenerationSession) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// Close はドラフトが保持しているプレビューをすべて解放します。
func (s *GenerationSession) Close() error {
	return s.update(func() error {
		if s.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}
		s.resetDraft()
		return nil
	})
}

// resetDraft はドラフトを初期状態に戻します。呼び出し側でロックを保持していること。
func (s *GenerationSession) resetDraft() {
	s.releaseHandles(s.handles)
	s.images = nil
	s.handles = nil
	s.prompt = ""
	s.seed = ""
	s.ratio = domain.DefaultAspectRatio
}

func (s *GenerationSession) releaseHandles(handles []preview.Handle) {
	if err := s.previews.ReleaseAll(handles); err != nil {
		slog.Warn("プレビューの解放に失敗しました", "handles", len(handles), "error", err)
	}
}

func parseSeed(seed string) (*int64, error) {
	if seed == "" {
		return nil, nil
	}
	// Gemini のシードは int32
	v, err := strconv.ParseInt(seed, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
	}
	return &v, nil
}
