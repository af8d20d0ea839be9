package session

import (
	"fmt"
	"strings"

	"github.com/shouni/go-reimagine-kit/pkg/domain"
	"github.com/shouni/go-reimagine-kit/pkg/preview"
)

// Phase は生成リクエストの進行状態です。
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
)

// Outcome は直近の生成リクエストの結果です。
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeSuccess     Outcome = "success"
	OutcomeSoftFailure Outcome = "soft_failure"
	OutcomeHardFailure Outcome = "hard_failure"
)

// Snapshot はある時点のセッション状態のコピーです。表示層はこれだけを参照します。
type Snapshot struct {
	Phase        Phase
	LastOutcome  Outcome
	Images       []domain.ImageFile
	Previews     []preview.Handle
	Prompt       string
	Seed         string
	AspectRatio  domain.AspectRatio
	Result       string // 直近の生成画像 (data URI)
	ErrorMessage string
	History      []domain.HistoryItem
	Tab          domain.Tab
	Theme        domain.Theme
	Inspected    *domain.HistoryItem
}

// CanSubmit は送信ボタンを有効にしてよいかを返します。
func (s Snapshot) CanSubmit() bool {
	return s.Phase == PhaseIdle && len(s.Images) > 0 && strings.TrimSpace(s.Prompt) != ""
}

// Listener は状態が変わるたびに最新の Snapshot を受け取ります。
type Listener func(Snapshot)

type listenerEntry struct {
	id int
	fn Listener
}

// Subscribe は状態変更の通知先を登録し、登録解除用の関数を返します。
// 通知はロックを解放した後、登録順に同期的に行われます。
func (s *GenerationSession) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Snapshot は現在の状態のコピーを返します。
func (s *GenerationSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SelectTab は表示する画面を切り替えます。
func (s *GenerationSession) SelectTab(tab domain.Tab) error {
	if tab != domain.TabGenerator && tab != domain.TabHistory {
		return fmt.Errorf("未対応のタブです: %q", tab)
	}
	return s.update(func() error {
		s.tab = tab
		return nil
	})
}

// Inspect は履歴の詳細表示を開きます。
func (s *GenerationSession) Inspect(id string) error {
	return s.update(func() error {
		if _, ok := s.history.Find(id); !ok {
			return fmt.Errorf("%w: %s", ErrHistoryItemNotFound, id)
		}
		s.inspectedID = id
		return nil
	})
}

// CloseInspector は履歴の詳細表示を閉じます。
func (s *GenerationSession) CloseInspector() {
	_ = s.update(func() error {
		s.inspectedID = ""
		return nil
	})
}

// SetTheme は表示テーマを設定します。
func (s *GenerationSession) SetTheme(theme domain.Theme) error {
	if theme != domain.ThemeLight && theme != domain.ThemeDark {
		return fmt.Errorf("未対応のテーマです: %q", theme)
	}
	return s.update(func() error {
		s.theme = theme
		return nil
	})
}

// ToggleTheme はテーマを切り替え、切り替え後のテーマを返します。
func (s *GenerationSession) ToggleTheme() domain.Theme {
	var next domain.Theme
	_ = s.update(func() error {
		s.theme = s.theme.Toggle()
		next = s.theme
		return nil
	})
	return next
}

// update はロック内で fn を実行し、ロック解放後にリスナーへ通知します。
func (s *GenerationSession) update(fn func() error) error {
	s.mu.Lock()
	err := fn()
	snap := s.snapshotLocked()
	listeners := make([]Listener, len(s.listeners))
	for i, l := range s.listeners {
		listeners[i] = l.fn
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return err
}

func (s *GenerationSession) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:        s.phase,
		LastOutcome:  s.outcome,
		Images:       append([]domain.ImageFile(nil), s.images...),
		Previews:     append([]preview.Handle(nil), s.handles...),
		Prompt:       s.prompt,
		Seed:         s.seed,
		AspectRatio:  s.ratio,
		Result:       s.result,
		ErrorMessage: s.errMessage,
		History:      s.history.Items(),
		Tab:          s.tab,
		Theme:        s.theme,
	}
	if s.inspectedID != "" {
		if item, ok := s.history.Find(s.inspectedID); ok {
			snap.Inspected = &item
		}
	}
	return snap
}
