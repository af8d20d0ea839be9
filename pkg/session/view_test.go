package session

import (
	"context"
	"testing"

	"github.com/shouni/go-reimagine-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationSession_Subscribe(t *testing.T) {
	s, _ := newTestSession(t, &mockGenerator{})

	var got []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		got = append(got, snap)
	})

	_, _ = s.AddImages(files("a"))
	require.NoError(t, s.SetPrompt("castle"))
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	// AddImages, SetPrompt, Submit の開始と終了
	require.Len(t, got, 4)
	assert.Len(t, got[0].Images, 1)
	assert.Equal(t, "castle", got[1].Prompt)
	assert.Equal(t, PhaseSubmitting, got[2].Phase)
	assert.Equal(t, PhaseIdle, got[3].Phase)
	assert.Equal(t, OutcomeSuccess, got[3].LastOutcome)
	assert.Len(t, got[3].History, 1)

	t.Run("リスナーの中から状態を参照できる", func(t *testing.T) {
		var seen int
		unsub := s.Subscribe(func(snap Snapshot) {
			seen = s.HistoryLen()
		})
		defer unsub()
		s.ToggleTheme()
		assert.Equal(t, 1, seen)
	})

	unsubscribe()
	count := len(got)
	require.NoError(t, s.SelectTab(domain.TabHistory))
	assert.Len(t, got, count, "登録解除後は通知されない")
}

func TestGenerationSession_SelectTab(t *testing.T) {
	s, _ := newTestSession(t, &mockGenerator{})

	require.NoError(t, s.SelectTab(domain.TabHistory))
	assert.Equal(t, domain.TabHistory, s.Snapshot().Tab)

	assert.Error(t, s.SelectTab("settings"))
	assert.Equal(t, domain.TabHistory, s.Snapshot().Tab)
}

func TestGenerationSession_Inspect(t *testing.T) {
	s, _ := newTestSession(t, &mockGenerator{})
	_, _ = s.AddImages(files("a"))
	require.NoError(t, s.SetPrompt("p"))
	item, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Inspect("missing"), ErrHistoryItemNotFound)
	assert.Nil(t, s.Snapshot().Inspected)

	require.NoError(t, s.Inspect(item.ID))
	inspected := s.Snapshot().Inspected
	require.NotNil(t, inspected)
	assert.Equal(t, item.ID, inspected.ID)

	s.CloseInspector()
	assert.Nil(t, s.Snapshot().Inspected)
}

func TestGenerationSession_Theme(t *testing.T) {
	s, _ := newTestSession(t, &mockGenerator{})

	assert.Equal(t, domain.ThemeDark, s.ToggleTheme())
	assert.Equal(t, domain.ThemeLight, s.ToggleTheme())

	require.NoError(t, s.SetTheme(domain.ThemeDark))
	assert.Equal(t, domain.ThemeDark, s.Snapshot().Theme)
	assert.Error(t, s.SetTheme("sepia"))
	assert.Equal(t, domain.ThemeDark, s.Snapshot().Theme)
}

func TestSnapshot_CanSubmit(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"画像とプロンプトがある", Snapshot{Phase: PhaseIdle, Images: files("a"), Prompt: "p"}, true},
		{"画像がない", Snapshot{Phase: PhaseIdle, Prompt: "p"}, false},
		{"プロンプトが空白のみ", Snapshot{Phase: PhaseIdle, Images: files("a"), Prompt: " "}, false},
		{"送信中", Snapshot{Phase: PhaseSubmitting, Images: files("a"), Prompt: "p"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snap.CanSubmit())
		})
	}
}
