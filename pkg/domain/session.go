package domain

import (
	"fmt"
	"time"
)

const (
	// MaxBaseImages はドラフトに保持できるベース画像の上限です。
	MaxBaseImages = 3
	// MaxHistory は履歴に保持する生成結果の上限です。
	MaxHistory = 20
)

// AspectRatio は出力画像の縦横比の指定です。
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"

	DefaultAspectRatio = AspectSquare
)

// ParseAspectRatio は文字列を AspectRatio に変換します。
// 空文字はデフォルト値として扱います。
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch AspectRatio(s) {
	case "":
		return DefaultAspectRatio, nil
	case AspectSquare, AspectLandscape, AspectPortrait:
		return AspectRatio(s), nil
	}
	return "", fmt.Errorf("未対応のアスペクト比です: %q", s)
}

// HistoryItem は 1 回の生成成功につき 1 件作られる、変更不可の履歴エントリです。
type HistoryItem struct {
	ID             string
	SourcePreviews []string // 送信時点のベース画像 (data URI)
	Prompt         string
	GeneratedImage string // data URI
	Seed           string
	AspectRatio    AspectRatio
	CreatedAt      time.Time
}

// Tab は表示中の画面です。
type Tab string

const (
	TabGenerator Tab = "generator"
	TabHistory   Tab = "history"
)

// Theme は表示テーマです。
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle は反対側のテーマを返します。
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
