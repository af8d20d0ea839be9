package generator

import (
	"fmt"

	"github.com/shouni/go-reimagine-kit/pkg/domain"
)

// aspectRatioInstruction はプロンプト末尾に付与する縦横比の指示文です。
const aspectRatioInstruction = "The output image must have a strict aspect ratio of exactly %s."

// BuildPrompt は送信するテキストを組み立てます。
// 縦横比は構造化パラメータではなく、プロンプト内の指示として伝えます。
func BuildPrompt(prompt string, ratio domain.AspectRatio) string {
	if ratio == "" {
		return prompt
	}
	return prompt + " " + fmt.Sprintf(aspectRatioInstruction, ratio)
}

// dereferenceSeed は *int64 を安全に int64 に変換します。
// nil の場合はデフォルト値（0）を返します。
func dereferenceSeed(s *int64) int64 {
	if s == nil {
		return 0
	}
	return *s
}
