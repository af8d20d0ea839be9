package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-reimagine-kit/internal/builder"
	"github.com/shouni/go-reimagine-kit/internal/config"
	"github.com/shouni/go-reimagine-kit/pkg/domain"
	"github.com/shouni/go-reimagine-kit/pkg/session"

	"github.com/spf13/cobra"
)

// generateCmd は、ベース画像とプロンプトから 1 枚の画像を生成して保存します。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "ベース画像とプロンプトから画像を 1 枚生成して保存します。",
	Long: `--image で指定した最大 3 枚のベース画像 (ローカルパス、gs://、http(s)://) と
--prompt の指示を Gemini に送信し、生成された画像を --output-dir に保存します。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringArrayVarP(&opts.Images, "image", "i", nil, "ベース画像 (複数指定可、最大 3 枚)。")
	generateCmd.Flags().StringVarP(&opts.Prompt, "prompt", "p", "", "画像をどう変えるかの指示。")
	generateCmd.Flags().StringVarP(&opts.Seed, "seed", "s", "", "再現用のシード値 (整数)。")
	generateCmd.Flags().StringVarP(&opts.AspectRatio, "aspect-ratio", "a", string(domain.DefaultAspectRatio), "出力画像の縦横比 (1:1, 16:9, 9:16)。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(opts.Images) == 0 || opts.Prompt == "" {
		return fmt.Errorf("ベース画像 (--image) とプロンプト (--prompt) を指定してください")
	}
	if len(opts.Images) > domain.MaxBaseImages {
		slog.Warn("ベース画像が上限を超えたため、先頭から順に使用します", "given", len(opts.Images), "max", domain.MaxBaseImages)
	}

	cfg := loadConfig()
	appCtx, err := builder.SetupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	l, err := builder.BuildLoader(appCtx)
	if err != nil {
		return err
	}
	s, err := builder.BuildSession(appCtx)
	if err != nil {
		return err
	}
	defer s.Close()

	slog.Info("画像生成を開始します",
		"image_model", cfg.GeminiImageModel,
		"images", len(opts.Images),
		"aspect_ratio", opts.AspectRatio,
		"output_dir", cfg.OutputDir)

	path, err := generateOnce(ctx, s, l, cfg.Options)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// generateOnce はドラフトを組み立てて 1 回だけ送信し、生成画像の保存先を返します。
func generateOnce(ctx context.Context, s *session.GenerationSession, l imageLoader, o config.GenerateOptions) (string, error) {
	sources := o.Images
	if len(sources) > domain.MaxBaseImages {
		sources = sources[:domain.MaxBaseImages]
	}
	files, err := l.LoadAll(ctx, sources)
	if err != nil {
		return "", err
	}
	if _, err := s.AddImages(files); err != nil {
		return "", err
	}
	if err := s.SetPrompt(o.Prompt); err != nil {
		return "", err
	}
	if err := s.SetSeed(o.Seed); err != nil {
		return "", err
	}
	if err := s.SetAspectRatio(domain.AspectRatio(o.AspectRatio)); err != nil {
		return "", err
	}

	item, err := s.Submit(ctx)
	if err != nil {
		return "", err
	}

	path, err := s.Download(ctx, item.GeneratedImage)
	if err != nil {
		return "", err
	}
	slog.Info("画像を保存しました", "path", path, "id", item.ID)
	return path, nil
}
