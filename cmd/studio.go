package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shouni/go-reimagine-kit/internal/builder"
	"github.com/shouni/go-reimagine-kit/pkg/domain"
	"github.com/shouni/go-reimagine-kit/pkg/session"

	"github.com/spf13/cobra"
)

const studioHelp = `commands:
  add <source>...        ベース画像を追加 (最大 3 枚)
  remove <n>             n 番目 (1 始まり) のベース画像を取り除く
  prompt <text>          プロンプトを設定
  seed [n]               シードを設定 (省略で解除)
  ratio <1:1|16:9|9:16>  縦横比を設定
  submit                 画像を生成
  download [id]          現在の結果または履歴の画像を保存
  improvise [id]         現在の結果または履歴の画像を新しいベースにする
  history                履歴を一覧表示
  show <id> / close      履歴の詳細を開く / 閉じる
  clear                  ドラフトを破棄
  clear-history          履歴をすべて削除
  tab <generator|history>
  theme [light|dark]     テーマを設定 (省略で切り替え)
  status                 現在の状態を表示
  help / quit`

var errQuit = errors.New("quit")

// imageLoader は画像ソースの一覧をベース画像として読み込みます。
type imageLoader interface {
	LoadAll(ctx context.Context, sources []string) ([]domain.ImageFile, error)
}

// studioCmd は 1 つの GenerationSession を対話的に操作します。
var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "対話的に画像の生成と履歴の操作を行います。",
	Long: `ベース画像の追加、プロンプトの編集、生成、保存、生成画像の再利用を
1 行ずつのコマンドで行います。履歴はプロセスの終了とともに破棄されます。`,
	RunE: studioCommand,
}

func studioCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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

	unsubscribe := s.Subscribe(func(snap session.Snapshot) {
		slog.Debug("セッションの状態が更新されました",
			"phase", snap.Phase,
			"images", len(snap.Images),
			"history", len(snap.History),
			"tab", snap.Tab)
	})
	defer unsubscribe()

	slog.Info("スタジオを開始します", "image_model", cfg.GeminiImageModel, "output_dir", cfg.OutputDir)
	return newStudio(s, l, cmd.InOrStdin(), cmd.OutOrStdout()).run(ctx)
}

// studio は入力を 1 行ずつ解釈してセッションを操作します。
type studio struct {
	session *session.GenerationSession
	loader  imageLoader
	in      *bufio.Scanner
	out     io.Writer
}

func newStudio(s *session.GenerationSession, l imageLoader, in io.Reader, out io.Writer) *studio {
	return &studio{
		session: s,
		loader:  l,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

func (st *studio) run(ctx context.Context) error {
	fmt.Fprintln(st.out, `type "help" for commands`)
	for {
		fmt.Fprint(st.out, "> ")
		if !st.in.Scan() {
			return st.in.Err()
		}
		line := strings.TrimSpace(st.in.Text())
		if line == "" {
			continue
		}

		err := st.exec(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(st.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (st *studio) exec(ctx context.Context, line string) error {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	s := st.session

	switch name {
	case "help":
		fmt.Fprintln(st.out, studioHelp)
	case "quit", "exit":
		return errQuit

	case "add":
		sources := strings.Fields(rest)
		if len(sources) == 0 {
			return fmt.Errorf("usage: add <source>...")
		}
		files, err := st.loader.LoadAll(ctx, sources)
		if err != nil {
			return err
		}
		n, err := s.AddImages(files)
		if err != nil {
			return err
		}
		fmt.Fprintf(st.out, "added %d image(s) (%d/%d)\n", n, len(s.Snapshot().Images), domain.MaxBaseImages)
	case "remove":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("usage: remove <n>")
		}
		return s.RemoveImage(n - 1)
	case "prompt":
		return s.SetPrompt(rest)
	case "seed":
		return s.SetSeed(rest)
	case "ratio":
		return s.SetAspectRatio(domain.AspectRatio(rest))
	case "clear":
		return s.ClearDraft()

	case "submit":
		fmt.Fprintln(st.out, "generating...")
		item, err := s.Submit(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(st.out, "generated %s (history: %d)\n", item.ID, s.HistoryLen())
	case "download":
		ref, err := st.imageRef(rest)
		if err != nil {
			return err
		}
		path, err := s.Download(ctx, ref)
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Fprintln(st.out, "nothing to download")
			return nil
		}
		fmt.Fprintf(st.out, "saved %s\n", path)
	case "improvise":
		ref, err := st.imageRef(rest)
		if err != nil {
			return err
		}
		if err := s.Improvise(ref); err != nil {
			return err
		}
		fmt.Fprintln(st.out, "generated image is now the base image")

	case "history":
		st.printHistory(s.Snapshot().History)
	case "show":
		if err := s.Inspect(rest); err != nil {
			return err
		}
		st.printInspected(s.Snapshot().Inspected)
	case "close":
		s.CloseInspector()
	case "clear-history":
		if s.ClearHistory(st.confirm) {
			fmt.Fprintln(st.out, "history cleared")
		}
	case "tab":
		return s.SelectTab(domain.Tab(rest))
	case "theme":
		if rest == "" {
			fmt.Fprintf(st.out, "theme: %s\n", s.ToggleTheme())
			return nil
		}
		return s.SetTheme(domain.Theme(rest))
	case "status":
		st.printStatus(s.Snapshot())

	default:
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

// imageRef は id が空なら現在の結果を、そうでなければ履歴の生成画像を返します。
func (st *studio) imageRef(id string) (string, error) {
	if id == "" {
		return st.session.Snapshot().Result, nil
	}
	item, ok := st.session.HistoryItem(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", session.ErrHistoryItemNotFound, id)
	}
	return item.GeneratedImage, nil
}

func (st *studio) confirm(message string) bool {
	fmt.Fprintf(st.out, "%s [y/N] ", message)
	if !st.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(st.in.Text()))
	return answer == "y" || answer == "yes"
}

func (st *studio) printStatus(snap session.Snapshot) {
	fmt.Fprintf(st.out, "phase: %s  tab: %s  theme: %s\n", snap.Phase, snap.Tab, snap.Theme)
	for i, img := range snap.Images {
		fmt.Fprintf(st.out, "  [%d] %s (%s, %d bytes) %s\n", i+1, img.Name, img.MIMEType, len(img.Data), snap.Previews[i])
	}
	fmt.Fprintf(st.out, "prompt: %q  seed: %q  ratio: %s  ready: %t\n", snap.Prompt, snap.Seed, snap.AspectRatio, snap.CanSubmit())
	if snap.Result != "" {
		fmt.Fprintln(st.out, "result: available (download / improvise)")
	}
	if snap.ErrorMessage != "" {
		fmt.Fprintf(st.out, "message: %s\n", snap.ErrorMessage)
	}
}

func (st *studio) printHistory(items []domain.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(st.out, "history is empty")
		return
	}
	for _, item := range items {
		fmt.Fprintf(st.out, "%s  %s  %s  %q\n", item.ID, item.CreatedAt.Format("15:04:05"), item.AspectRatio, item.Prompt)
	}
}

func (st *studio) printInspected(item *domain.HistoryItem) {
	if item == nil {
		return
	}
	fmt.Fprintf(st.out, "id: %s\nprompt: %q\nseed: %q\nratio: %s\nsources: %d\ncreated: %s\n",
		item.ID, item.Prompt, item.Seed, item.AspectRatio, len(item.SourcePreviews), item.CreatedAt.Format("2006-01-02 15:04:05"))
}
