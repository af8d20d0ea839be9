package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-reimagine-kit/pkg/imgutil"
)

// FilePrefix は保存ファイル名の接頭辞です。
const FilePrefix = "re-imagined-"

// OutputWriter はローカルや GCS への書き込みを抽象化します。
// remoteio.OutputWriter がこれを満たします。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// Saver は生成画像 (data URI) を出力先ディレクトリへ保存します。
type Saver struct {
	writer OutputWriter
	dir    string
	now    func() time.Time
}

// NewSaver は Saver を生成します。dir はローカルパスまたは gs:// から始まる URI です。
func NewSaver(writer OutputWriter, dir string) (*Saver, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	return &Saver{
		writer: writer,
		dir:    dir,
		now:    time.Now,
	}, nil
}

// FileName は保存時刻からファイル名を生成します。
func FileName(t time.Time) string {
	return fmt.Sprintf("%s%d.png", FilePrefix, t.UnixMilli())
}

// Save は imageRef をデコードして保存し、保存先パスを返します。
// imageRef が空の場合は何もせず空文字を返します。
func (s *Saver) Save(ctx context.Context, imageRef string) (string, error) {
	if imageRef == "" {
		return "", nil
	}

	mimeType, data, err := imgutil.DecodeDataURI(imageRef)
	if err != nil {
		return "", fmt.Errorf("保存する画像を解釈できません: %w", err)
	}

	outputPath := joinPath(s.dir, FileName(s.now()))
	if err := s.writer.Write(ctx, outputPath, bytes.NewReader(data), mimeType); err != nil {
		return "", fmt.Errorf("画像の保存に失敗しました (path: %s): %w", outputPath, err)
	}

	slog.InfoContext(ctx, "生成画像を保存しました", "path", outputPath, "bytes", len(data))
	return outputPath, nil
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}
