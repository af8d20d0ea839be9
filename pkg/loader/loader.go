package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shouni/go-reimagine-kit/pkg/domain"

	"golang.org/x/sync/errgroup"
)

// InputReader はローカルファイルや GCS (gs://) からの読み込みを抽象化します。
// remoteio.InputReader がこれを満たします。
type InputReader interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// HTTPClient は URL からデータを取得するためのインターフェースです。
// httpkit.ClientInterface がこれを満たします。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageCacher は取得済み画像のキャッシュ操作を抽象化します。
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// Loader はユーザーが指定した画像ソースを ImageFile として読み込みます。
type Loader struct {
	reader     InputReader
	httpClient HTTPClient
	cache      ImageCacher
	cacheTTL   time.Duration
}

// New は依存関係を注入して Loader を生成します。cache は nil を許容します。
func New(reader InputReader, httpClient HTTPClient, cache ImageCacher, cacheTTL time.Duration) (*Loader, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &Loader{
		reader:     reader,
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}, nil
}

// Load は 1 つの画像ソースを読み込みます。
// http(s) の URL は SSRF 対策の検証後にダウンロードし、それ以外は reader で開きます。
func (l *Loader) Load(ctx context.Context, source string) (domain.ImageFile, error) {
	var (
		data []byte
		err  error
	)
	if isRemoteURL(source) {
		data, err = l.fetch(ctx, source)
	} else {
		data, err = l.open(ctx, source)
	}
	if err != nil {
		return domain.ImageFile{}, err
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.ImageFile{}, fmt.Errorf("画像ファイルではありません: %s (detected: %s)", source, mimeType)
	}

	return domain.ImageFile{
		Name:     path.Base(source),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// LoadAll は複数の画像ソースを並列に読み込みます。
// 結果は入力順を維持し、1 つでも失敗した場合は全体をエラーとします。
func (l *Loader) LoadAll(ctx context.Context, sources []string) ([]domain.ImageFile, error) {
	files := make([]domain.ImageFile, len(sources))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, src := range sources {
		eg.Go(func() error {
			f, err := l.Load(egCtx, src)
			if err != nil {
				return fmt.Errorf("画像 %d の読み込みに失敗しました: %w", i+1, err)
			}
			files[i] = f
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if l.cache != nil {
		if cached, found := l.cache.Get(rawURL); found {
			if data, ok := cached.([]byte); ok {
				return data, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", rawURL, "type", fmt.Sprintf("%T", cached))
		}
	}

	if safe, err := IsSafeURL(rawURL); err != nil || !safe {
		slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", rawURL, "error", err)
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}

	data, err := l.httpClient.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("画像のダウンロードに失敗しました (url: %s): %w", rawURL, err)
	}

	if l.cache != nil {
		l.cache.Set(rawURL, data, l.cacheTTL)
	}
	return data, nil
}

func (l *Loader) open(ctx context.Context, uri string) ([]byte, error) {
	rc, err := l.reader.Open(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("画像ファイル '%s' を開けません: %w", uri, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("画像ファイル '%s' の読み込みに失敗しました: %w", uri, err)
	}
	return data, nil
}

func isRemoteURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
