package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-reimagine-kit/internal/config"
	"github.com/shouni/go-reimagine-kit/pkg/download"
	"github.com/shouni/go-reimagine-kit/pkg/generator"
	"github.com/shouni/go-reimagine-kit/pkg/loader"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持します。
// これを各 Build 関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config     *config.Config         // Config は環境変数とフラグから組み立てた設定です。
	Options    config.GenerateOptions // Options はコマンドラインから渡された実行時の設定です。
	Reader     loader.InputReader     // Reader はローカルファイルや gs:// の画像を読み込む入力元です。
	Writer     download.OutputWriter  // Writer は生成画像を保存する出力先です。
	aiClient   generator.GenerativeModel
	httpClient loader.HTTPClient
}

// NewAppContext は AppContext の新しいインスタンスを生成します。
func NewAppContext(
	cfg *config.Config,
	httpClient loader.HTTPClient,
	aiClient generator.GenerativeModel,
	reader loader.InputReader,
	writer download.OutputWriter,
) AppContext {
	return AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		aiClient:   aiClient,
		httpClient: httpClient,
		Reader:     reader,
		Writer:     writer,
	}
}

// SetupAppContext は設定から実際のクライアント群を初期化して AppContext を返します。
func SetupAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	httpClient := httpkit.New(cfg.Options.HTTPTimeout)
	aiClient, err := InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, fmt.Errorf("InputReaderの初期化に失敗しました: %w", err)
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, fmt.Errorf("OutputWriterの初期化に失敗しました: %w", err)
	}

	appCtx := NewAppContext(cfg, httpClient, aiClient, reader, writer)
	return &appCtx, nil
}
