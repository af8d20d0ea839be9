package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-reimagine-kit/internal/config"

	"github.com/spf13/cobra"
)

// opts は全サブコマンドで共有する実行時パラメータです。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:   "reimagine",
	Short: "参照画像とプロンプトから Gemini で画像を再構成します。",
	Long: `最大 3 枚のベース画像とプロンプト (任意でシードと縦横比) を Gemini に送信し、
生成された画像を保存します。generate で 1 回だけ生成し、studio で対話的に作業できます。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義します。
func addAppFlags(cmd *cobra.Command) {
	// --- 出力設定 ---
	cmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "生成画像の保存ディレクトリ (ローカル or gs://...)。未指定時は REIMAGINE_OUTPUT_DIR を使います。")

	// --- AI モデル・挙動設定 ---
	cmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "使用する Gemini 画像モデル名。未指定時は IMAGE_GEMINI_MODEL を使います。")
	cmd.PersistentFlags().BoolVar(&opts.Compress, "compress", false, "参照画像を JPEG に圧縮してから送信します。")
	cmd.PersistentFlags().IntVar(&opts.CompressionQuality, "quality", config.DefaultCompressionQuality, "JPEG 圧縮時の品質 (1-100)。")

	// --- 実行制御 ---
	cmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "参照画像ダウンロードのタイムアウト。")
	cmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "生成リクエストの最小間隔 (0 で無制限)。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行います。
func preRunAppE(cmd *cobra.Command, args []string) error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini API の利用には必須です")
	}
	return nil
}

// loadConfig は環境変数の設定にフラグの値を反映します。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Apply(opts)
	return cfg
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, studioCmd)
}

// Execute は、アプリケーションのメインエントリポイントです。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
