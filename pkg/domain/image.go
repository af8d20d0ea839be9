package domain

// ImageFile はユーザーが選択した、またはドラッグ&ドロップした生の画像データです。
type ImageFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// GenerationRequest は 1 回の画像生成要求です。
// Images は送信順を保持し、AspectRatio はプロンプト末尾の指示文として扱われます。
type GenerationRequest struct {
	Images      []ImageFile
	Prompt      string
	AspectRatio AspectRatio
	Seed        *int64 // nil でランダム
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
	UsedSeed int64 // 戻り値は情報欠落を防ぐため int64
}
