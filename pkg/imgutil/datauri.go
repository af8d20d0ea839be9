package imgutil

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const dataURIPrefix = "data:"

// ErrInvalidDataURI は base64 形式の data URI として解釈できない場合のエラーです。
var ErrInvalidDataURI = errors.New("invalid data URI")

// EncodeDataURI は画像データを "data:<mime>;base64,<payload>" 形式に変換します。
func EncodeDataURI(mimeType string, data []byte) string {
	return dataURIPrefix + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI は EncodeDataURI の逆変換を行い、MIMEタイプとバイト列を返します。
func DecodeDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return "", nil, fmt.Errorf("%w: missing scheme", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, dataURIPrefix), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	mimeType, found := strings.CutSuffix(meta, ";base64")
	if !found {
		return "", nil, fmt.Errorf("%w: not base64 encoded", ErrInvalidDataURI)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return mimeType, data, nil
}
