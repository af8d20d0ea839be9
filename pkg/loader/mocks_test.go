package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// pngHeader は http.DetectContentType が image/png と判定する最小のバイト列です。
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

type mockReader struct {
	files map[string][]byte
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	data, ok := m.files[uri]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type mockHTTPClient struct {
	mu      sync.Mutex
	calls   int
	data    []byte
	err     error
	lastURL string
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastURL = url
	return m.data, m.err
}

type mockCache struct {
	mu   sync.Mutex
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}
