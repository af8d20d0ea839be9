package session

import (
	"context"
	"sync"

	"github.com/shouni/go-reimagine-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockGenerator struct {
	mu       sync.Mutex
	calls    int
	requests []domain.GenerationRequest
	started  chan struct{} // Generate が呼ばれたら閉じる (nil 可)
	release  chan struct{} // 閉じられるまで Generate を待機させる (nil 可)
	genFunc  func(req domain.GenerationRequest) (*domain.ImageResponse, error)
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResponse, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.started != nil {
		close(m.started)
	}
	if m.release != nil {
		<-m.release
	}
	if m.genFunc != nil {
		return m.genFunc(req)
	}
	return &domain.ImageResponse{Data: []byte("generated"), MimeType: "image/png"}, nil
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockSaver struct {
	calls   int
	lastRef string
	err     error
}

func (m *mockSaver) Save(ctx context.Context, imageRef string) (string, error) {
	m.calls++
	m.lastRef = imageRef
	if m.err != nil {
		return "", m.err
	}
	return "output/re-imagined-1.png", nil
}

// mockAIClient は generator.GenerativeModel を満たし、実際の GeminiGenerator 経由の送信内容を検証します。
type mockAIClient struct {
	fn func(parts []*genai.Part) (*gemini.Response, error)
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	return m.fn(parts)
}
