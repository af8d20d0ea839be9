package cmd

import (
	"context"
	"fmt"

	"github.com/shouni/go-reimagine-kit/pkg/domain"
)

// --- Mocks ---

type mockLoader struct {
	loadAllFunc func(sources []string) ([]domain.ImageFile, error)
}

func (m *mockLoader) LoadAll(ctx context.Context, sources []string) ([]domain.ImageFile, error) {
	if m.loadAllFunc != nil {
		return m.loadAllFunc(sources)
	}
	files := make([]domain.ImageFile, len(sources))
	for i, src := range sources {
		files[i] = domain.ImageFile{Name: src, MIMEType: "image/png", Data: []byte(src)}
	}
	return files, nil
}

type mockGenerator struct {
	calls    int
	requests []domain.GenerationRequest
	err      error
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResponse, error) {
	m.calls++
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ImageResponse{Data: []byte(fmt.Sprintf("generated-%d", m.calls)), MimeType: "image/png"}, nil
}

type mockSaver struct {
	saved []string
}

func (m *mockSaver) Save(ctx context.Context, imageRef string) (string, error) {
	m.saved = append(m.saved, imageRef)
	return fmt.Sprintf("output/re-imagined-%d.png", len(m.saved)), nil
}
