// Package preview は、ドラフト上の画像に対応する一時的な表示用ハンドルを管理します。
// ハンドルは明示的に Release されるまで解放されません。
package preview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shouni/go-reimagine-kit/pkg/domain"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const handlePrefix = "blob:"

// ErrNotFound は未発行、または解放済みのハンドルを指定した場合のエラーです。
var ErrNotFound = errors.New("preview handle not found")

// Handle は表示用リソースへの参照です。
type Handle string

// Registry は発行済みハンドルと画像の対応を保持します。
type Registry struct {
	mu    sync.Mutex
	items *cache.Cache
}

// NewRegistry は空の Registry を生成します。
func NewRegistry() *Registry {
	return &Registry{
		// 期限切れによる自動削除は行わない
		items: cache.New(cache.NoExpiration, 0),
	}
}

// Acquire は画像に対する新しいハンドルを発行します。
func (r *Registry) Acquire(file domain.ImageFile) Handle {
	h := Handle(handlePrefix + uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items.Set(string(h), file, cache.NoExpiration)
	return h
}

// Resolve はハンドルが指す画像を返します。
func (r *Registry) Resolve(h Handle) (domain.ImageFile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items.Get(string(h))
	if !ok {
		return domain.ImageFile{}, false
	}
	file, ok := v.(domain.ImageFile)
	return file, ok
}

// Release はハンドルを解放します。同じハンドルを 2 回解放すると ErrNotFound を返します。
func (r *Registry) Release(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items.Get(string(h)); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	r.items.Delete(string(h))
	return nil
}

// ReleaseAll は複数のハンドルをまとめて解放し、最初に発生したエラーを返します。
func (r *Registry) ReleaseAll(handles []Handle) error {
	var firstErr error
	for _, h := range handles {
		if err := r.Release(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Live は未解放のハンドル数を返します。
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items.ItemCount()
}
