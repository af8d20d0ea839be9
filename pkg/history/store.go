package history

import "github.com/shouni/go-reimagine-kit/pkg/domain"

// Store は新しい順に並んだ、容量制限付きの生成履歴です。
// 並行利用時の排他は呼び出し側で行います。
type Store struct {
	capacity int
	items    []domain.HistoryItem
}

// NewStore は指定した容量の Store を生成します。容量が 1 未満の場合は domain.MaxHistory を使います。
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = domain.MaxHistory
	}
	return &Store{
		capacity: capacity,
		items:    make([]domain.HistoryItem, 0, capacity),
	}
}

// Prepend は履歴の先頭に追加し、容量を超えた場合は最も古い項目を取り除いて返します。
func (s *Store) Prepend(item domain.HistoryItem) (evicted *domain.HistoryItem) {
	s.items = append([]domain.HistoryItem{item}, s.items...)
	if len(s.items) > s.capacity {
		last := s.items[len(s.items)-1]
		evicted = &last
		s.items = s.items[:s.capacity]
	}
	return evicted
}

// Items は新しい順の履歴のコピーを返します。
func (s *Store) Items() []domain.HistoryItem {
	out := make([]domain.HistoryItem, len(s.items))
	copy(out, s.items)
	return out
}

// Find は ID に一致する項目を返します。
func (s *Store) Find(id string) (domain.HistoryItem, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.HistoryItem{}, false
}

// Len は保持している件数です。
func (s *Store) Len() int { return len(s.items) }


// Clear はすべての履歴を削除します。
func (s *Store) Clear() {
	s.items = s.items[:0]
}
