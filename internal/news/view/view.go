package view

import (
	"sync"
	"time"

	"github.com/zappabad/marketpulse/internal/news"
)

// NewsView holds the most recent news list. Each update replaces it.
type NewsView struct {
	mu        sync.RWMutex
	items     []news.Item
	updatedAt time.Time
	lastErr   error
}

// NewNewsView creates an empty NewsView.
func NewNewsView() *NewsView {
	return &NewsView{}
}

// Replace swaps in a new list.
func (v *NewsView) Replace(items []news.Item, at time.Time) {
	cp := append([]news.Item(nil), items...)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = cp
	v.updatedAt = at
	v.lastErr = nil
}

// Fail records a failed refresh. The previous list is kept.
func (v *NewsView) Fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastErr = err
}

// Latest returns up to n items, newest first. n <= 0 returns all.
// Returns a copy (not internal references).
func (v *NewsView) Latest(n int) []news.Item {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if n <= 0 || n > len(v.items) {
		n = len(v.items)
	}
	return append([]news.Item(nil), v.items[:n]...)
}

// Count returns the number of items held.
func (v *NewsView) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// UpdatedAt returns when the list was last replaced.
func (v *NewsView) UpdatedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.updatedAt
}

// Err returns the error of the last refresh, if it failed.
func (v *NewsView) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}
