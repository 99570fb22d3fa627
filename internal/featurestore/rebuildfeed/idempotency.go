package rebuildfeed

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// generationDedupe tracks the last-applied generation per table path so
// an out-of-order or redelivered rebuild event is never applied twice.
type generationDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, uint64]
}

func newGenerationDedupe(size int) *generationDedupe {
	if size <= 0 {
		size = 256
	}
	c, _ := lru.New[string, uint64](size)
	return &generationDedupe{lru: c}
}

// shouldApply reports whether generation g is newer than the last one
// seen for tablePath.
func (d *generationDedupe) shouldApply(tablePath string, g uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(tablePath); ok && g <= last {
		return false
	}
	d.lru.Add(tablePath, g)
	return true
}
