// Package cache bounds the number of parsed Line objects held in memory.
// Eviction only forces reparsing; it never affects rendered output.
package cache

import (
	"container/list"

	"github.com/streampager/streampager/internal/line"
)

// Key identifies a cached line.
type Key struct {
	FileID int
	Line   int
}

type entry struct {
	key  Key
	line *line.Line
}

// Cache is an LRU map from (file-id, line-index) to a parsed Line. It is
// accessed only from the UI goroutine, so it carries no lock.
type Cache struct {
	capacity int
	order    *list.List // front = most recently used
	items    map[Key]*list.Element
}

// New returns a cache bounded to capacity entries. A capacity below 1 is
// raised to 1.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[Key]*list.Element, capacity),
	}
}

// Get returns the cached Line for k, marking it most recently used.
func (c *Cache) Get(k Key) (*line.Line, bool) {
	el, ok := c.items[k]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).line, true
}

// GetOrCreate returns the cached Line for k, constructing and inserting
// it via build on a miss.
func (c *Cache) GetOrCreate(k Key, build func() *line.Line) *line.Line {
	if l, ok := c.Get(k); ok {
		return l
	}
	l := build()
	c.put(k, l)
	return l
}

func (c *Cache) put(k Key, l *line.Line) {
	if el, ok := c.items[k]; ok {
		c.order.MoveToFront(el)
		el.Value.(*entry).line = l
		return
	}
	c.items[k] = c.order.PushFront(&entry{key: k, line: l})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}
}

// Invalidate drops a single entry, forcing a reparse on next use. Used
// when a partial last line grows new bytes.
func (c *Cache) Invalidate(k Key) {
	if el, ok := c.items[k]; ok {
		c.order.Remove(el)
		delete(c.items, k)
	}
}

// Clear drops every entry. Called when wrap mode or width changes.
func (c *Cache) Clear() {
	c.order.Init()
	c.items = make(map[Key]*list.Element, c.capacity)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int { return c.order.Len() }
