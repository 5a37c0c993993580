package cache

import (
	"container/list"
	"sync"
)

type entry struct {
	key string
	gen uint64
	val any
}

// LRU is a small generation-stamped cache for query responses. Each value
// is stored with the index generation it was computed against; a Get with
// a newer generation misses and evicts the stale value.
type LRU struct {
	mu  sync.Mutex
	cap int
	ll  *list.List
	m   map[string]*list.Element
}

func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{
		cap: capacity,
		ll:  list.New(),
		m:   map[string]*list.Element{},
	}
}

func (c *LRU) Get(key string, gen uint64) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.m[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if e.gen != gen {
		c.ll.Remove(el)
		delete(c.m, key)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return e.val, true
}

func (c *LRU) Put(key string, gen uint64, val any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.m[key]; ok {
		e := el.Value.(*entry)
		e.gen = gen
		e.val = val
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{key: key, gen: gen, val: val})
	c.m[key] = el

	for c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.m, oldest.Value.(*entry).key)
	}
}

func (c *LRU) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
