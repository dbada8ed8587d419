package utils

import (
	"sync"

	"github.com/dolthub/swiss"
	"github.com/floatdrop/lru"
)

type Cache[K comparable, T any] interface {
	Get(key K) (value T, ok bool)
	Set(key K, value T)
	Clear()
}

type lruCache[K comparable, T any] struct {
	lock  sync.Mutex
	size  int
	cache *lru.LRU[K, T]
}

func NewLRUCache[K comparable, T any](size int) Cache[K, T] {
	return &lruCache[K, T]{
		size:  size,
		cache: lru.New[K, T](size),
	}
}

func (c *lruCache[K, T]) Get(key K) (value T, ok bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if v := c.cache.Get(key); v != nil {
		return *v, true
	}
	return value, false
}

func (c *lruCache[K, T]) Set(key K, value T) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.cache.Set(key, value)
}

func (c *lruCache[K, T]) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.cache = lru.New[K, T](c.size)
}

type mapCache[K comparable, T any] struct {
	lock sync.Mutex
	size int
	m    *swiss.Map[K, T]
}

// NewMapCache swiss table backed cache, flushed whenever it grows past size
func NewMapCache[K comparable, T any](size int) Cache[K, T] {
	return &mapCache[K, T]{
		size: size,
		m:    swiss.NewMap[K, T](uint32(size)),
	}
}

func (c *mapCache[K, T]) Get(key K) (value T, ok bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.m.Get(key)
}

func (c *mapCache[K, T]) Set(key K, value T) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.m.Count() >= c.size {
		c.m.Clear()
	}
	c.m.Put(key, value)
}

func (c *mapCache[K, T]) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.m.Clear()
}

type nilCache[K comparable, T any] struct{}

func NewNilCache[K comparable, T any]() Cache[K, T] {
	return nilCache[K, T]{}
}

func (nilCache[K, T]) Get(key K) (value T, ok bool) {
	return value, false
}

func (nilCache[K, T]) Set(key K, value T) {}

func (nilCache[K, T]) Clear() {}
