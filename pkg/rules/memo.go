package rules

import (
	"container/list"
	"context"
	"sync"

	"github.com/dmitrymomot/formkit/pkg/validation"
)

type verdict struct {
	ok      bool
	payload any
}

type lruEntry[K comparable] struct {
	key   K
	value verdict
}

// verdictCache is a thread-safe LRU of check verdicts.
type verdictCache[K comparable] struct {
	capacity int
	items    map[K]*list.Element
	eviction *list.List
	mu       sync.Mutex
}

func newVerdictCache[K comparable](capacity int) *verdictCache[K] {
	return &verdictCache[K]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
	}
}

func (c *verdictCache[K]) get(key K) (verdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		return elem.Value.(*lruEntry[K]).value, true
	}
	return verdict{}, false
}

func (c *verdictCache[K]) put(key K, v verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		elem.Value.(*lruEntry[K]).value = v
		return
	}

	c.items[key] = c.eviction.PushFront(&lruEntry[K]{key: key, value: v})
	if c.eviction.Len() > c.capacity {
		oldest := c.eviction.Back()
		c.eviction.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry[K]).key)
	}
}

// Memoize caches the verdicts of fn for the last capacity distinct values.
// Errors, including context cancellation, are never cached.
func Memoize[T comparable](fn CheckFunc[T], capacity int) (CheckFunc[T], error) {
	if fn == nil {
		return nil, ErrNilCheck
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	cache := newVerdictCache[T](capacity)
	return func(ctx context.Context, value T) (bool, any, error) {
		if v, ok := cache.get(value); ok {
			return v.ok, v.payload, nil
		}

		ok, payload, err := fn(ctx, value)
		if err != nil {
			return false, nil, err
		}
		cache.put(value, verdict{ok: ok, payload: payload})
		return ok, payload, nil
	}, nil
}

// CachedRemote is Remote over a memoized fn.
func CachedRemote[T comparable](fn CheckFunc[T], capacity int) (validation.Validator[T], error) {
	memo, err := Memoize(fn, capacity)
	if err != nil {
		return validation.Validator[T]{}, err
	}
	return Remote(memo), nil
}
