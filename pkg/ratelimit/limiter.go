package ratelimit

import (
	"container/list"
	"sync"
	"time"
)

// Limiter is a fixed-window request limiter keyed by client, tracking at
// most capacity keys. Least-recently-seen keys are evicted at capacity, so
// memory stays bounded no matter how many distinct clients appear.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	capacity    int
	entries     map[string]*list.Element
	order       *list.List

	now func() time.Time
}

type entry struct {
	key         string
	count       int
	windowStart time.Time
}

// New creates a Limiter allowing maxRequests per window per key, tracking
// at most capacity keys.
func New(maxRequests int, window time.Duration, capacity int) *Limiter {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		capacity:    capacity,
		entries:     make(map[string]*list.Element, capacity),
		order:       list.New(),
		now:         time.Now,
	}
}

// Allow reports whether a request for key is within its window budget, and
// counts it if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if elem, ok := l.entries[key]; ok {
		l.order.MoveToFront(elem)
		e := elem.Value.(*entry)
		if now.Sub(e.windowStart) >= l.window {
			e.count = 0
			e.windowStart = now
		}
		if e.count >= l.maxRequests {
			return false
		}
		e.count++
		return true
	}

	if l.order.Len() >= l.capacity {
		oldest := l.order.Back()
		if oldest != nil {
			l.order.Remove(oldest)
			delete(l.entries, oldest.Value.(*entry).key)
		}
	}

	l.entries[key] = l.order.PushFront(&entry{key: key, count: 1, windowStart: now})
	return true
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}
