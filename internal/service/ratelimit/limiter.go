package ratelimit

import (
    "sync"
    "time"
)

type bucket struct {
    tokens float64
    last   time.Time
}

// Limiter is a per-key token bucket. Every key shares the same capacity and refill rate.
type Limiter struct {
    mu         sync.Mutex
    m          map[string]*bucket
    capacity   float64
    refillRate float64 // tokens per second
    now        func() time.Time
}

func New(capacity, refillPerSec float64) *Limiter {
    if capacity < 1 {
        capacity = 1
    }
    return &Limiter{
        m:          make(map[string]*bucket),
        capacity:   capacity,
        refillRate: refillPerSec,
        now:        time.Now,
    }
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
    l.mu.Lock()
    defer l.mu.Unlock()

    now := l.now()
    b, ok := l.m[key]
    if !ok {
        b = &bucket{tokens: l.capacity, last: now}
        l.m[key] = b
    }
    // refill
    elapsed := now.Sub(b.last).Seconds()
    if elapsed > 0 {
        b.tokens += elapsed * l.refillRate
        if b.tokens > l.capacity {
            b.tokens = l.capacity
        }
        b.last = now
    }
    if b.tokens >= 1 {
        b.tokens--
        return true
    }
    return false
}

// Prune drops buckets that have been idle long enough to be full again.
func (l *Limiter) Prune() int {
    if l.refillRate <= 0 {
        return 0
    }
    l.mu.Lock()
    defer l.mu.Unlock()

    full := time.Duration(l.capacity / l.refillRate * float64(time.Second))
    now := l.now()
    n := 0
    for k, b := range l.m {
        if now.Sub(b.last) >= full {
            delete(l.m, k)
            n++
        }
    }
    return n
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
    l.mu.Lock()
    defer l.mu.Unlock()
    return len(l.m)
}
