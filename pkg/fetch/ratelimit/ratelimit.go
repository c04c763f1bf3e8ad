// Package ratelimit implements the per-(clientId,service) token-bucket
// capacity gate external fetchers consult before any paid-provider call
// (spec.md §4.E/§5).
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// key identifies one independent bucket.
type key struct {
	clientID string
	service  string
}

// Gate holds one token bucket per (clientId, service) pair, created
// lazily on first use. Concurrent Allow calls on the same bucket serialize
// through golang.org/x/time/rate's own internal mutex; Gate's own lock
// only protects the bucket map.
type Gate struct {
	mu      sync.Mutex
	buckets map[key]*rate.Limiter

	// ratePerSecond and burst configure every bucket created by this gate.
	ratePerSecond float64
	burst         int
}

// NewGate constructs a Gate whose buckets refill at ratePerSecond tokens
// per second up to burst tokens.
func NewGate(ratePerSecond float64, burst int) *Gate {
	return &Gate{
		buckets:       make(map[key]*rate.Limiter),
		ratePerSecond: ratePerSecond,
		burst:         burst,
	}
}

func (g *Gate) limiterFor(clientID, service string) *rate.Limiter {
	k := key{clientID, service}

	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.buckets[k]
	if !ok {
		l = rate.NewLimiter(rate.Limit(g.ratePerSecond), g.burst)
		g.buckets[k] = l
	}
	return l
}

// Allow reports whether a call for (clientID, service) may proceed now,
// consuming one token if so. Callers that are denied must treat the
// fetcher call as a null result and record the denial in routing flags,
// per spec.md §4.E/§5 — this is never an error, only a boolean gate.
func (g *Gate) Allow(clientID, service string) bool {
	return g.limiterFor(clientID, service).Allow()
}
