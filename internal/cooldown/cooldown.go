// Package cooldown tracks throttled actions along two independent scopes: a
// global scope shared by every actor and a per-actor scope. Each key maps to an
// absolute expiry; an expired key reads the same as an absent one.
package cooldown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMaxEntries caps the key map when no explicit cap is configured.
const DefaultMaxEntries = 10000

// Scope is the axis a key is tracked along.
type Scope int

const (
	Global Scope = iota
	PerActor
)

func (s Scope) String() string {
	switch s {
	case Global:
		return "global"
	case PerActor:
		return "actor"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Key identifies one cooldown. Actor is only meaningful for PerActor keys.
type Key struct {
	Scope Scope
	Actor string
	ID    string
}

// GlobalKey returns the shared key for id.
func GlobalKey(id string) Key { return Key{Scope: Global, ID: id} }

// ActorKey returns the key for id as seen by one actor.
func ActorKey(actor, id string) Key { return Key{Scope: PerActor, Actor: actor, ID: id} }

func (k Key) String() string {
	if k.Scope == PerActor {
		return fmt.Sprintf("%s:%s:%s", k.Scope, k.Actor, k.ID)
	}
	return fmt.Sprintf("%s:%s", k.Scope, k.ID)
}

// Hold pairs a key with the duration it should cool down for once acquired.
type Hold struct {
	Key Key
	For time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMaxEntries caps the number of stored keys. n <= 0 disables the cap.
func WithMaxEntries(n int) Option {
	return func(e *Engine) { e.maxEntries = n }
}

// Engine is safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	expiry     map[Key]time.Time
	now        func() time.Time
	maxEntries int
}

// New returns an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		expiry:     make(map[Key]time.Time),
		now:        time.Now,
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check reports how long k still has to cool down. It does not mutate state.
func (e *Engine) Check(k Key) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining(k, e.now())
}

// Refresh sets k to expire d from now, overwriting any previous expiry.
func (e *Engine) Refresh(k Key, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	e.set(k, now.Add(d), now)
}

// Acquire checks and refreshes every hold under one lock. If any key is still
// cooling down nothing is refreshed, and the longest remaining wait is returned
// with ok=false.
func (e *Engine) Acquire(holds ...Hold) (wait time.Duration, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for _, h := range holds {
		if left, cooling := e.remaining(h.Key, now); cooling && left > wait {
			wait = left
		}
	}
	if wait > 0 {
		return wait, false
	}

	for _, h := range holds {
		e.set(h.Key, now.Add(h.For), now)
	}
	return 0, true
}

// Sweep drops expired keys and returns how many were removed.
func (e *Engine) Sweep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sweepLocked(e.now())
}

// Len returns the number of stored keys, expired ones included.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.expiry)
}

// Run sweeps every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := e.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Int("remaining", e.Len()).Msg("cooldowns swept")
			}
		}
	}
}

func (e *Engine) remaining(k Key, now time.Time) (time.Duration, bool) {
	exp, ok := e.expiry[k]
	if !ok {
		return 0, false
	}
	left := exp.Sub(now)
	if left <= 0 {
		return 0, false
	}
	return left, true
}

// set stores an expiry, making room first when a new key would exceed the cap.
func (e *Engine) set(k Key, exp, now time.Time) {
	if _, exists := e.expiry[k]; !exists && e.maxEntries > 0 && len(e.expiry) >= e.maxEntries {
		e.sweepLocked(now)
		if len(e.expiry) >= e.maxEntries {
			e.evictSoonestLocked()
		}
	}
	e.expiry[k] = exp
}

func (e *Engine) sweepLocked(now time.Time) int {
	removed := 0
	for k, exp := range e.expiry {
		if !exp.After(now) {
			delete(e.expiry, k)
			removed++
		}
	}
	return removed
}

// evictSoonestLocked drops the key closest to expiry.
func (e *Engine) evictSoonestLocked() {
	var (
		victim Key
		first  = true
		soon   time.Time
	)
	for k, exp := range e.expiry {
		if first || exp.Before(soon) {
			victim, soon, first = k, exp, false
		}
	}
	if !first {
		delete(e.expiry, victim)
	}
}
