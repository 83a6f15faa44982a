// Package throttle paces outbound requests with a token bucket whose rate adapts
// to how the remote side answers: it climbs slowly on success and drops sharply
// when the server signals overload. It never retries; callers decide what a
// failed request means.
//
//	lim := throttle.New(5, 1, 20, 1, 0.5)
//	if err := lim.Wait(ctx); err != nil {
//	    return err
//	}
//	lim.Observe(doRequest())
package throttle

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// recoveryWindow is how long after an overload signal the rate stays put.
const recoveryWindow = 10 * time.Second

// HTTPError is implemented by errors that carry an HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

// Classifier reports whether err means the server wants us to slow down.
type Classifier func(error) bool

// DefaultClassifier treats 429 and 5xx responses as overload.
func DefaultClassifier(err error) bool {
	var httpErr HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	code := httpErr.StatusCode()
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// AdaptiveLimiter is safe for concurrent use.
type AdaptiveLimiter struct {
	mu        sync.RWMutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	lastError time.Time
	classify  Classifier
	now       func() time.Time
}

// New creates a limiter starting at initial requests per second, bounded by
// [min, max]. Each success adds stepUp; each overload multiplies by stepDown.
func New(initial, min, max, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}
	if stepDown <= 0 || stepDown >= 1 {
		stepDown = 0.5
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
		classify: DefaultClassifier,
		now:      time.Now,
	}
}

// WithClassifier replaces the overload classifier and returns the limiter.
func (a *AdaptiveLimiter) WithClassifier(c Classifier) *AdaptiveLimiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c != nil {
		a.classify = c
	}
	return a
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return a.limiter.Wait(ctx)
}

// Observe feeds the outcome of one request back into the rate.
func (a *AdaptiveLimiter) Observe(err error) {
	switch {
	case err == nil:
		a.Success()
	case a.overloaded(err):
		a.RateLimited()
	}
}

// Success raises the rate unless an overload was seen recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.now().Sub(a.lastError) > recoveryWindow {
		a.adjust(a.limiter.Limit() + a.stepUp)
	}
}

// RateLimited lowers the rate.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = a.now()
	a.adjust(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) overloaded(err error) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.classify(err)
}

func (a *AdaptiveLimiter) adjust(limit rate.Limit) {
	if limit > a.maxLimit {
		limit = a.maxLimit
	} else if limit < a.minLimit {
		limit = a.minLimit
	}
	if limit != a.limiter.Limit() {
		a.limiter.SetLimit(limit)
		a.limiter.SetBurst(burstFor(limit))
	}
}

func burstFor(limit rate.Limit) int {
	return max(1, int(limit))
}
