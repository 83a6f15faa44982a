package cooldown

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestEngine_RefreshThenCheck(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now))

	durations := []time.Duration{time.Millisecond, time.Second, 60 * time.Second, 5 * time.Minute}
	for _, d := range durations {
		t.Run(d.String(), func(t *testing.T) {
			k := ActorKey("42", "role-"+d.String())
			e.Refresh(k, d)

			left, ok := e.Check(k)
			require.True(t, ok)
			assert.Greater(t, left, time.Duration(0))
			assert.LessOrEqual(t, left, d)

			clock.Advance(d + time.Nanosecond)
			_, ok = e.Check(k)
			assert.False(t, ok)
		})
	}
}

func TestEngine_CheckAbsentKey(t *testing.T) {
	e := New()
	left, ok := e.Check(GlobalKey("nothing"))
	assert.False(t, ok)
	assert.Zero(t, left)
	assert.Zero(t, e.Len(), "check must not create entries")
}

func TestEngine_ScopesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now))

	global := GlobalKey("role-1")
	actor := ActorKey("user-1", "role-1")

	e.Refresh(global, time.Minute)
	_, ok := e.Check(actor)
	assert.False(t, ok, "global refresh leaked into actor scope")

	e.Refresh(actor, 5*time.Minute)
	clock.Advance(2 * time.Minute)

	_, ok = e.Check(global)
	assert.False(t, ok)
	left, ok := e.Check(actor)
	require.True(t, ok)
	assert.Equal(t, 3*time.Minute, left)

	_, ok = e.Check(ActorKey("user-2", "role-1"))
	assert.False(t, ok, "actors share no state")
}

func TestEngine_RefreshOverwrites(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now))
	k := GlobalKey("x")

	e.Refresh(k, time.Hour)
	e.Refresh(k, time.Second)

	left, ok := e.Check(k)
	require.True(t, ok)
	assert.Equal(t, time.Second, left)
}

func TestEngine_Acquire(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now))

	holds := []Hold{
		{Key: GlobalKey("role"), For: time.Minute},
		{Key: ActorKey("u1", "role"), For: 5 * time.Minute},
	}

	_, ok := e.Acquire(holds...)
	require.True(t, ok)

	wait, ok := e.Acquire(holds...)
	assert.False(t, ok)
	assert.Equal(t, 5*time.Minute, wait, "longest remaining wait is reported")

	clock.Advance(time.Minute + time.Second)

	// global expired but the actor key still holds; nothing may be refreshed
	wait, ok = e.Acquire(holds...)
	assert.False(t, ok)
	assert.Equal(t, 4*time.Minute-time.Second, wait)
	_, cooling := e.Check(GlobalKey("role"))
	assert.False(t, cooling, "failed acquire must not refresh")

	// another actor only trips over the global key
	_, ok = e.Acquire(Hold{Key: GlobalKey("role"), For: time.Minute}, Hold{Key: ActorKey("u2", "role"), For: 5 * time.Minute})
	assert.True(t, ok)
}

func TestEngine_AcquireIsAtomic(t *testing.T) {
	e := New()
	hold := Hold{Key: GlobalKey("contended"), For: time.Hour}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := e.Acquire(hold); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestEngine_SweepRemovesExpired(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now))

	e.Refresh(GlobalKey("short"), time.Second)
	e.Refresh(GlobalKey("long"), time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 1, e.Sweep())
	assert.Equal(t, 1, e.Len())
	_, ok := e.Check(GlobalKey("long"))
	assert.True(t, ok)
}

func TestEngine_MaxEntriesBound(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock.Now), WithMaxEntries(3))

	e.Refresh(GlobalKey("a"), time.Second)
	e.Refresh(GlobalKey("b"), time.Hour)
	e.Refresh(GlobalKey("c"), 2*time.Hour)

	t.Run("expired entries are swept first", func(t *testing.T) {
		clock.Advance(2 * time.Second)
		e.Refresh(GlobalKey("d"), 3*time.Hour)
		assert.Equal(t, 3, e.Len())
		_, ok := e.Check(GlobalKey("b"))
		assert.True(t, ok)
	})

	t.Run("soonest expiry is evicted when full", func(t *testing.T) {
		e.Refresh(GlobalKey("e"), 4*time.Hour)
		assert.Equal(t, 3, e.Len())
		_, ok := e.Check(GlobalKey("b"))
		assert.False(t, ok)
		for _, id := range []string{"c", "d", "e"} {
			_, ok := e.Check(GlobalKey(id))
			assert.True(t, ok, id)
		}
	})

	t.Run("overwriting an existing key never evicts", func(t *testing.T) {
		e.Refresh(GlobalKey("c"), 5*time.Hour)
		assert.Equal(t, 3, e.Len())
	})
}

func TestEngine_ConcurrentUse(t *testing.T) {
	e := New(WithMaxEntries(50))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				k := ActorKey(fmt.Sprint(i), fmt.Sprint(j%20))
				e.Refresh(k, time.Minute)
				e.Check(k)
				e.Check(GlobalKey(fmt.Sprint(j)))
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, e.Len(), 50)
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "global:r1", GlobalKey("r1").String())
	assert.Equal(t, "actor:u1:r1", ActorKey("u1", "r1").String())
}
