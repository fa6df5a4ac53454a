package autosave

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alimasry/go-scratchpad/store"
)

// manualClock fires timers only when Advance is called.
type manualClock struct {
	mu      sync.Mutex
	now     time.Duration
	timers  []*manualTimer
	arms    int
	cancels int
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	c.arms++
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.clock.cancels++
	return true
}

// Advance moves the clock forward and runs every timer that became due.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.fired && !t.stopped && t.at <= c.now {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// Live returns the number of timers that are neither fired nor stopped.
func (c *manualClock) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (c *manualClock) Counts() (arms, cancels int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.arms, c.cancels
}

type saveCall struct {
	id      string
	content string
}

// fakeStore serves loads from a map and records every save. Loads for ids in
// gate block until the gate channel is closed; saves block while saveGate is
// non-nil and open.
type fakeStore struct {
	mu       sync.Mutex
	docs     map[string]string
	loadErr  map[string]error
	gate     map[string]chan struct{}
	saves    []saveCall
	saveErr  error
	saveGate chan struct{}
}

func newFakeStore(docs map[string]string) *fakeStore {
	if docs == nil {
		docs = map[string]string{}
	}
	return &fakeStore{
		docs:    docs,
		loadErr: map[string]error{},
		gate:    map[string]chan struct{}{},
	}
}

func (f *fakeStore) Load(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	gate := f.gate[id]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadErr[id]; err != nil {
		return "", err
	}
	content, ok := f.docs[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return content, nil
}

func (f *fakeStore) Save(ctx context.Context, id, content string) error {
	f.mu.Lock()
	gate := f.saveGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, saveCall{id: id, content: content})
	if f.saveErr != nil {
		return f.saveErr
	}
	f.docs[id] = content
	return nil
}

func (f *fakeStore) hold(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gate[id] = ch
	return ch
}

// holdSaves blocks every save until the returned channel is closed.
func (f *fakeStore) holdSaves() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.saveGate = ch
	return ch
}

func (f *fakeStore) setSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

func (f *fakeStore) setLoadErr(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErr[id] = err
}

func (f *fakeStore) Saves() []saveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]saveCall, len(f.saves))
	copy(out, f.saves)
	return out
}

const quiet = time.Second

func newTestSync(t *testing.T, st Store, opts ...Option) (*Synchronizer, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	base := []Option{
		WithClock(clock),
		WithQuietPeriod(quiet),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	s := New(st, append(base, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s, clock
}

func waitPhase(t *testing.T, s *Synchronizer, want Phase) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Snapshot().Phase == want
	}, 2*time.Second, 5*time.Millisecond, "phase never became %s", want)
	return s.Snapshot()
}

func waitSaves(t *testing.T, st *fakeStore, n int) []saveCall {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(st.Saves()) >= n
	}, 2*time.Second, 5*time.Millisecond, "expected %d saves", n)
	return st.Saves()
}

func waitStatus(t *testing.T, s *Synchronizer, want Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Snapshot().Status == want
	}, 2*time.Second, 5*time.Millisecond, "status never became %s", want)
}
