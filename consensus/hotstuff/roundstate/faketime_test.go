package roundstate_test

import (
	"context"
	"sync"
	"time"
)

// fakeTimeService is a deterministic, manually-driven timeservice.TimeService
// for roundstate tests; see consensus/hotstuff/timeout's faketime_test.go
// for the same pattern applied to scheduler tests directly.
type fakeTimeService struct {
	mu      sync.Mutex
	now     time.Duration
	pending map[int]func()
	nextID  int
}

func newFakeTimeService() *fakeTimeService {
	return &fakeTimeService{pending: make(map[int]func())}
}

func (f *fakeTimeService) Now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTimeService) Sleep(ctx context.Context, d time.Duration) {
	f.mu.Lock()
	f.now += d
	f.mu.Unlock()
}

func (f *fakeTimeService) RunAfter(d time.Duration, fn func()) context.CancelFunc {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.pending[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.pending, id)
		f.mu.Unlock()
	}
}

func (f *fakeTimeService) fireAll() {
	f.mu.Lock()
	pending := f.pending
	f.pending = make(map[int]func())
	f.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}
