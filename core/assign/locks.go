package assign

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/skyops/core/model"
)

// lockSet hands out one exclusive lock per entity key. Keys are always
// taken in sorted order so two operations on overlapping entities cannot
// deadlock.
type lockSet struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[string]*keyLock)}
}

func lockKey(kind model.Kind, id string) string {
	return fmt.Sprintf("%s/%s", kind, id)
}

// Acquire blocks until every key is held, ctx is done or timeout elapses.
// A zero timeout waits for ctx only. The returned release func is
// idempotent.
func (l *lockSet) Acquire(ctx context.Context, timeout time.Duration, keys ...string) (func(), error) {
	keys = uniqueSorted(keys)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
		held = held[:0]
	}
	for _, k := range keys {
		if err := l.lock(ctx, k); err != nil {
			release()
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, k)
			}
			return nil, err
		}
		held = append(held, k)
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *lockSet) lock(ctx context.Context, key string) error {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.drop(key, kl)
		return ctx.Err()
	}
}

func (l *lockSet) unlock(key string) {
	l.mu.Lock()
	kl := l.locks[key]
	l.mu.Unlock()
	if kl == nil {
		return
	}
	<-kl.ch
	l.drop(key, kl)
}

// drop releases one reference and forgets the key when nobody holds or
// waits on it.
func (l *lockSet) drop(key string, kl *keyLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// size reports how many keys are tracked.
func (l *lockSet) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}
