package payouts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
	"github.com/google/uuid"
)

func TestLocalLockerSerializesPerSeller(t *testing.T) {
	locker := NewLocalLocker()
	seller := uuid.New()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), seller)
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxInside)
	}
	if len(locker.locks) != 0 {
		t.Fatalf("expected lock table to drain, got %d entries", len(locker.locks))
	}
}

func TestLocalLockerIndependentSellers(t *testing.T) {
	locker := NewLocalLocker()
	releaseA, err := locker.Lock(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	releaseB, err := locker.Lock(ctx, uuid.New())
	if err != nil {
		t.Fatalf("other seller should not wait: %v", err)
	}
	releaseB()
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()
	seller := uuid.New()
	release, err := locker.Lock(context.Background(), seller)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, seller); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	release()
	release()
	again, err := locker.Lock(context.Background(), seller)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	again()
}

type fakeLockStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{values: make(map[string]string)}
}

func (f *fakeLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) ReleaseLock(ctx context.Context, key, owner string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[key] != owner {
		return false, nil
	}
	delete(f.values, key)
	return true, nil
}

func (f *fakeLockStore) LockKey(scope, id string) string {
	return "md:lock:" + scope + ":" + id
}

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	store := newFakeLockStore()
	locker, err := NewRedisLocker(store, time.Second, 30*time.Millisecond)
	if err != nil {
		t.Fatalf("new locker: %v", err)
	}
	seller := uuid.New()
	key := store.LockKey(lockScope, seller.String())

	release, err := locker.Lock(context.Background(), seller)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, ok := store.values[key]; !ok {
		t.Fatal("expected lock key to be set")
	}

	_, err = locker.Lock(context.Background(), seller)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict while held, got %v", err)
	}

	release()
	if _, ok := store.values[key]; ok {
		t.Fatal("expected lock key to be deleted")
	}
}

func TestRedisLockerReleaseKeepsForeignOwner(t *testing.T) {
	store := newFakeLockStore()
	locker, _ := NewRedisLocker(store, time.Second, 10*time.Millisecond)
	seller := uuid.New()
	key := store.LockKey(lockScope, seller.String())

	release, err := locker.Lock(context.Background(), seller)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	// Simulate expiry followed by another replica taking the lock.
	store.values[key] = "someone-else"
	release()
	if store.values[key] != "someone-else" {
		t.Fatal("release must not delete a lock owned by another holder")
	}
}

func TestRedisLockerWrapsStoreErrors(t *testing.T) {
	store := newFakeLockStore()
	store.setErr = errors.New("connection refused")
	locker, _ := NewRedisLocker(store, time.Second, time.Second)

	_, err := locker.Lock(context.Background(), uuid.New())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewRedisLockerRequiresStore(t *testing.T) {
	if _, err := NewRedisLocker(nil, time.Second, time.Second); err == nil {
		t.Fatal("expected error for nil store")
	}
}
