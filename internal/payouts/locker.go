package payouts

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
	"github.com/angelmondragon/marketdesk-backend/pkg/redis"
	"github.com/google/uuid"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultLockWait  = 5 * time.Second
	lockRetryBackoff = 50 * time.Millisecond
	lockScope        = "payout"
)

// SellerLocker serializes payout admission per seller. The returned release
// func must be called exactly once.
type SellerLocker interface {
	Lock(ctx context.Context, sellerID uuid.UUID) (func(), error)
}

// LocalLocker is an in-process keyed mutex. It only serializes callers inside
// one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyedLock
}

type keyedLock struct {
	slot chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uuid.UUID]*keyedLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, sellerID uuid.UUID) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[sellerID]
	if !ok {
		entry = &keyedLock{slot: make(chan struct{}, 1)}
		l.locks[sellerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.slot <- struct{}{}:
	case <-ctx.Done():
		l.drop(sellerID, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.slot
			l.drop(sellerID, entry)
		})
	}, nil
}

func (l *LocalLocker) drop(sellerID uuid.UUID, entry *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, sellerID)
	}
}

// RedisLocker holds a SETNX lock with an owner token so that every API
// replica admits payouts for a seller one at a time.
type RedisLocker struct {
	store redis.LockStore
	ttl   time.Duration
	wait  time.Duration
}

// NewRedisLocker constructs a Redis-backed seller lock.
func NewRedisLocker(store redis.LockStore, ttl, wait time.Duration) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis client required for payout lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisLocker{store: store, ttl: ttl, wait: wait}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, sellerID uuid.UUID) (func(), error) {
	key := l.store.LockKey(lockScope, sellerID.String())
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire payout lock")
		}
		if ok {
			var once sync.Once
			return func() { once.Do(func() { l.release(key, owner) }) }, nil
		}
		if time.Now().After(deadline) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "another payout request for this seller is in progress")
		}
		timer := time.NewTimer(lockRetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// release deletes the key only while this owner still holds it. It runs on a
// fresh context so a cancelled request still frees its lock.
func (l *RedisLocker) release(key, owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _ = l.store.ReleaseLock(ctx, key, owner)
}

var (
	_ SellerLocker = (*LocalLocker)(nil)
	_ SellerLocker = (*RedisLocker)(nil)
)
