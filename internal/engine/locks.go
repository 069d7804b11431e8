package engine

import (
	"context"
	"sync"
)

// AssetLocks serializes state-changing operations per asset. Each asset gets
// its own buffered-channel mutex, so trades against different assets never
// contend. Acquire respects context cancellation while waiting; a holder is
// never interrupted.
type AssetLocks struct {
	mu    sync.Mutex
	locks map[uint]chan struct{}
}

func NewAssetLocks() *AssetLocks {
	return &AssetLocks{locks: make(map[uint]chan struct{})}
}

func (l *AssetLocks) get(assetID uint) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[assetID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[assetID] = ch
	}
	return ch
}

// Acquire blocks until the asset's exclusive lock is held or ctx is done.
func (l *AssetLocks) Acquire(ctx context.Context, assetID uint) error {
	select {
	case l.get(assetID) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the asset's exclusive lock.
func (l *AssetLocks) Release(assetID uint) {
	select {
	case <-l.get(assetID):
	default:
		// releasing an unheld lock is a programming error; make it loud
		panic("engine: release of unheld asset lock")
	}
}
