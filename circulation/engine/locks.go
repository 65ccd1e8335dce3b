package engine

import (
	"hash/fnv"
	"sync"
)

const defaultLockStripes = 64

// stripedLocks serializes in-process operations per book id. The backing
// store's compare-and-swap stays authoritative across processes; the
// stripes only keep one process from racing itself between the flag
// transition and the ledger append.
type stripedLocks struct {
	stripes []sync.Mutex
}

func newStripedLocks(count int) *stripedLocks {
	if count <= 0 {
		count = defaultLockStripes
	}

	return &stripedLocks{stripes: make([]sync.Mutex, count)}
}

// lock acquires the stripe for the given key and returns the unlock func.
func (l *stripedLocks) lock(key string) func() {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(key))
	stripe := &l.stripes[int(hasher.Sum32())%len(l.stripes)]

	stripe.Lock()

	return stripe.Unlock
}
