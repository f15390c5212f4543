package bidding

import "sync"

type lotKey struct {
	auctionID string
	lotID     string
}

type lotLock struct {
	mu   sync.Mutex
	refs int
}

// lotLocks is a set of mutexes keyed by (auction, lot). Entries exist only
// while someone holds or waits for them.
type lotLocks struct {
	mu    sync.Mutex
	locks map[lotKey]*lotLock
}

func newLotLocks() *lotLocks {
	return &lotLocks{locks: make(map[lotKey]*lotLock)}
}

// lock blocks until the pair is free and returns its unlock function.
func (l *lotLocks) lock(auctionID, lotID string) func() {
	key := lotKey{auctionID, lotID}

	l.mu.Lock()
	ll, ok := l.locks[key]
	if !ok {
		ll = &lotLock{}
		l.locks[key] = ll
	}
	ll.refs++
	l.mu.Unlock()

	ll.mu.Lock()

	return func() {
		ll.mu.Unlock()

		l.mu.Lock()
		ll.refs--
		if ll.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *lotLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
