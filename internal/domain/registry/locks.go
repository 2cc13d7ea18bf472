package registry

import (
	"sync"

	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// userLocks hands out one mutex per namespace owner. Writes only ever touch a
// single user's namespace, so per-user granularity serializes every
// read-check-write on the same list without blocking other users.
// Entries are never removed: users are never destroyed.
type userLocks struct {
	mu    sync.Mutex
	locks map[types.UserID]*sync.Mutex
}

func (l *userLocks) lock(user types.UserID) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[types.UserID]*sync.Mutex)
	}
	m, ok := l.locks[user]
	if !ok {
		m = &sync.Mutex{}
		l.locks[user] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
