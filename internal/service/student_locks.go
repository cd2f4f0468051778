package service

import "sync"

// studentLocks serialises mutating engine operations per student. Entries are
// reference counted and dropped once no caller holds or waits on them.
type studentLocks struct {
	mu    sync.Mutex
	locks map[uint]*studentLock
}

type studentLock struct {
	mu      sync.Mutex
	waiters int
}

func newStudentLocks() *studentLocks {
	return &studentLocks{locks: make(map[uint]*studentLock)}
}

// lock blocks until the student's lock is held and returns its release func.
func (l *studentLocks) lock(studentID uint) func() {
	l.mu.Lock()
	entry, ok := l.locks[studentID]
	if !ok {
		entry = &studentLock{}
		l.locks[studentID] = entry
	}
	entry.waiters++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.waiters--
		if entry.waiters == 0 {
			delete(l.locks, studentID)
		}
		l.mu.Unlock()
	}
}
