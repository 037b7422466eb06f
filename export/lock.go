package export

import (
	"sync"
	"sync/atomic"
)

// JobLock admits at most one active export job process-wide.
type JobLock struct {
	held atomic.Bool
}

// JobToken is the ownership token of the active job.
type JobToken struct {
	lock *JobLock
	once sync.Once
}

// TryAcquire takes the lock or rejects the caller without waiting.
func (l *JobLock) TryAcquire() (*JobToken, error) {
	if l == nil {
		return nil, NewError(KindInternal, "job lock is nil", nil)
	}
	if !l.held.CompareAndSwap(false, true) {
		return nil, ErrExportAlreadyInProgress()
	}
	return &JobToken{lock: l}, nil
}

// Held reports whether a job currently owns the lock.
func (l *JobLock) Held() bool {
	if l == nil {
		return false
	}
	return l.held.Load()
}

// Release returns the token. Further calls are no-ops.
func (t *JobToken) Release() {
	if t == nil || t.lock == nil {
		return
	}
	t.once.Do(func() {
		t.lock.held.Store(false)
	})
}
