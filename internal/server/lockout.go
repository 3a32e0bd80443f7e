package server

import (
	"sync"
	"time"
)

type loginAttempts struct {
	count       int
	last        time.Time
	lockedUntil time.Time
}

// AccountLockout locks a username after repeated failed logins.
type AccountLockout struct {
	mu          sync.Mutex
	attempts    map[string]*loginAttempts
	maxAttempts int
	lockFor     time.Duration
	window      time.Duration
	now         func() time.Time
}

// NewAccountLockout locks an account for lockFor once maxAttempts failures
// land within window.
func NewAccountLockout(maxAttempts int, lockFor, window time.Duration) *AccountLockout {
	return &AccountLockout{
		attempts:    make(map[string]*loginAttempts),
		maxAttempts: maxAttempts,
		lockFor:     lockFor,
		window:      window,
		now:         time.Now,
	}
}

// RecordFailure counts a failed login and reports whether it locked the
// account.
func (al *AccountLockout) RecordFailure(username string) (locked bool, until time.Time) {
	al.mu.Lock()
	defer al.mu.Unlock()

	now := al.now()
	al.pruneLocked(now)

	a, ok := al.attempts[username]
	if !ok {
		a = &loginAttempts{}
		al.attempts[username] = a
	}
	if now.Sub(a.last) > al.window {
		a.count = 0
	}
	a.count++
	a.last = now

	if a.count >= al.maxAttempts {
		a.lockedUntil = now.Add(al.lockFor)
		return true, a.lockedUntil
	}
	return false, time.Time{}
}

// RecordSuccess clears the failure history for username.
func (al *AccountLockout) RecordSuccess(username string) {
	al.mu.Lock()
	defer al.mu.Unlock()
	delete(al.attempts, username)
}

func (al *AccountLockout) IsLocked(username string) (bool, time.Time) {
	al.mu.Lock()
	defer al.mu.Unlock()

	a, ok := al.attempts[username]
	if !ok || a.lockedUntil.IsZero() || !al.now().Before(a.lockedUntil) {
		return false, time.Time{}
	}
	return true, a.lockedUntil
}

// pruneLocked drops stale entries. Callers hold mu.
func (al *AccountLockout) pruneLocked(now time.Time) {
	for name, a := range al.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.last) > 2*al.window {
			delete(al.attempts, name)
		}
	}
}
