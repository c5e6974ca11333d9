package lockbackend

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/webdav"
)

// FakeLockSystem grants every lock and never reports conflicts. It exists for
// clients such as macOS Finder and Windows Explorer that refuse to write
// without taking a lock first. Issued tokens are remembered until they are
// unlocked or their lease runs out, so refresh and unlock behave.
type FakeLockSystem struct {
	mu    sync.Mutex
	locks map[string]fakeLock
}

type fakeLock struct {
	details webdav.LockDetails
	// expiry is zero for infinite leases.
	expiry time.Time
}

func (f fakeLock) expired(now time.Time) bool {
	return !f.expiry.IsZero() && !now.Before(f.expiry)
}

// NewFakeLockSystem creates an empty FakeLockSystem.
func NewFakeLockSystem() *FakeLockSystem {
	return &FakeLockSystem{locks: make(map[string]fakeLock)}
}

// Confirm always succeeds.
func (l *FakeLockSystem) Confirm(now time.Time, name0, name1 string, conditions ...webdav.Condition) (func(), error) {
	return func() {}, nil
}

// Create issues a new opaque lock token for details.
func (l *FakeLockSystem) Create(now time.Time, details webdav.LockDetails) (string, error) {
	token := "opaquelocktoken:" + uuid.NewString()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	l.locks[token] = fakeLock{details: details, expiry: leaseExpiry(now, details.Duration)}

	return token, nil
}

// Refresh extends a live token by duration.
func (l *FakeLockSystem) Refresh(now time.Time, token string, duration time.Duration) (webdav.LockDetails, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	lock, ok := l.locks[token]
	if !ok {
		return webdav.LockDetails{}, webdav.ErrNoSuchLock
	}

	lock.details.Duration = duration
	lock.expiry = leaseExpiry(now, duration)
	l.locks[token] = lock
	return lock.details, nil
}

// Unlock forgets token.
func (l *FakeLockSystem) Unlock(now time.Time, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	if _, ok := l.locks[token]; !ok {
		return webdav.ErrNoSuchLock
	}

	delete(l.locks, token)
	return nil
}

// sweep drops expired tokens. Callers hold mu.
func (l *FakeLockSystem) sweep(now time.Time) {
	for token, lock := range l.locks {
		if lock.expired(now) {
			delete(l.locks, token)
		}
	}
}

// leaseExpiry follows webdav.LockDetails: a negative duration never expires.
func leaseExpiry(now time.Time, d time.Duration) time.Time {
	if d < 0 {
		return time.Time{}
	}
	return now.Add(d)
}
