package lockbackend

import "time"

// Len returns the number of live tokens as of now.
func (l *FakeLockSystem) Len(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	return len(l.locks)
}
