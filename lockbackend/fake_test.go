package lockbackend_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/webdav"

	"github.com/sagarc03/davgate/lockbackend"
)

var testNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeLockSystem_GrantsConflictingLocks(t *testing.T) {
	ls := lockbackend.NewFakeLockSystem()
	details := webdav.LockDetails{Root: "/a.txt", Duration: time.Minute, ZeroDepth: true}

	tok1, err := ls.Create(testNow, details)
	require.NoError(t, err)
	tok2, err := ls.Create(testNow, details)
	require.NoError(t, err)

	assert.NotEqual(t, tok1, tok2)
	assert.True(t, strings.HasPrefix(tok1, "opaquelocktoken:"))
}

func TestFakeLockSystem_Confirm(t *testing.T) {
	ls := lockbackend.NewFakeLockSystem()

	release, err := ls.Confirm(testNow, "/a.txt", "/b.txt", webdav.Condition{Token: "opaquelocktoken:unknown"})
	require.NoError(t, err)
	require.NotNil(t, release)
	release()
}

func TestFakeLockSystem_Refresh(t *testing.T) {
	ls := lockbackend.NewFakeLockSystem()

	token, err := ls.Create(testNow, webdav.LockDetails{Root: "/doc.txt", Duration: time.Minute, OwnerXML: "<owner/>"})
	require.NoError(t, err)

	details, err := ls.Refresh(testNow, token, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "/doc.txt", details.Root)
	assert.Equal(t, time.Hour, details.Duration)
	assert.Equal(t, "<owner/>", details.OwnerXML)

	_, err = ls.Refresh(testNow, "opaquelocktoken:unknown", time.Hour)
	assert.ErrorIs(t, err, webdav.ErrNoSuchLock)
}

func TestFakeLockSystem_Unlock(t *testing.T) {
	ls := lockbackend.NewFakeLockSystem()

	token, err := ls.Create(testNow, webdav.LockDetails{Root: "/doc.txt", Duration: time.Minute})
	require.NoError(t, err)

	require.NoError(t, ls.Unlock(testNow, token))
	assert.ErrorIs(t, ls.Unlock(testNow, token), webdav.ErrNoSuchLock)

	_, err = ls.Refresh(testNow, token, time.Minute)
	assert.ErrorIs(t, err, webdav.ErrNoSuchLock)
}

func TestFakeLockSystem_ExpiredLeaseIsForgotten(t *testing.T) {
	ls := lockbackend.NewFakeLockSystem()

	token, err := ls.Create(testNow, webdav.LockDetails{Root: "/doc.txt", Duration: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 1, ls.Len(testNow))

	later := testNow.Add(24 * time.Hour)

	_, err = ls.Refresh(later, token, time.Second)
	assert.ErrorIs(t, err, webdav.ErrNoSuchLock)
	assert.ErrorIs(t, ls.Unlock(later, token), webdav.ErrNoSuchLock)
	assert.Equal(t, 0, ls.Len(later))
}

func TestFakeLockSystem_RefreshExtendsLease(t *testing.T) {
	ls := lockbackend.NewFakeLockSystem()

	token, err := ls.Create(testNow, webdav.LockDetails{Root: "/doc.txt", Duration: time.Minute})
	require.NoError(t, err)

	_, err = ls.Refresh(testNow.Add(30*time.Second), token, time.Hour)
	require.NoError(t, err)

	assert.NoError(t, ls.Unlock(testNow.Add(30*time.Minute), token))
}

func TestFakeLockSystem_InfiniteLease(t *testing.T) {
	ls := lockbackend.NewFakeLockSystem()

	token, err := ls.Create(testNow, webdav.LockDetails{Root: "/doc.txt", Duration: -1})
	require.NoError(t, err)

	assert.Equal(t, 1, ls.Len(testNow.Add(365*24*time.Hour)))
	assert.NoError(t, ls.Unlock(testNow.Add(365*24*time.Hour), token))
}

func TestFakeLockSystem_UnreleasedLocksDoNotAccumulate(t *testing.T) {
	ls := lockbackend.NewFakeLockSystem()

	for i := range 100 {
		_, err := ls.Create(testNow.Add(time.Duration(i)*time.Minute), webdav.LockDetails{Root: "/doc.txt", Duration: time.Second})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, ls.Len(testNow.Add(99*time.Minute)))
}
