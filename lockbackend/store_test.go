package lockbackend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/webdav"

	"github.com/sagarc03/davgate/lockbackend"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantErr error
	}{
		{name: "memory", backend: "memory"},
		{name: "fake", backend: "fake"},
		{name: "unknown", backend: "redis", wantErr: lockbackend.ErrUnknownBackend},
		{name: "empty", backend: "", wantErr: lockbackend.ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls, err := lockbackend.New(lockbackend.Config{Backend: tt.backend})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, ls)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, ls)
		})
	}
}

func TestNew_FakeType(t *testing.T) {
	ls, err := lockbackend.New(lockbackend.Config{Backend: "fake"})
	require.NoError(t, err)

	_, ok := ls.(*lockbackend.FakeLockSystem)
	assert.True(t, ok)
}

func TestNew_MemoryEnforcesConflicts(t *testing.T) {
	ls, err := lockbackend.New(lockbackend.Config{Backend: "memory"})
	require.NoError(t, err)

	details := webdav.LockDetails{Root: "/a.txt", Duration: -1, ZeroDepth: true}

	_, err = ls.Create(testNow, details)
	require.NoError(t, err)

	_, err = ls.Create(testNow, details)
	assert.ErrorIs(t, err, webdav.ErrLocked)
}
