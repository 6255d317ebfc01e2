package file

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"oneonone/agenda-service/internal/logging"
	"oneonone/agenda-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUsers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse(t *testing.T) {
	users, err := Parse(strings.NewReader("alice:secret\n\nno-colon-line\n  bob:pa:ss  \n:empty\n"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"alice": "secret",
		"bob":   "pa:ss",
		"":      "empty",
	}, users)
}

func TestVerify(t *testing.T) {
	st := NewStore(writeUsers(t, "alice:secret\n"), logging.Discard())
	ctx := context.Background()

	require.NoError(t, st.Verify(ctx, "alice", "secret"))
	assert.ErrorIs(t, st.Verify(ctx, "alice", "wrong"), store.ErrInvalidCredentials)
	assert.ErrorIs(t, st.Verify(ctx, "alice", "secret "), store.ErrInvalidCredentials)
	assert.ErrorIs(t, st.Verify(ctx, "mallory", "secret"), store.ErrInvalidCredentials)
	assert.ErrorIs(t, st.Verify(ctx, "mallory", "secret"), store.ErrUserNotFound)
	assert.NotErrorIs(t, st.Verify(ctx, "alice", "wrong"), store.ErrUserNotFound)
}

func TestVerifyEmptyUsernameNeverMatches(t *testing.T) {
	st := NewStore(writeUsers(t, ":blank\n"), logging.Discard())

	assert.ErrorIs(t, st.Verify(context.Background(), "", "blank"), store.ErrUserNotFound)
}

func TestStoreRereadsFile(t *testing.T) {
	path := writeUsers(t, "alice:secret\n")
	st := NewStore(path, logging.Discard())
	ctx := context.Background()

	ok, err := st.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("bob:hunter2\n"), 0o600))

	ok, err = st.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, st.Verify(ctx, "bob", "hunter2"))
}

func TestMissingFileMeansNoUsers(t *testing.T) {
	var buf bytes.Buffer
	st := NewStore(filepath.Join(t.TempDir(), "absent"), logging.New(&buf, "info", "text"))
	ctx := context.Background()

	assert.ErrorIs(t, st.Verify(ctx, "alice", "secret"), store.ErrInvalidCredentials)
	ok, err := st.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "credential file not found")
}
