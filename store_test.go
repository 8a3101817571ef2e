package comply

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "comply-store")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store := NewFileStore(path.Join(dir, "state"))

	_, ok, err := store.Get(TokenKey)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(TokenKey, "T1"))
	require.NoError(t, store.Set(UserInfoKey, `{"id":"u1"}`))

	value, ok, err := store.Get(TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "T1", value)

	// A second store over the same file sees the same state.
	reopened := NewFileStore(path.Join(dir, "state"))
	value, ok, err = reopened.Get(UserInfoKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"id":"u1"}`, value)

	require.NoError(t, store.Delete(TokenKey))
	_, ok, err = store.Get(TokenKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore()
	store.Set("a", "1")
	store.Set("b", "2")
	value, ok := store.Get("a")
	require.True(t, ok)
	require.Equal(t, "1", value)

	store.Clear()
	_, ok = store.Get("a")
	require.False(t, ok)
	_, ok = store.Get("b")
	require.False(t, ok)
}
