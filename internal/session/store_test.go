// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixonway/fixonway-tui/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreLoadWithoutFile(t *testing.T) {
	store := testStore(t)
	_, err := store.Load()
	require.ErrorIs(t, err, ErrNotSignedIn)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	sess := Session{
		User:  model.User{ID: "u1", FullName: "Mara Voss", Email: "mara@example.com"},
		Token: "tok-abc",
	}
	require.NoError(t, store.Save(sess))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "u1", got.User.ID)
	require.Equal(t, "Mara Voss", got.User.FullName)
	require.Equal(t, "tok-abc", got.Token)
	require.False(t, got.SavedAt.IsZero())
}

func TestStoreSaveRejectsIncomplete(t *testing.T) {
	store := testStore(t)
	require.Error(t, store.Save(Session{Token: "tok-only"}))
	require.Error(t, store.Save(Session{User: model.User{ID: "u1"}}))
}

func TestStoreFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions")
	}
	store := testStore(t)
	require.NoError(t, store.Save(Session{User: model.User{ID: "u1"}, Token: "t"}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreClear(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save(Session{User: model.User{ID: "u1"}, Token: "t"}))
	require.NoError(t, store.Clear())

	_, err := store.Load()
	require.ErrorIs(t, err, ErrNotSignedIn)

	// Clearing twice is fine.
	require.NoError(t, store.Clear())
}

func TestStoreLoadCorruptFile(t *testing.T) {
	store := testStore(t)
	require.NoError(t, os.MkdirAll(store.dir, 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err := store.Load()
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotSignedIn)
}
