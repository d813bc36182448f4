// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package shareset

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-shamir/pkg/rand"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
	"github.com/jeremyhahn/go-shamir/pkg/storage/file"
	"github.com/jeremyhahn/go-shamir/pkg/storage/memory"
)

func split(t *testing.T, seed string, secret []byte, n, k uint64) []*shamir.Share {
	t.Helper()
	dealer := shamir.NewDealer(
		shamir.WithRand(rand.NewDeterministic([]byte(seed))),
		shamir.WithMetrics(false))
	shares, err := dealer.GenerateShares(secret, n, k)
	require.NoError(t, err)
	return shares
}

func backends(t *testing.T) map[string]storage.Backend {
	fs, err := file.New(t.TempDir())
	require.NoError(t, err)
	return map[string]storage.Backend{
		"memory": memory.New(),
		"file":   fs,
	}
}

func TestStore_SaveLoad(t *testing.T) {
	secret := []byte("\x00root credentials")
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
			store := New(backend, WithClock(func() time.Time { return created }))
			shares := split(t, name, secret, 5, 3)

			m, err := store.Save("db-root", 3, shares)
			require.NoError(t, err)
			_, err = uuid.Parse(m.ID)
			require.NoError(t, err)
			assert.Equal(t, "db-root", m.Name)
			assert.Equal(t, uint64(3), m.Threshold)
			assert.Equal(t, uint64(5), m.Total)
			assert.Equal(t, []uint64{1, 2, 3, 4, 5}, m.Inputs)
			assert.Equal(t, len(secret), m.SecretLen)
			assert.Equal(t, shares[0].Prime.BitLen(), m.PrimeBits)
			assert.True(t, created.Equal(m.CreatedAt))

			loaded, got, err := store.Load(m.ID)
			require.NoError(t, err)
			assert.Equal(t, m.ID, loaded.ID)
			require.Len(t, got, 5)
			for i := range shares {
				assert.True(t, shares[i].Equal(got[i]))
			}

			rebuilt, err := shamir.RebuildSecret(got[2:])
			require.NoError(t, err)
			assert.Equal(t, secret, rebuilt)
		})
	}
}

func TestStore_ManifestHasNoShareValues(t *testing.T) {
	backend := memory.New()
	shares := split(t, "manifest", []byte("secret"), 3, 2)
	m, err := New(backend).Save("", 2, shares)
	require.NoError(t, err)

	data, err := backend.Get(manifestKey(m.ID))
	require.NoError(t, err)
	for _, share := range shares {
		assert.NotContains(t, string(data), share.Value.Text(16))
		assert.NotContains(t, string(data), share.Value.String())
	}

	var decoded Manifest
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, ManifestVersion, decoded.Version)
	assert.NotContains(t, string(data), "name:")
}

func TestStore_LoadSkipsMissingShares(t *testing.T) {
	backend := memory.New()
	store := New(backend)
	secret := []byte("partial")
	m, err := store.Save("partial", 2, split(t, "partial", secret, 4, 2))
	require.NoError(t, err)

	require.NoError(t, backend.Delete(shareKey(m.ID, 1)))
	require.NoError(t, backend.Delete(shareKey(m.ID, 3)))

	_, shares, err := store.Load(m.ID)
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, uint64(2), shares[0].Input)
	assert.Equal(t, uint64(4), shares[1].Input)

	rebuilt, err := shamir.RebuildSecret(shares)
	require.NoError(t, err)
	assert.Equal(t, secret, rebuilt)
}

func TestStore_LoadCorruptShare(t *testing.T) {
	backend := memory.New()
	store := New(backend)
	m, err := store.Save("", 2, split(t, "corrupt", []byte("x"), 2, 2))
	require.NoError(t, err)

	require.NoError(t, backend.Put(shareKey(m.ID, 2), []byte{0x01, 0x02}, nil))

	_, _, err = store.Load(m.ID)
	assert.ErrorIs(t, err, shamir.ErrInvalidShare)
}

func TestStore_SaveInvalid(t *testing.T) {
	store := New(memory.New())
	shares := split(t, "invalid", []byte("secret"), 3, 2)
	other := split(t, "other", []byte("secret"), 3, 2)

	tests := []struct {
		name      string
		threshold uint64
		shares    []*shamir.Share
	}{
		{"no shares", 1, nil},
		{"zero threshold", 0, shares},
		{"threshold above total", 4, shares},
		{"mixed splits", 2, []*shamir.Share{shares[0], other[1]}},
		{"duplicate input", 2, []*shamir.Share{shares[0], shares[0]}},
		{"nil share", 1, []*shamir.Share{shares[0], nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save("", tt.threshold, tt.shares)
			assert.ErrorIs(t, err, ErrInvalidSet)
		})
	}

	all, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_ListOrdered(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := New(memory.New(), WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	var ids []string
	for _, name := range []string{"first", "second", "third"} {
		m, err := store.Save(name, 1, split(t, name, []byte(name), 2, 1))
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, m := range all {
		assert.Equal(t, ids[i], m.ID)
	}
}

func TestStore_Delete(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := New(backend)
			m, err := store.Save("gone", 2, split(t, "delete", []byte("bye"), 3, 2))
			require.NoError(t, err)

			require.NoError(t, store.Delete(m.ID))

			_, err = store.Manifest(m.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete(m.ID), ErrNotFound)

			keys, err := backend.List("sets/")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestStore_InvalidID(t *testing.T) {
	store := New(memory.New())
	id := uuid.New().String()

	for _, bad := range []string{"", "../etc", strings.ToUpper(id), "{" + id + "}", "urn:uuid:" + id} {
		_, err := store.Manifest(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
		_, _, err = store.Load(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
		assert.ErrorIs(t, store.Delete(bad), ErrInvalidID, bad)
	}

	_, err := store.Manifest(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListSkipsUnreadableManifest(t *testing.T) {
	backend := memory.New()
	store := New(backend)
	_, err := store.Save("good", 1, split(t, "good", []byte("ok"), 1, 1))
	require.NoError(t, err)

	require.NoError(t, backend.Put(manifestKey(uuid.New().String()), []byte("version: 99\n"), nil))
	require.NoError(t, backend.Put("sets/not-a-uuid/manifest.yaml", []byte("id: x\n"), nil))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "good", all[0].Name)
}
