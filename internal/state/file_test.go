package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "netweave.state.json"))
}

func TestFileStoreLoadEmpty(t *testing.T) {
	s := newTestStore(t)
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Serial)
	assert.Empty(t, snap.Resources)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	snap := NewSnapshot()
	now := time.Now().UTC().Truncate(time.Second)
	snap.Put("vpc.main", &Record{
		Type: "vpc",
		Name: "main",
		ID:   "vpc-0123",
		Attributes: map[string]any{
			"name":       "hub-vpc",
			"cidr_block": "10.0.0.0/16",
		},
		Outputs:   map[string]any{"id": "vpc-0123", "state": "available"},
		CreatedAt: now,
		UpdatedAt: now,
	})

	require.NoError(t, s.Save(ctx, snap))
	assert.Equal(t, 1, snap.Serial)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Serial)

	rec := loaded.Record("vpc.main")
	require.NotNil(t, rec)
	assert.Equal(t, "vpc-0123", rec.ID)
	assert.Equal(t, "10.0.0.0/16", rec.Attributes["cidr_block"])
	assert.Equal(t, "available", rec.Outputs["state"])

	// Serial keeps climbing on every save.
	require.NoError(t, s.Save(ctx, loaded))
	assert.Equal(t, 2, loaded.Serial)
}

func TestFileStoreLock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Lock(ctx))

	err := s.Lock(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, s.Unlock(ctx))
	assert.NoError(t, s.Lock(ctx))
	require.NoError(t, s.Unlock(ctx))

	// Unlocking an unheld lock is not an error.
	assert.NoError(t, s.Unlock(ctx))
}

func TestSnapshotRemove(t *testing.T) {
	snap := NewSnapshot()
	snap.Put("subnet.a", &Record{Type: "subnet", Name: "a", ID: "subnet-1"})
	require.NotNil(t, snap.Record("subnet.a"))
	snap.Remove("subnet.a")
	assert.Nil(t, snap.Record("subnet.a"))
}
