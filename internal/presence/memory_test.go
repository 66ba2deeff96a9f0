package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	require.NoError(t, r.Register(ctx, 1, "conn-a"))

	connID, ok, err := r.Lookup(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "conn-a", connID)

	_, ok, err = r.Lookup(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterLastConnectWins(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	require.NoError(t, r.Register(ctx, 1, "conn-a"))
	require.NoError(t, r.Register(ctx, 1, "conn-b"))

	connID, ok, err := r.Lookup(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "conn-b", connID)

	ids, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
}

func TestStaleUnregisterIsIgnored(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	require.NoError(t, r.Register(ctx, 1, "conn-a"))
	require.NoError(t, r.Register(ctx, 1, "conn-b"))

	// The replaced connection disconnects late; the fresh one must survive.
	require.NoError(t, r.Unregister(ctx, 1, "conn-a"))
	_, ok, err := r.Lookup(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Unregister(ctx, 1, "conn-b"))
	_, ok, err = r.Lookup(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnregisterUnknownUserIsNoOp(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	require.NoError(t, r.Unregister(ctx, 7, "conn-x"))
}

func TestSnapshotIsSorted(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	for _, id := range []int{5, 1, 3} {
		require.NoError(t, r.Register(ctx, id, "conn"))
	}

	ids, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, ids)
}
