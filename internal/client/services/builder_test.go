package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketBuilder_Build(t *testing.T) {
	raw := encodeManifest(t, spacewarID, spacewarKey, manifest.FileEntry{Path: "a", Size: 1})
	fc := &fakeClient{
		loggedOn:  true,
		keys:      map[uint32][]byte{481: spacewarKey},
		manifests: map[uint32][]byte{481: raw},
	}
	b := NewTicketBuilder(fc, fc, logging.Discard())

	tk, err := b.Build(context.Background(), spacewarID, 0)
	require.NoError(t, err)
	assert.Equal(t, spacewarID, tk.Identity())
	assert.Equal(t, spacewarKey, tk.DepotKey)
	assert.Equal(t, raw, tk.Manifest)
	assert.Equal(t, []uint64{0}, fc.manifestCalls, "default request code is zero")
	assert.Empty(t, fc.codeCalls)
}

func TestTicketBuilder_Make_FetchesRequestCode(t *testing.T) {
	fc := &fakeClient{
		loggedOn:  true,
		keys:      map[uint32][]byte{481: spacewarKey},
		manifests: map[uint32][]byte{481: []byte("x")},
	}
	b := NewTicketBuilder(fc, fc, logging.Discard())

	_, err := b.Make(context.Background(), spacewarID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{777}, fc.manifestCalls)
	require.Len(t, fc.codeCalls, 1)
	assert.Equal(t, spacewarID, fc.codeCalls[0])
}

func TestTicketBuilder_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not logged on", func(t *testing.T) {
		fc := &fakeClient{}
		b := NewTicketBuilder(fc, fc, logging.Discard())
		_, err := b.Build(ctx, spacewarID, 0)
		require.ErrorIs(t, err, common.ErrUnauthenticated)
		_, err = b.Make(ctx, spacewarID)
		require.ErrorIs(t, err, common.ErrUnauthenticated)
		assert.Empty(t, fc.codeCalls)
	})

	t.Run("request denied", func(t *testing.T) {
		fc := &fakeClient{loggedOn: true, keyErr: map[uint32]error{481: common.ErrRequestDenied}}
		b := NewTicketBuilder(fc, fc, logging.Discard())
		_, err := b.Build(ctx, spacewarID, 0)
		require.ErrorIs(t, err, common.ErrRequestDenied)
		assert.Contains(t, err.Error(), "481")
	})

	t.Run("unknown manifest", func(t *testing.T) {
		fc := &fakeClient{loggedOn: true, keys: map[uint32][]byte{481: spacewarKey}}
		b := NewTicketBuilder(fc, fc, logging.Discard())
		_, err := b.Build(ctx, spacewarID, 0)
		require.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("key of wrong size", func(t *testing.T) {
		fc := &fakeClient{
			loggedOn:  true,
			keys:      map[uint32][]byte{481: []byte("short")},
			manifests: map[uint32][]byte{481: []byte("x")},
		}
		b := NewTicketBuilder(fc, fc, logging.Discard())
		_, err := b.Build(ctx, spacewarID, 0)
		require.ErrorIs(t, err, common.ErrMalformedTicket)
	})
}
