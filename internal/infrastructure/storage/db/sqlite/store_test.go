package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/infrastructure/storage/db/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

func TestReopenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barter.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)

	exchange, _, err := domain.NewExchange(domain.Proposal{
		RequesterId:    randstr.Hex(6),
		ReceiverId:     randstr.Hex(6),
		RequesterOffer: domain.Offer{ProductId: randstr.Hex(8), Amount: 1},
		ReceiverOffer:  domain.Offer{ProductId: randstr.Hex(8), Amount: 1},
	}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.AddExchange(ctx, exchange))
	store.Close()

	// migrations already applied must not be run again.
	store, err = sqlite.Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetExchange(ctx, exchange.Id)
	require.NoError(t, err)
	require.Equal(t, exchange.RequesterId, got.RequesterId)
}

func TestOpenWithoutPath(t *testing.T) {
	_, err := sqlite.Open(" ")
	require.Error(t, err)
}
