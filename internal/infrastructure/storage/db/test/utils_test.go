package db_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	dbbadger "github.com/barterbay/barterd/internal/infrastructure/storage/db/badger"
	"github.com/barterbay/barterd/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/barterbay/barterd/internal/infrastructure/storage/db/pg"
	"github.com/barterbay/barterd/internal/infrastructure/storage/db/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

// pgAddrEnv enables the postgres implementation in the suite when set to a
// connection string.
const pgAddrEnv = "BARTER_TEST_PG_ADDR"

type repoManager struct {
	Name    string
	Manager ports.RepoManager
}

func createRepoManagers(t *testing.T) []repoManager {
	badgerDBManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	sqliteDBManager, err := sqlite.NewRepoManager(
		filepath.Join(t.TempDir(), "barter.db"),
	)
	require.NoError(t, err)

	managers := []repoManager{
		{Name: "inmemory", Manager: inmemory.NewRepoManager()},
		{Name: "badger", Manager: badgerDBManager},
		{Name: "sqlite", Manager: sqliteDBManager},
	}

	if addr := os.Getenv(pgAddrEnv); addr != "" {
		pgDBManager, err := postgresdb.NewService(addr)
		require.NoError(t, err)
		managers = append(managers, repoManager{Name: "postgres", Manager: pgDBManager})
	}

	t.Cleanup(func() {
		for _, m := range managers {
			m.Manager.Close()
		}
	})
	return managers
}

func makeRandomExchange(t *testing.T, requesterId, receiverId string) *domain.Exchange {
	exchange, _, err := domain.NewExchange(domain.Proposal{
		RequesterId: requesterId,
		ReceiverId:  receiverId,
		RequesterOffer: domain.Offer{
			ProductId: randstr.Hex(8), Size: "M", Color: "red", Amount: 1,
		},
		ReceiverOffer: domain.Offer{
			ProductId: randstr.Hex(8), Size: "42", Color: "black", Amount: 2,
		},
		ShippingMethod: "courier",
		Note:           randstr.String(12),
	}, time.Hour)
	require.NoError(t, err)
	return exchange
}

func randomUserId() string {
	return "user-" + randstr.Hex(6)
}
