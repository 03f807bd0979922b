package db_test

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestExchangeRepositoryImplementations(t *testing.T) {
	managers := createRepoManagers(t)

	for i := range managers {
		manager := managers[i]

		t.Run(manager.Name, func(t *testing.T) {
			repo := manager.Manager.ExchangeRepository()

			t.Run("add_and_get_exchange", func(t *testing.T) {
				testAddAndGetExchange(t, repo)
			})
			t.Run("update_exchange", func(t *testing.T) {
				testUpdateExchange(t, repo)
			})
			t.Run("concurrent_update", func(t *testing.T) {
				testConcurrentUpdateExchange(t, repo)
			})
			t.Run("list_exchanges_for_user", func(t *testing.T) {
				testListExchangesForUser(t, repo)
			})
			t.Run("list_exchanges", func(t *testing.T) {
				testListExchanges(t, repo)
			})
			t.Run("list_expired_exchanges", func(t *testing.T) {
				testListExpiredExchanges(t, repo)
			})
		})
	}
}

func testAddAndGetExchange(t *testing.T, repo domain.ExchangeRepository) {
	ctx := context.Background()
	exchange := makeRandomExchange(t, randomUserId(), randomUserId())

	got, err := repo.GetExchange(ctx, exchange.Id)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Nil(t, got)

	err = repo.AddExchange(ctx, exchange)
	require.NoError(t, err)

	got, err = repo.GetExchange(ctx, exchange.Id)
	require.NoError(t, err)
	require.Equal(t, *exchange, *got)

	err = repo.AddExchange(ctx, exchange)
	require.Error(t, err)
}

func testUpdateExchange(t *testing.T, repo domain.ExchangeRepository) {
	ctx := context.Background()
	exchange := makeRandomExchange(t, randomUserId(), randomUserId())
	require.NoError(t, repo.AddExchange(ctx, exchange))

	err := repo.UpdateExchange(
		ctx, exchange.Id, func(e *domain.Exchange) (*domain.Exchange, error) {
			if _, err := e.AdvanceShipping(
				domain.PartyRequester, domain.ShippingShipped,
			); err != nil {
				return nil, err
			}
			return e, nil
		},
	)
	require.NoError(t, err)

	got, err := repo.GetExchange(ctx, exchange.Id)
	require.NoError(t, err)
	require.Equal(t, uint64(2), got.Version)
	require.Equal(t, domain.ShippingShipped, got.RequesterTrack.Shipping)
	require.Equal(t, domain.StatusInProgress, got.Status)

	// A failing update must not change anything.
	err = repo.UpdateExchange(
		ctx, exchange.Id, func(e *domain.Exchange) (*domain.Exchange, error) {
			_, err := e.Cancel(domain.PartyReceiver)
			return nil, err
		},
	)
	require.ErrorIs(t, err, domain.ErrCannotCancel)

	unchanged, err := repo.GetExchange(ctx, exchange.Id)
	require.NoError(t, err)
	require.Equal(t, *got, *unchanged)

	err = repo.UpdateExchange(
		ctx, "unknown", func(e *domain.Exchange) (*domain.Exchange, error) {
			return e, nil
		},
	)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func testConcurrentUpdateExchange(t *testing.T, repo domain.ExchangeRepository) {
	ctx := context.Background()
	exchange := makeRandomExchange(t, randomUserId(), randomUserId())
	require.NoError(t, repo.AddExchange(ctx, exchange))

	// The inner update commits while the outer one is between its read and
	// its write, the outer one must lose.
	err := repo.UpdateExchange(
		ctx, exchange.Id, func(outer *domain.Exchange) (*domain.Exchange, error) {
			innerErr := repo.UpdateExchange(
				ctx, exchange.Id, func(inner *domain.Exchange) (*domain.Exchange, error) {
					if _, err := inner.AdvanceShipping(
						domain.PartyReceiver, domain.ShippingShipped,
					); err != nil {
						return nil, err
					}
					return inner, nil
				},
			)
			require.NoError(t, innerErr)

			if _, err := outer.Cancel(domain.PartyRequester); err != nil {
				return nil, err
			}
			return outer, nil
		},
	)
	require.ErrorIs(t, err, domain.ErrConcurrentModification)
	require.True(t, domain.IsRetryable(err))

	got, err := repo.GetExchange(ctx, exchange.Id)
	require.NoError(t, err)
	require.Equal(t, uint64(2), got.Version)
	require.Equal(t, domain.StatusInProgress, got.Status)
	require.False(t, got.Canceled)
}

func testListExchangesForUser(t *testing.T, repo domain.ExchangeRepository) {
	ctx := context.Background()
	user, counterparty := randomUserId(), randomUserId()

	// 3 as requester (one with counterparty), 2 as receiver, 1 unrelated.
	exchanges := []*domain.Exchange{
		makeRandomExchange(t, user, counterparty),
		makeRandomExchange(t, user, randomUserId()),
		makeRandomExchange(t, user, randomUserId()),
		makeRandomExchange(t, counterparty, user),
		makeRandomExchange(t, randomUserId(), user),
		makeRandomExchange(t, randomUserId(), randomUserId()),
	}
	for i, e := range exchanges {
		e.CreatedAt = int64(1000 + i)
		require.NoError(t, repo.AddExchange(ctx, e))
	}

	tests := []struct {
		name          string
		filter        domain.ExchangeFilter
		expectedIdx   []int
		expectedTotal int
	}{
		{
			name:          "all",
			filter:        domain.ExchangeFilter{UserId: user, Role: domain.RoleAny},
			expectedIdx:   []int{4, 3, 2, 1, 0},
			expectedTotal: 5,
		},
		{
			name:          "requester",
			filter:        domain.ExchangeFilter{UserId: user, Role: domain.RoleRequester},
			expectedIdx:   []int{2, 1, 0},
			expectedTotal: 3,
		},
		{
			name:          "receiver",
			filter:        domain.ExchangeFilter{UserId: user, Role: domain.RoleReceiver},
			expectedIdx:   []int{4, 3},
			expectedTotal: 2,
		},
		{
			name: "counterparty",
			filter: domain.ExchangeFilter{
				UserId: user, Role: domain.RoleAny, CounterpartyId: counterparty,
			},
			expectedIdx:   []int{3, 0},
			expectedTotal: 2,
		},
		{
			name: "requester_with_counterparty",
			filter: domain.ExchangeFilter{
				UserId: user, Role: domain.RoleRequester, CounterpartyId: counterparty,
			},
			expectedIdx:   []int{0},
			expectedTotal: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, total, err := repo.ListExchangesForUser(
				ctx, tt.filter, domain.NewPage(1, 10),
			)
			require.NoError(t, err)
			require.Equal(t, tt.expectedTotal, total)
			require.Len(t, list, len(tt.expectedIdx))
			for i, idx := range tt.expectedIdx {
				require.Equal(t, exchanges[idx].Id, list[i].Id)
			}
		})
	}

	t.Run("pagination", func(t *testing.T) {
		filter := domain.ExchangeFilter{UserId: user, Role: domain.RoleAny}
		paged := make([]string, 0)
		for i := 1; i <= 3; i++ {
			list, total, err := repo.ListExchangesForUser(
				ctx, filter, domain.NewPage(i, 2),
			)
			require.NoError(t, err)
			require.Equal(t, 5, total)
			for _, e := range list {
				paged = append(paged, e.Id)
			}
		}
		require.Equal(t, []string{
			exchanges[4].Id, exchanges[3].Id, exchanges[2].Id,
			exchanges[1].Id, exchanges[0].Id,
		}, paged)

		list, total, err := repo.ListExchangesForUser(
			ctx, filter, domain.NewPage(4, 2),
		)
		require.NoError(t, err)
		require.Equal(t, 5, total)
		require.Empty(t, list)
	})

	t.Run("unknown_user", func(t *testing.T) {
		list, total, err := repo.ListExchangesForUser(
			ctx, domain.ExchangeFilter{UserId: randomUserId(), Role: domain.RoleAny},
			domain.NewPage(1, 10),
		)
		require.NoError(t, err)
		require.Zero(t, total)
		require.Empty(t, list)
	})
}

func testListExchanges(t *testing.T, repo domain.ExchangeRepository) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		e := makeRandomExchange(t, randomUserId(), randomUserId())
		e.CreatedAt = int64(2000 + i)
		e.UpdatedAt = int64(3000 - i)
		require.NoError(t, repo.AddExchange(ctx, e))
	}

	sorts := []domain.ExchangeSort{
		domain.DefaultSort,
		{Field: domain.SortByCreatedAt},
		{Field: domain.SortByUpdatedAt, Desc: true},
		{Field: domain.SortByStatus},
	}
	for _, s := range sorts {
		s := s
		t.Run(fmt.Sprintf("%s_desc_%t", s.Field, s.Desc), func(t *testing.T) {
			list, total, err := repo.ListExchanges(ctx, s, domain.NewPage(1, 100))
			require.NoError(t, err)
			require.GreaterOrEqual(t, total, 5)
			require.Len(t, list, min(total, 100))
			require.True(t, sort.SliceIsSorted(list, func(i, j int) bool {
				return s.Less(list[i], list[j])
			}))
		})
	}

	_, total, err := repo.ListExchanges(ctx, domain.DefaultSort, domain.NewPage(1, 2))
	require.NoError(t, err)
	page, pageTotal, err := repo.ListExchanges(ctx, domain.DefaultSort, domain.NewPage(2, 2))
	require.NoError(t, err)
	require.Equal(t, total, pageTotal)
	require.Len(t, page, 2)
}

func testListExpiredExchanges(t *testing.T, repo domain.ExchangeRepository) {
	ctx := context.Background()

	expired := makeRandomExchange(t, randomUserId(), randomUserId())
	expired.ExpiresAt = 10
	notYet := makeRandomExchange(t, randomUserId(), randomUserId())
	notYet.ExpiresAt = 1 << 40
	neverExpires := makeRandomExchange(t, randomUserId(), randomUserId())
	neverExpires.ExpiresAt = 0
	canceled := makeRandomExchange(t, randomUserId(), randomUserId())
	canceled.ExpiresAt = 10
	_, err := canceled.Cancel(domain.PartyReceiver)
	require.NoError(t, err)

	for _, e := range []*domain.Exchange{expired, notYet, neverExpires, canceled} {
		require.NoError(t, repo.AddExchange(ctx, e))
	}

	list, err := repo.ListExpiredExchanges(ctx, 20)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, e := range list {
		ids[e.Id] = true
		require.Equal(t, domain.StatusPending, e.Status)
	}
	require.True(t, ids[expired.Id])
	require.False(t, ids[notYet.Id])
	require.False(t, ids[neverExpires.Id])
	require.False(t, ids[canceled.Id])
}
