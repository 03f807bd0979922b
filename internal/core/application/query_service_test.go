package application_test

import (
	"context"
	"testing"

	"github.com/barterbay/barterd/internal/core/application"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestListExchanges(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	query := env.cfg.QueryService()

	for i := 0; i < 3; i++ {
		env.propose(t, 1)
	}

	tests := []struct {
		name          string
		filter        domain.ExchangeFilter
		expectedTotal int
	}{
		{"as requester", domain.ExchangeFilter{UserId: env.requesterId, Role: domain.RoleRequester}, 3},
		{"as receiver", domain.ExchangeFilter{UserId: env.requesterId, Role: domain.RoleReceiver}, 0},
		{"any role", domain.ExchangeFilter{UserId: env.receiverId}, 3},
		{"with counterparty", domain.ExchangeFilter{UserId: env.receiverId, CounterpartyId: env.requesterId}, 3},
		{"with other counterparty", domain.ExchangeFilter{UserId: env.receiverId, CounterpartyId: "nobody"}, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := query.ListForUser(ctx, tt.filter, domain.NewPage(1, 10))
			require.NoError(t, err)
			require.Equal(t, tt.expectedTotal, total)
		})
	}

	page, total, err := query.ListForUser(
		ctx, domain.ExchangeFilter{UserId: env.requesterId}, domain.NewPage(2, 2),
	)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page, 1)

	all, total, err := query.ListAll(ctx, domain.ExchangeSort{}, domain.NewPage(1, 10))
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, all, 3)
}

func TestParseSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                       string
		sortBy, sortOrder, orderBy string
		expected                   domain.ExchangeSort
		expectedErr                error
	}{
		{"default", "", "", "", domain.DefaultSort, nil},
		{"field only", "status", "", "", domain.ExchangeSort{Field: domain.SortByStatus, Desc: true}, nil},
		{"field and order", "updated_at", "asc", "", domain.ExchangeSort{Field: domain.SortByUpdatedAt}, nil},
		{"order by asc", "", "", "completed_at", domain.ExchangeSort{Field: domain.SortByCompletedAt}, nil},
		{"order by desc", "status", "asc", "created_at desc", domain.ExchangeSort{Field: domain.SortByCreatedAt, Desc: true}, nil},
		{"unknown field", "price", "", "", domain.ExchangeSort{}, domain.ErrInvalidArgument},
		{"unknown order", "status", "up", "", domain.ExchangeSort{}, domain.ErrInvalidArgument},
		{"unknown order by field", "", "", "price desc", domain.ExchangeSort{}, domain.ErrInvalidArgument},
		{"malformed order by", "", "", "created_at sideways", domain.ExchangeSort{}, domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sort, err := application.ParseSort(tt.sortBy, tt.sortOrder, tt.orderBy)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, sort)
		})
	}
}
