package exchange

import (
	"context"
	"fmt"
	"strings"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	"go.einride.tech/aip/ordering"
)

// QueryService serves the read-only listings of exchanges.
type QueryService struct {
	repoManager ports.RepoManager
}

func NewQueryService(repoManager ports.RepoManager) (*QueryService, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	return &QueryService{repoManager}, nil
}

// ListForUser returns the page of the user's exchanges matching the filter,
// newest first, and the total number of matches.
func (s *QueryService) ListForUser(
	ctx context.Context, filter domain.ExchangeFilter, page domain.Page,
) ([]domain.Exchange, int, error) {
	if filter.UserId == "" {
		return nil, 0, domain.ErrNotParticipant
	}
	if filter.Role == "" {
		filter.Role = domain.RoleAny
	}
	return s.repoManager.ExchangeRepository().ListExchangesForUser(ctx, filter, page)
}

// ListAll returns a page of all exchanges in the given order, and the total
// number of exchanges.
func (s *QueryService) ListAll(
	ctx context.Context, sort domain.ExchangeSort, page domain.Page,
) ([]domain.Exchange, int, error) {
	if sort.Field == "" {
		sort = domain.DefaultSort
	}
	return s.repoManager.ExchangeRepository().ListExchanges(ctx, sort, page)
}

// ParseSort builds the admin listing order either from an AIP-132 order_by
// string (e.g. "created_at desc") or from a sort field and an asc/desc order.
// orderBy wins if both are given. Only the first order_by field is used.
func ParseSort(sortBy, sortOrder, orderBy string) (domain.ExchangeSort, error) {
	if strings.TrimSpace(orderBy) != "" {
		var o ordering.OrderBy
		if err := o.UnmarshalString(orderBy); err != nil {
			return domain.ExchangeSort{}, fmt.Errorf(
				"%w: invalid orderBy: %s", domain.ErrInvalidArgument, err,
			)
		}
		if err := o.ValidateForPaths(domain.SortFields...); err != nil {
			return domain.ExchangeSort{}, fmt.Errorf(
				"%w: %s", domain.ErrInvalidArgument, err,
			)
		}
		if len(o.Fields) <= 0 {
			return domain.DefaultSort, nil
		}
		return domain.ExchangeSort{
			Field: domain.SortField(o.Fields[0].Path),
			Desc:  o.Fields[0].Desc,
		}, nil
	}

	sort := domain.DefaultSort
	if sortBy != "" {
		if !isSortField(sortBy) {
			return domain.ExchangeSort{}, fmt.Errorf(
				"%w: unknown sort field %q", domain.ErrInvalidArgument, sortBy,
			)
		}
		sort.Field = domain.SortField(sortBy)
	}

	switch strings.ToLower(sortOrder) {
	case "":
	case "asc":
		sort.Desc = false
	case "desc":
		sort.Desc = true
	default:
		return domain.ExchangeSort{}, fmt.Errorf(
			"%w: sort order must be asc or desc", domain.ErrInvalidArgument,
		)
	}
	return sort, nil
}

func isSortField(field string) bool {
	for _, f := range domain.SortFields {
		if f == field {
			return true
		}
	}
	return false
}
