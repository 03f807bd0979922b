package application

import (
	"context"

	"github.com/barterbay/barterd/internal/core/application/exchange"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
)

type QueryService interface {
	ListForUser(
		ctx context.Context, filter domain.ExchangeFilter, page domain.Page,
	) ([]domain.Exchange, int, error)
	ListAll(
		ctx context.Context, sort domain.ExchangeSort, page domain.Page,
	) ([]domain.Exchange, int, error)
}

func NewQueryService(repoManager ports.RepoManager) (QueryService, error) {
	svc, err := exchange.NewQueryService(repoManager)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// ParseSort ...
func ParseSort(sortBy, sortOrder, orderBy string) (domain.ExchangeSort, error) {
	return exchange.ParseSort(sortBy, sortOrder, orderBy)
}
