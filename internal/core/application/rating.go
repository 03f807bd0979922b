package application

import (
	"context"

	"github.com/barterbay/barterd/internal/core/application/exchange"
	"github.com/barterbay/barterd/internal/core/ports"
)

type RatingEligibility = exchange.RatingEligibility

type RatingService interface {
	CanRate(ctx context.Context, exchangeId, userId string) (RatingEligibility, error)
}

func NewRatingService(repoManager ports.RepoManager) (RatingService, error) {
	svc, err := exchange.NewRatingService(repoManager)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
