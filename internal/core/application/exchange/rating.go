package exchange

import (
	"context"
	"fmt"

	"github.com/barterbay/barterd/internal/core/ports"
)

// RatingEligibility is the answer given to the rating subsystem.
type RatingEligibility struct {
	Eligible    bool   `json:"eligible"`
	RatedUserId string `json:"ratedUserId,omitempty"`
}

// RatingService is the only read contract the rating subsystem relies on.
type RatingService struct {
	repoManager ports.RepoManager
}

func NewRatingService(repoManager ports.RepoManager) (*RatingService, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	return &RatingService{repoManager}, nil
}

// CanRate tells whether the user may rate the counterparty of the exchange.
func (s *RatingService) CanRate(
	ctx context.Context, exchangeId, userId string,
) (RatingEligibility, error) {
	exchange, err := s.repoManager.ExchangeRepository().GetExchange(ctx, exchangeId)
	if err != nil {
		return RatingEligibility{}, err
	}
	eligible, ratedUserId := exchange.CanRate(userId)
	return RatingEligibility{eligible, ratedUserId}, nil
}
