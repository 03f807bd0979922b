package application

import (
	"context"
	"time"

	"github.com/barterbay/barterd/internal/core/application/exchange"
)

type ExpiryService interface {
	Start(ctx context.Context)
	Sweep(ctx context.Context, now time.Time) (int, error)
}

func NewExpiryService(
	exchangeSvc ExchangeService, interval time.Duration,
) (ExpiryService, error) {
	e := exchangeSvc.(*exchange.Service)
	svc, err := exchange.NewExpiryService(e, interval)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
