package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barterbay/barterd/internal/core/domain"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentExpiries = 4

// ExpiryService periodically cancels the exchanges left pending past their
// deadline.
type ExpiryService struct {
	exchangeSvc *Service
	interval    time.Duration
}

func NewExpiryService(exchangeSvc *Service, interval time.Duration) (*ExpiryService, error) {
	if exchangeSvc == nil {
		return nil, fmt.Errorf("missing exchange service")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive")
	}
	return &ExpiryService{exchangeSvc, interval}, nil
}

// Start sweeps on every tick until ctx is done.
func (s *ExpiryService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				count, err := s.Sweep(ctx, time.Now())
				if err != nil {
					log.WithError(err).Warn("expiry sweep failed")
					continue
				}
				if count > 0 {
					log.Infof("expired %d stale exchanges", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Sweep expires every exchange pending past its deadline at now and returns
// how many were expired. Exchanges modified meanwhile are skipped.
func (s *ExpiryService) Sweep(ctx context.Context, now time.Time) (int, error) {
	exchanges, err := s.exchangeSvc.repoManager.ExchangeRepository().
		ListExpiredExchanges(ctx, now.Unix())
	if err != nil {
		return 0, err
	}

	expired := make([]bool, len(exchanges))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentExpiries)
	for i := range exchanges {
		i, id := i, exchanges[i].Id
		eg.Go(func() error {
			ok, err := s.exchangeSvc.Expire(egCtx, id, now)
			if err != nil {
				if errors.Is(err, domain.ErrConcurrentModification) {
					log.Debugf("exchange %s modified while expiring, skipped", id)
					return nil
				}
				return fmt.Errorf("expire exchange %s: %w", id, err)
			}
			expired[i] = ok
			return nil
		})
	}
	err = eg.Wait()

	var count int
	for _, ok := range expired {
		if ok {
			count++
		}
	}
	return count, err
}
