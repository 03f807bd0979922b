package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/barterbay/barterd/internal/core/application/pubsub"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/barterbay/barterd/pkg/stats"
	log "github.com/sirupsen/logrus"
)

// Options tunes the behavior of the exchange service.
type Options struct {
	// ReserveInventory enables the holds on offered product slices.
	ReserveInventory bool
	// ExchangeTTL is how long an exchange may stay pending, zero disables
	// expiration.
	ExchangeTTL time.Duration
}

type Service struct {
	repoManager ports.RepoManager
	validator   *ProposalValidator
	pubsub      *pubsub.Service
	idempotency ports.IdempotencyStore
	opts        Options

	sliceLocks *keyedLocker
	keyLocks   *keyedLocker
	events     sync.WaitGroup
}

// NewService returns the service driving the exchange lifecycle. The pubsub
// service and the idempotency store are optional.
func NewService(
	repoManager ports.RepoManager,
	inventory ports.InventoryProvider,
	pubsubSvc *pubsub.Service,
	idempotency ports.IdempotencyStore,
	opts Options,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if opts.ExchangeTTL < 0 {
		return nil, fmt.Errorf("exchange ttl must not be negative")
	}

	var reservations domain.ReservationRepository
	if opts.ReserveInventory {
		reservations = repoManager.ReservationRepository()
	}
	validator, err := NewProposalValidator(inventory, reservations)
	if err != nil {
		return nil, err
	}

	return &Service{
		repoManager: repoManager,
		validator:   validator,
		pubsub:      pubsubSvc,
		idempotency: idempotency,
		opts:        opts,
		sliceLocks:  newKeyedLocker(),
		keyLocks:    newKeyedLocker(),
	}, nil
}

// Propose validates the proposal and creates a pending exchange. If an
// idempotency key is given and was already used by the same requester, the
// exchange created back then is returned and replayed is true.
func (s *Service) Propose(
	ctx context.Context, proposal domain.Proposal, idempotencyKey string,
) (*domain.Exchange, bool, error) {
	var scopedKey string
	if idempotencyKey != "" && s.idempotency != nil {
		scopedKey = fmt.Sprintf("%s/%s", proposal.RequesterId, idempotencyKey)
		unlock := s.keyLocks.lock(scopedKey)
		defer unlock()

		id, err := s.idempotency.Get(scopedKey)
		if err != nil {
			return nil, false, err
		}
		if id != "" {
			exchange, err := s.repoManager.ExchangeRepository().GetExchange(ctx, id)
			if err != nil {
				return nil, false, err
			}
			if !exchange.Matches(proposal) {
				return nil, false, fmt.Errorf(
					"%w: idempotency key already used for a different proposal",
					domain.ErrInvalidArgument,
				)
			}
			return exchange, true, nil
		}
	}

	if s.opts.ReserveInventory {
		unlock := s.sliceLocks.lock(
			domain.SliceKey(
				proposal.RequesterOffer.ProductId,
				proposal.RequesterOffer.Size,
				proposal.RequesterOffer.Color,
			),
			domain.SliceKey(
				proposal.ReceiverOffer.ProductId,
				proposal.ReceiverOffer.Size,
				proposal.ReceiverOffer.Color,
			),
		)
		defer unlock()
	}

	if err := s.validator.Validate(ctx, proposal); err != nil {
		return nil, false, err
	}

	exchange, transition, err := domain.NewExchange(proposal, s.opts.ExchangeTTL)
	if err != nil {
		return nil, false, err
	}

	if err := s.repoManager.ExchangeRepository().AddExchange(ctx, exchange); err != nil {
		return nil, false, err
	}

	if s.opts.ReserveInventory {
		holds := domain.NewReservations(exchange)
		if err := s.repoManager.ReservationRepository().AddReservations(
			ctx, holds...,
		); err != nil {
			s.abort(ctx, exchange.Id, "inventory reservation failed")
			return nil, false, fmt.Errorf("reserve inventory: %w", err)
		}
		stats.AddActiveReservations(len(holds))
	}

	if scopedKey != "" {
		if _, err := s.idempotency.PutIfAbsent(scopedKey, exchange.Id); err != nil {
			log.WithError(err).Warnf(
				"failed to store idempotency key for exchange %s", exchange.Id,
			)
		}
	}

	s.afterTransition(ctx, *exchange, *transition)

	log.Debugf(
		"exchange %s proposed by %s to %s",
		exchange.Id, exchange.RequesterId, exchange.ReceiverId,
	)
	return exchange, false, nil
}

// AdvanceShipping moves the acting user's shipment to target. requested is
// the side the caller claims to act on, PartyUnspecified lets it be
// resolved from the user.
func (s *Service) AdvanceShipping(
	ctx context.Context,
	exchangeId, userId string, requested domain.Party,
	target domain.ShippingStatus,
) (*domain.Exchange, error) {
	return s.mutate(ctx, exchangeId, func(e *domain.Exchange) (*domain.Transition, error) {
		party, err := e.Authorize(userId, requested)
		if err != nil {
			return nil, err
		}
		return e.AdvanceShipping(party, target)
	})
}

// AdvanceConfirm records the acting user's decision.
func (s *Service) AdvanceConfirm(
	ctx context.Context,
	exchangeId, userId string, decision domain.ConfirmStatus,
) (*domain.Exchange, error) {
	return s.mutate(ctx, exchangeId, func(e *domain.Exchange) (*domain.Transition, error) {
		party, err := e.PartyOf(userId)
		if err != nil {
			return nil, err
		}
		return e.AdvanceConfirm(party, decision)
	})
}

// Cancel withdraws a pending exchange on behalf of one of its participants.
func (s *Service) Cancel(
	ctx context.Context, exchangeId, userId string,
) (*domain.Exchange, error) {
	return s.mutate(ctx, exchangeId, func(e *domain.Exchange) (*domain.Transition, error) {
		party, err := e.PartyOf(userId)
		if err != nil {
			return nil, err
		}
		return e.Cancel(party)
	})
}

// Expire cancels the exchange if it is still pending past its deadline. It
// returns whether the exchange was expired.
func (s *Service) Expire(
	ctx context.Context, exchangeId string, now time.Time,
) (bool, error) {
	var expired bool
	_, err := s.mutate(ctx, exchangeId, func(e *domain.Exchange) (*domain.Transition, error) {
		t := e.Expire(now)
		expired = t != nil
		return t, nil
	})
	return expired, err
}

// abort cancels an exchange whose creation could not be completed, so that
// it does not stay pending without its holds.
func (s *Service) abort(ctx context.Context, exchangeId, reason string) {
	if _, err := s.mutate(
		ctx, exchangeId, func(e *domain.Exchange) (*domain.Transition, error) {
			return e.Abort(reason, time.Now()), nil
		},
	); err != nil {
		log.WithError(err).Errorf("failed to abort exchange %s", exchangeId)
		return
	}
	log.Warnf("exchange %s aborted: %s", exchangeId, reason)
}

// GetExchange returns the exchange if the user is a participant or a
// manager.
func (s *Service) GetExchange(
	ctx context.Context, exchangeId, userId string, isManager bool,
) (*domain.Exchange, error) {
	exchange, err := s.repoManager.ExchangeRepository().GetExchange(ctx, exchangeId)
	if err != nil {
		return nil, err
	}
	if !isManager && !exchange.IsParticipant(userId) {
		return nil, domain.ErrNotParticipant
	}
	return exchange, nil
}

// ListTransitions returns the history of the exchange to a participant or a
// manager.
func (s *Service) ListTransitions(
	ctx context.Context, exchangeId, userId string, isManager bool,
) ([]domain.Transition, error) {
	if _, err := s.GetExchange(ctx, exchangeId, userId, isManager); err != nil {
		return nil, err
	}
	return s.repoManager.TransitionRepository().ListTransitions(ctx, exchangeId)
}

// WaitPendingEvents blocks until all the events published in background are
// delivered or failed.
func (s *Service) WaitPendingEvents() {
	s.events.Wait()
}

// mutate runs fn against the stored exchange within a version checked
// update. A nil transition means nothing changed and nothing is written.
func (s *Service) mutate(
	ctx context.Context,
	exchangeId string,
	fn func(e *domain.Exchange) (*domain.Transition, error),
) (*domain.Exchange, error) {
	var updated *domain.Exchange
	var transition *domain.Transition

	err := s.repoManager.ExchangeRepository().UpdateExchange(
		ctx, exchangeId, func(e *domain.Exchange) (*domain.Exchange, error) {
			t, err := fn(e)
			if err != nil {
				return nil, err
			}
			if t == nil {
				return nil, errNoop
			}
			updated, transition = e, t
			return e, nil
		},
	)
	if errors.Is(err, errNoop) {
		exchange, err := s.repoManager.ExchangeRepository().GetExchange(ctx, exchangeId)
		return exchange, err
	}
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			stats.RecordConflict()
		}
		return nil, err
	}

	s.afterTransition(ctx, *updated, *transition)
	return updated, nil
}

var errNoop = errors.New("noop")

// afterTransition resolves the holds of terminal exchanges, appends the
// transition to the log and notifies subscribers. Failures here are logged
// since the exchange update is already committed.
func (s *Service) afterTransition(
	ctx context.Context, e domain.Exchange, t domain.Transition,
) {
	stats.RecordTransition(string(t.Kind), string(t.StatusAfter))

	if status := domain.ResolutionFor(e.Status); status != "" {
		count, err := s.repoManager.ReservationRepository().ResolveReservations(
			ctx, e.Id, status, t.At,
		)
		if err != nil {
			log.WithError(err).Errorf(
				"failed to resolve reservations of exchange %s", e.Id,
			)
		} else if count > 0 {
			stats.AddActiveReservations(-count)
			log.Debugf("%d reservations of exchange %s %s", count, e.Id, status)
		}
	}

	if err := s.repoManager.TransitionRepository().AppendTransitions(
		ctx, t,
	); err != nil {
		log.WithError(err).Errorf(
			"failed to append %s transition of exchange %s", t.Kind, e.Id,
		)
	}

	if s.pubsub == nil {
		return
	}
	s.events.Add(1)
	go func() {
		defer s.events.Done()
		if err := s.pubsub.PublishTransitionEvents(e, t); err != nil {
			log.WithError(err).Warnf(
				"pubsub: failed to publish %s event for exchange %s", t.Kind, e.Id,
			)
		}
	}()
}
