package postgresdb

import (
	"context"
	"fmt"

	"github.com/barterbay/barterd/internal/core/domain"
)

type transitionRepositoryImpl struct {
	db     querier
	execTx execTxFn
}

func newTransitionRepositoryImpl(
	db querier, execTx execTxFn,
) domain.TransitionRepository {
	return &transitionRepositoryImpl{db, execTx}
}

func (r *transitionRepositoryImpl) AppendTransitions(
	ctx context.Context, transitions ...domain.Transition,
) error {
	return r.execTx(ctx, func(q querier) error {
		for _, t := range transitions {
			if _, err := q.Exec(
				ctx,
				`INSERT INTO transition (
				   id, fk_exchange_id, actor_id, party, kind, from_status,
				   to_status, status_after, at
				 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				 ON CONFLICT (id) DO NOTHING`,
				t.Id, t.ExchangeId, t.ActorId, t.Party, string(t.Kind), t.From,
				t.To, string(t.StatusAfter), t.At,
			); err != nil {
				return fmt.Errorf("insert transition: %w", err)
			}
		}
		return nil
	})
}

func (r *transitionRepositoryImpl) ListTransitions(
	ctx context.Context, exchangeId string,
) ([]domain.Transition, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, fk_exchange_id, actor_id, party, kind, from_status,
		   to_status, status_after, at
		 FROM transition WHERE fk_exchange_id = $1 ORDER BY id`,
		exchangeId,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	transitions := make([]domain.Transition, 0)
	for rows.Next() {
		var t domain.Transition
		var kind, statusAfter string
		if err := rows.Scan(
			&t.Id, &t.ExchangeId, &t.ActorId, &t.Party, &kind, &t.From,
			&t.To, &statusAfter, &t.At,
		); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.Kind = domain.TransitionKind(kind)
		t.StatusAfter = domain.ExchangeStatus(statusAfter)
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}
