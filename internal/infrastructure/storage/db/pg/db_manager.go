package postgresdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/barterbay/barterd/internal/infrastructure/storage/db/pg/migrations"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const (
	insecureDataSourceTemplate = "postgresql://%s:%s@%s:%d/%s?sslmode=disable"
	postgresDriver             = "pgx5"

	uniqueViolation = "23505"
)

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type execTxFn func(ctx context.Context, txBody func(querier) error) error

type repoManager struct {
	pgxPool *pgxpool.Pool

	exchangeRepository    domain.ExchangeRepository
	reservationRepository domain.ReservationRepository
	transitionRepository  domain.TransitionRepository
}

// NewService connects to the given data source and applies the schema.
func NewService(dataSource string) (ports.RepoManager, error) {
	pgxPool, err := connect(dataSource)
	if err != nil {
		return nil, err
	}

	if err := migrateDb(dataSource); err != nil {
		pgxPool.Close()
		return nil, err
	}

	rm := &repoManager{pgxPool: pgxPool}
	rm.exchangeRepository = newExchangeRepositoryImpl(pgxPool, rm.execTx)
	rm.reservationRepository = newReservationRepositoryImpl(pgxPool, rm.execTx)
	rm.transitionRepository = newTransitionRepositoryImpl(pgxPool, rm.execTx)

	return rm, nil
}

func (r *repoManager) ExchangeRepository() domain.ExchangeRepository {
	return r.exchangeRepository
}

func (r *repoManager) ReservationRepository() domain.ReservationRepository {
	return r.reservationRepository
}

func (r *repoManager) TransitionRepository() domain.TransitionRepository {
	return r.transitionRepository
}

func (r *repoManager) Close() {
	r.pgxPool.Close()
}

func (r *repoManager) execTx(
	ctx context.Context,
	txBody func(querier) error,
) error {
	conn, err := r.pgxPool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	// Rollback is a no-op once the tx is committed.
	defer func() {
		err := tx.Rollback(ctx)
		switch {
		case errors.Is(err, pgx.ErrTxClosed):
			return
		case err != nil:
			log.Errorf("unable to rollback db tx: %v", err)
		}
	}()

	if err := txBody(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DbConfig holds the connection parameters of a postgres instance.
type DbConfig struct {
	DbUser     string
	DbPassword string
	DbHost     string
	DbPort     int
	DbName     string
}

// DataSource returns the insecure connection string for the config.
func (c DbConfig) DataSource() string {
	return fmt.Sprintf(
		insecureDataSourceTemplate,
		c.DbUser, c.DbPassword, c.DbHost, c.DbPort, c.DbName,
	)
}

func connect(dataSource string) (*pgxpool.Pool, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dataSource)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func migrateDb(dataSource string) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	pg := pgxmigrate.Postgres{}
	d, err := pg.Open(dataSource)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, postgresDriver, d)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
