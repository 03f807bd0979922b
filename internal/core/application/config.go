package application

import (
	"fmt"
	"time"

	"github.com/barterbay/barterd/internal/core/application/exchange"
	"github.com/barterbay/barterd/internal/core/ports"
	dbbadger "github.com/barterbay/barterd/internal/infrastructure/storage/db/badger"
	"github.com/barterbay/barterd/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/barterbay/barterd/internal/infrastructure/storage/db/pg"
	sqlitedb "github.com/barterbay/barterd/internal/infrastructure/storage/db/sqlite"
	log "github.com/sirupsen/logrus"
)

const (
	DBBadger   = "badger"
	DBSqlite   = "sqlite"
	DBPostgres = "postgres"
	DBInmemory = "inmemory"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBSqlite:   {},
		DBPostgres: {},
		DBInmemory: {},
	}
)

// Config lazily builds the application services. DBConfig is the db
// directory for badger, the db file path for sqlite and the connection
// string for postgres. It is ignored by the inmemory db.
type Config struct {
	DBType   string
	DBConfig interface{}

	Inventory           ports.InventoryProvider
	PubSub              ports.PubSub
	IdempotencyStore    ports.IdempotencyStore
	ReserveInventory    bool
	ExchangeTTL         time.Duration
	ExpirySweepInterval time.Duration

	repo     ports.RepoManager
	pubsub   PubSubService
	exchange ExchangeService
	query    QueryService
	rating   RatingService
	expiry   ExpiryService
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("db type %q not supported", c.DBType)
	}
	if c.Inventory == nil {
		return fmt.Errorf("missing inventory provider")
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.exchangeService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	svc, _ := c.repoManager()
	return svc
}

func (c *Config) PubSubService() PubSubService {
	svc, _ := c.pubsubService()
	return svc
}

func (c *Config) ExchangeService() ExchangeService {
	svc, _ := c.exchangeService()
	return svc
}

func (c *Config) QueryService() QueryService {
	svc, _ := c.queryService()
	return svc
}

func (c *Config) RatingService() RatingService {
	svc, _ := c.ratingService()
	return svc
}

func (c *Config) ExpiryService() ExpiryService {
	svc, _ := c.expiryService()
	return svc
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo != nil {
		return c.repo, nil
	}

	var (
		repoManager ports.RepoManager
		err         error
	)
	switch c.DBType {
	case DBBadger:
		datadir, _ := c.DBConfig.(string)
		repoManager, err = dbbadger.NewRepoManager(datadir, log.New())
	case DBSqlite:
		path, _ := c.DBConfig.(string)
		repoManager, err = sqlitedb.NewRepoManager(path)
	case DBPostgres:
		dataSource, _ := c.DBConfig.(string)
		repoManager, err = postgresdb.NewService(dataSource)
	case DBInmemory:
		repoManager = inmemory.NewRepoManager()
	default:
		err = fmt.Errorf("db type %q not supported", c.DBType)
	}
	if err != nil {
		return nil, err
	}

	c.repo = repoManager
	return c.repo, nil
}

func (c *Config) pubsubService() (PubSubService, error) {
	if c.pubsub == nil && c.PubSub != nil {
		c.pubsub = NewPubSubService(c.PubSub)
	}
	return c.pubsub, nil
}

func (c *Config) exchangeService() (ExchangeService, error) {
	if c.exchange == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		pubsub, _ := c.pubsubService()
		svc, err := NewExchangeService(
			repo, c.Inventory, pubsub, c.IdempotencyStore,
			exchange.Options{
				ReserveInventory: c.ReserveInventory,
				ExchangeTTL:      c.ExchangeTTL,
			},
		)
		if err != nil {
			return nil, err
		}
		c.exchange = svc
	}
	return c.exchange, nil
}

func (c *Config) queryService() (QueryService, error) {
	if c.query == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		svc, err := NewQueryService(repo)
		if err != nil {
			return nil, err
		}
		c.query = svc
	}
	return c.query, nil
}

func (c *Config) ratingService() (RatingService, error) {
	if c.rating == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		svc, err := NewRatingService(repo)
		if err != nil {
			return nil, err
		}
		c.rating = svc
	}
	return c.rating, nil
}

func (c *Config) expiryService() (ExpiryService, error) {
	if c.expiry == nil {
		exchangeSvc, err := c.exchangeService()
		if err != nil {
			return nil, err
		}
		svc, err := NewExpiryService(exchangeSvc, c.ExpirySweepInterval)
		if err != nil {
			return nil, err
		}
		c.expiry = svc
	}
	return c.expiry, nil
}
