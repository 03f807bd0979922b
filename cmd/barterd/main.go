package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/barterbay/barterd/internal/config"
	"github.com/barterbay/barterd/internal/core/application"
	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/barterbay/barterd/internal/infrastructure/idempotency"
	"github.com/barterbay/barterd/internal/infrastructure/inventory"
	"github.com/barterbay/barterd/internal/infrastructure/pubsub"
	httpinterface "github.com/barterbay/barterd/internal/interfaces/http"
	"github.com/barterbay/barterd/pkg/stats"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	datadir := config.GetDatadir()
	dbDir := filepath.Join(datadir, config.DbLocation)

	inventoryProvider, err := newInventoryProvider()
	if err != nil {
		log.WithError(err).Fatal("failed to init inventory provider")
	}
	webhookPubSub, err := pubsub.NewService(dbDir)
	if err != nil {
		log.WithError(err).Fatal("failed to init pubsub service")
	}
	idempotencyStore, err := idempotency.NewStore(dbDir)
	if err != nil {
		log.WithError(err).Fatal("failed to init idempotency store")
	}

	appConfig := &application.Config{
		DBType:              config.GetString(config.DBTypeKey),
		DBConfig:            config.GetDBConfig(),
		Inventory:           inventoryProvider,
		PubSub:              webhookPubSub,
		IdempotencyStore:    idempotencyStore,
		ReserveInventory:    config.GetBool(config.ReserveInventoryKey),
		ExchangeTTL:         config.GetDuration(config.ExchangeTTLKey),
		ExpirySweepInterval: config.GetDuration(config.ExpirySweepIntervalKey),
	}
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid app config")
	}

	ctx, cancel := context.WithCancel(context.Background())

	if config.GetBool(config.EnableProfilerKey) {
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		stats.EnableMemoryStatistics(
			ctx, interval, filepath.Join(datadir, config.ProfilerLocation),
		)
	}

	appConfig.ExpiryService().Start(ctx)

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Port:        config.GetInt(config.ListeningPortKey),
		JWTSecret:   config.GetString(config.JWTSecretKey),
		CORSOrigins: config.GetStringList(config.CORSOriginsKey),
		ExchangeSvc: appConfig.ExchangeService(),
		QuerySvc:    appConfig.QueryService(),
		RatingSvc:   appConfig.RatingService(),
		PubSubSvc:   appConfig.PubSubService(),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init rest interface")
	}
	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start rest interface")
	}

	log.Infof("barterd started with %s db", appConfig.DBType)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")

	cancel()
	svc.Stop()
	appConfig.ExchangeService().WaitPendingEvents()

	if err := webhookPubSub.Close(); err != nil {
		log.WithError(err).Warn("failed to close pubsub store")
	}
	if err := idempotencyStore.Close(); err != nil {
		log.WithError(err).Warn("failed to close idempotency store")
	}
	appConfig.RepoManager().Close()

	log.Info("exiting")
}

func newInventoryProvider() (ports.InventoryProvider, error) {
	if url := config.GetString(config.InventoryURLKey); url != "" {
		log.Infof("using product catalog at %s", url)
		return inventory.NewCatalogClient(
			url, config.GetInt(config.InventoryRateLimitKey),
		)
	}
	if path := config.GetString(config.InventoryFileKey); path != "" {
		log.Infof("loading products from %s", path)
		return inventory.NewFileProvider(path)
	}

	log.Warn("no inventory source configured, every proposal will be rejected")
	return inventory.NewStaticProvider(), nil
}
