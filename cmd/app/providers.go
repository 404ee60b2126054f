package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/aduba/internal/domain/auth"
	"github.com/yanqian/aduba/internal/domain/events"
	"github.com/yanqian/aduba/internal/domain/reading"
	"github.com/yanqian/aduba/internal/domain/settings"
	"github.com/yanqian/aduba/internal/infra/config"
	"github.com/yanqian/aduba/internal/infra/eventrepo"
	"github.com/yanqian/aduba/internal/infra/readingbus"
	"github.com/yanqian/aduba/internal/infra/readingrepo"
	"github.com/yanqian/aduba/internal/infra/settingsrepo"
	"github.com/yanqian/aduba/internal/infra/tokenstore"
	"github.com/yanqian/aduba/internal/infra/userrepo"
	"github.com/yanqian/aduba/pkg/metrics"
)

const setupTimeout = 5 * time.Second

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		DefaultDeviceID: cfg.Readings.DefaultDeviceID,
	}
}

func provideReadingConfig(cfg *config.Config) reading.Config {
	return reading.Config{
		DefaultDeviceID: cfg.Readings.DefaultDeviceID,
		StatsDays:       cfg.Readings.StatsDays,
		HistoryLimit:    cfg.Readings.HistoryLimit,
		SheetTitle:      cfg.Readings.ExportSheetTitle,
	}
}

func provideMetrics() *metrics.Registry {
	return metrics.NewRegistry()
}

func provideGenerator() *reading.Generator {
	return reading.NewGenerator(nil)
}

func provideSettingsService(cfg *config.Config, repo settings.Repository, logger *slog.Logger) settings.Service {
	return settings.NewService(cfg.Readings.DefaultDeviceID, repo, logger)
}

// storage holds whichever database connection the repositories share. Both
// handles are nil when running on memory.
type storage struct {
	pool  *pgxpool.Pool
	mongo *mongo.Database
}

func provideStorage(cfg *config.Config, logger *slog.Logger) (*storage, func()) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if pool := openPostgres(cfg.Storage.Postgres, logger); pool != nil {
			logger.Info("postgres storage enabled")
			return &storage{pool: pool}, pool.Close
		}
	case config.StorageMongo:
		if client := openMongo(cfg.Storage.Mongo, logger); client != nil {
			logger.Info("mongo storage enabled", "database", cfg.Storage.Mongo.Database)
			cleanup := func() {
				ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
				defer cancel()
				if err := client.Disconnect(ctx); err != nil {
					logger.Warn("mongo disconnect failed", "error", err)
				}
			}
			return &storage{mongo: client.Database(cfg.Storage.Mongo.Database)}, cleanup
		}
	default:
		logger.Info("using memory storage")
	}
	return &storage{}, func() {}
}

func openPostgres(cfg config.PostgresConfig, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory storage")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory storage", "error", err)
		return nil
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory storage", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory storage", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

func openMongo(cfg config.MongoConfig, logger *slog.Logger) *mongo.Client {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		logger.Error("failed to connect to mongo, using memory storage", "error", err)
		return nil
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Error("mongo ping failed, using memory storage", "error", err)
		_ = client.Disconnect(context.Background())
		return nil
	}
	return client
}

func provideUserRepository(st *storage) (auth.Repository, error) {
	switch {
	case st.pool != nil:
		return userrepo.NewPostgresRepository(st.pool), nil
	case st.mongo != nil:
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		repo, err := userrepo.NewMongoRepository(ctx, st.mongo)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return userrepo.NewMemoryRepository(), nil
}

func provideReadingRepository(st *storage) (reading.Repository, error) {
	switch {
	case st.pool != nil:
		return readingrepo.NewPostgresRepository(st.pool), nil
	case st.mongo != nil:
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		repo, err := readingrepo.NewMongoRepository(ctx, st.mongo)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return readingrepo.NewMemoryRepository(), nil
}

func provideSettingsRepository(st *storage) (settings.Repository, error) {
	switch {
	case st.pool != nil:
		return settingsrepo.NewPostgresRepository(st.pool), nil
	case st.mongo != nil:
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		repo, err := settingsrepo.NewMongoRepository(ctx, st.mongo)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return settingsrepo.NewMemoryRepository(), nil
}

func provideEventRepository(st *storage) (events.Repository, error) {
	switch {
	case st.pool != nil:
		return eventrepo.NewPostgresRepository(st.pool), nil
	case st.mongo != nil:
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		repo, err := eventrepo.NewMongoRepository(ctx, st.mongo)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return eventrepo.NewMemoryRepository(), nil
}

func provideRevocations(cfg *config.Config, logger *slog.Logger) (auth.Revocations, func()) {
	if cfg.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory revocations", "error", err)
			return tokenstore.NewMemoryStore(), func() {}
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory revocations", "error", err)
			return tokenstore.NewMemoryStore(), func() {}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory revocations", "error", err)
			client.Close()
		} else {
			logger.Info("valkey token revocations enabled", "addr", cfg.Valkey.Addr)
			store := tokenstore.NewValkeyStore(client, cfg.Valkey.Prefix)
			return store, store.Close
		}
	}
	return tokenstore.NewMemoryStore(), func() {}
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// providePublisher returns nil when no publisher is configured or the broker
// cannot be reached; readings are still persisted in that case.
func providePublisher(cfg *config.Config, logger *slog.Logger) (reading.Publisher, func()) {
	var (
		pub reading.Publisher
		err error
	)
	switch cfg.Publisher.Driver {
	case config.PublisherMQTT:
		mqttCfg := cfg.Publisher.MQTT
		pub, err = newMQTT(readingbus.MQTTConfig{
			Broker:      mqttCfg.Broker,
			ClientID:    mqttCfg.ClientID,
			Username:    mqttCfg.Username,
			Password:    mqttCfg.Password,
			TopicPrefix: mqttCfg.TopicPrefix,
			QoS:         mqttCfg.QoS,
		})
	case config.PublisherKafka:
		pub, err = newKafka(readingbus.KafkaConfig{
			Brokers: cfg.Publisher.Kafka.Brokers,
			Topic:   cfg.Publisher.Kafka.Topic,
		})
	default:
		return nil, func() {}
	}
	if err != nil {
		logger.Error("reading publisher unavailable, readings will not be announced",
			"driver", cfg.Publisher.Driver, "error", err)
		return nil, func() {}
	}
	logger.Info("reading publisher enabled", "driver", pub.Name())
	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Warn("reading publisher close failed", "error", err)
		}
	}
}

func newMQTT(cfg readingbus.MQTTConfig) (reading.Publisher, error) {
	pub, err := readingbus.NewMQTTPublisher(cfg)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

func newKafka(cfg readingbus.KafkaConfig) (reading.Publisher, error) {
	pub, err := readingbus.NewKafkaPublisher(cfg)
	if err != nil {
		return nil, err
	}
	return pub, nil
}
