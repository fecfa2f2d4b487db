package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/authz"
	s3blob "betpool/internal/blob/s3"
	"betpool/internal/cache/redis"
	"betpool/internal/config"
	"betpool/internal/domain"
	"betpool/internal/engine"
	"betpool/internal/store/postgres"
	"betpool/internal/transfer"
)

// Dependencies bundles every dependency the application modes need to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Settlement core
	Gate   *authz.Gate
	Ledger *transfer.MemoryLedger
	Engine *engine.Engine

	// Stores
	RecordStore   domain.RecordStore
	SnapshotStore domain.SnapshotStore

	// Caches
	OddsCache domain.OddsCache
	SignalBus domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	Archiver   domain.Archiver
}

// needsS3 returns true for modes that require object storage.
func needsS3(cfg *config.Config) bool {
	return cfg.Mode == "full" || cfg.Archive.Enabled
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (settlement journal) ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.RecordStore = postgres.NewRecordStore(pool)
	deps.SnapshotStore = postgres.NewSnapshotStore(pool)

	// --- Redis (odds cache + signal bus) ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	oddsTTL := 5 * time.Second
	if cfg.Redis.OddsTTLSeconds > 0 {
		oddsTTL = time.Duration(cfg.Redis.OddsTTLSeconds) * time.Second
	}
	deps.OddsCache = redis.NewOddsCache(redisClient, oddsTTL)
	deps.SignalBus = redis.NewSignalBus(redisClient, int64(cfg.Redis.StreamMaxLen))

	// --- S3 blob storage (only for modes that archive) ---
	if needsS3(cfg) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.RecordStore, deps.SnapshotStore)
	}

	// --- Capability gate + operator set ---
	gate := authz.NewGate(common.HexToAddress(cfg.Engine.Authority))
	for _, raw := range cfg.Engine.Admins {
		if err := gate.AddAdmin(common.HexToAddress(raw)); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: seed admin %s: %w", raw, err)
		}
	}
	deps.Gate = gate

	// --- Transfer ledger ---
	ledger := transfer.NewMemoryLedger()
	for _, raw := range cfg.Engine.DevFunding {
		ledger.Credit(common.HexToAddress(raw), cfg.Engine.DevFundingAmount)
	}
	deps.Ledger = ledger

	// --- Settlement engine ---
	eng := engine.New(engine.Options{
		Gate:     gate,
		Transfer: ledger,
		Sink:     newRecordFanout(deps.RecordStore, deps.SignalBus),
		Admins:   gate,
		Logger:   logger,
	})
	if err := eng.ConfigureFeeTransfer(ledger); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: configure fee transfer: %w", err)
	}
	deps.Engine = eng

	return deps, cleanup, nil
}
