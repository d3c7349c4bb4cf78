package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mpmonitor/internal/server/blobstore"
	"github.com/dmitrijs2005/mpmonitor/internal/server/config"
	"github.com/dmitrijs2005/mpmonitor/internal/server/projects"
	"github.com/dmitrijs2005/mpmonitor/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mpmonitor/internal/server/repositories/users"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Storage groups the metadata stores. DB is nil for the in-memory backend.
type Storage struct {
	DB       *sql.DB
	Projects projects.Store
	Users    users.Repository
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenStorage connects to PostgreSQL and applies migrations, or returns the
// in-memory stores when the DSN is "memory".
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.DatabaseDSN == config.DatabaseMemory {
		return &Storage{Projects: projects.NewMemoryStore(), Users: users.NewMemoryRepository()}, nil
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &Storage{
		DB:       db,
		Projects: projects.NewPostgresStore(db, rm),
		Users:    rm.Users(db),
	}, nil
}

// NewBlobStore builds the configured blob backend and makes sure its
// buckets exist.
func NewBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendMemory:
		return blobstore.NewMemoryStore(cfg.ObjectBaseURL()), nil

	case config.BlobBackendMinio:
		client, err := blobstore.NewMinioClient(cfg.S3BaseEndpoint, cfg.S3RootUser, cfg.S3RootPassword, cfg.S3Region)
		if err != nil {
			return nil, err
		}
		store := blobstore.NewMinioStore(client, cfg.S3Bucket, cfg.DocumentsBucket(), cfg.ObjectBaseURL(), cfg.S3Region)
		if err := store.EnsureBuckets(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.BlobBackendS3, "":
		client, err := blobstore.NewS3Client(ctx, blobstore.S3Options{
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			return nil, err
		}
		store := blobstore.NewS3Store(client, cfg.S3Bucket, cfg.DocumentsBucket(), cfg.ObjectBaseURL())
		if err := store.EnsureBuckets(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// RedisEnabled reports whether a Redis address is configured.
func RedisEnabled(cfg *config.Config) bool {
	return cfg.RedisAddr != ""
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
}

func AsynqRedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
}
