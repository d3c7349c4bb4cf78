// Package server wires the mpmonitor components together and runs the HTTP
// API and the gRPC health service until the process is signaled.
package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server/attachments"
	"github.com/dmitrijs2005/mpmonitor/internal/server/auth"
	"github.com/dmitrijs2005/mpmonitor/internal/server/config"
	"github.com/dmitrijs2005/mpmonitor/internal/server/httpapi"
	"github.com/dmitrijs2005/mpmonitor/internal/server/projects"
	"github.com/dmitrijs2005/mpmonitor/internal/server/reaper"
	"github.com/dmitrijs2005/mpmonitor/internal/server/users"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/mpmonitor/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	storage        *Storage
	redis          *redis.Client
	queue          *asynq.Client
	userService    *users.Service
	projectService *projects.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, os.Stdout)
	app := &App{config: c, logger: logger}

	storage, err := OpenStorage(ctx, c)
	if err != nil {
		return nil, err
	}
	app.storage = storage

	blobs, err := NewBlobStore(ctx, c)
	if err != nil {
		app.Close()
		return nil, err
	}

	var revoker auth.Revoker = auth.NewMemoryRevoker()
	opts := []attachments.Option{
		attachments.WithBlobTimeout(c.BlobTimeout),
		attachments.WithRepoTimeout(c.DBTimeout),
	}
	if RedisEnabled(c) {
		app.redis = NewRedisClient(c)
		app.queue = asynq.NewClient(AsynqRedisOpt(c))
		revoker = auth.NewRedisRevoker(app.redis)
		opts = append(opts, attachments.WithOrphanSink(reaper.NewEnqueuer(app.queue, c.ReaperMaxRetry)))
	} else {
		logger.Warn(ctx, "redis not configured: revocations are process-local and orphans are only logged")
	}

	coordinator := attachments.NewCoordinator(blobs, storage.Projects, logger.With("module", "attachments"), opts...)
	app.projectService = projects.NewService(storage.Projects, coordinator, auth.OwnerPolicy{}, logger.With("module", "projects"))
	app.userService = users.NewService(storage.Users, revoker, auth.OwnerPolicy{}, c, logger.With("module", "users"))

	if c.AdminUsername != "" && c.AdminPassword != "" {
		created, err := app.userService.EnsureAdmin(ctx, c.AdminUsername, c.AdminPassword, c.AdminRole)
		if err != nil {
			app.Close()
			return nil, err
		}
		if created {
			logger.Info(ctx, "admin account created", "username", c.AdminUsername)
		}
	}

	return app, nil
}

// health checks the backing services that can go away at runtime.
func (app *App) health(ctx context.Context) error {
	if app.storage.DB != nil {
		if err := app.storage.DB.PingContext(ctx); err != nil {
			return err
		}
	}
	if app.redis != nil {
		if err := app.redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	router := httpapi.NewRouter(httpapi.Deps{
		Projects:       app.projectService,
		Users:          app.userService,
		Logger:         app.logger,
		MaxUploadSize:  app.config.MaxUploadSize,
		AllowedOrigins: app.config.AllowedOrigins,
		Health:         app.health,
	})
	httpServer := httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger)
	grpcServer := gs.NewServer(app.config.EndpointAddrGRPC, app.logger, app.health)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(ctx) })
	g.Go(func() error { return grpcServer.Run(ctx) })

	err := g.Wait()
	app.Close()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

// Close releases the connections held by the app.
func (app *App) Close() error {
	var errs []error
	if app.queue != nil {
		errs = append(errs, app.queue.Close())
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.storage != nil {
		errs = append(errs, app.storage.Close())
	}
	return errors.Join(errs...)
}
