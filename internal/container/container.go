package container

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/catnav/internal/client"
	"storefront/catnav/internal/config"
	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/httpapi"
	"storefront/catnav/internal/menu"
	"storefront/catnav/internal/queue"
	"storefront/catnav/internal/repository"
	"storefront/catnav/internal/service"
	"storefront/catnav/internal/state"
	"storefront/catnav/internal/upstream"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Client     client.CatalogClient
	Repository repository.SelectionRepository
	Queue      queue.Queue
	TreeCache  state.TreeCache

	Service *service.Service
	Server  *http.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	// Initialize EndpointSupplier
	var endpoints upstream.EndpointSupplier
	if len(cfg.Catalog.Endpoints) > 0 {
		endpoints = upstream.NewEndpointSupplier(ctx, cfg.Catalog.Endpoints, cfg.Catalog.HealthPath)
	} else {
		endpoints = upstream.NewStaticSupplier(cfg.Catalog.BaseURL)
	}
	catalogClient := client.NewCatalogClient(cfg.Catalog, endpoints)
	container.Client = catalogClient

	// Initialize repository
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	container.db = db

	selectionRepo := repository.NewSelectionRepository(db)
	if err := selectionRepo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	container.Repository = selectionRepo

	log.Info("✅ Connected to Postgres successfully")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	// Test connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	container.redis = rdb

	log.Info("✅ Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Queue = redisQueue

	treeCache := state.NewRedisTreeCache(rdb)
	container.TreeCache = treeCache

	roots := map[domain.MenuRoot]domain.CategoryID{
		domain.MenuRootPrimary: domain.CategoryID(cfg.Catalog.RootID),
	}
	if cfg.Catalog.TrendingRootID > 0 {
		roots[domain.MenuRootTrending] = domain.CategoryID(cfg.Catalog.TrendingRootID)
	}

	container.Service = service.NewService(
		selectionRepo,
		catalogClient,
		redisQueue,
		treeCache,
		service.Options{
			Roots:              roots,
			Icons:              menu.NewIconSet(cfg.Menu.Icons, cfg.Menu.IconTable, cfg.Menu.PlaceholderIcon),
			Gated:              cfg.Menu.Gated,
			TreeTTL:            time.Duration(cfg.Catalog.TreeTTL) * time.Second,
			GroupName:          cfg.Redis.ConsumerGroup,
			MinIdleTime:        time.Duration(cfg.Redis.MinIdleTime) * time.Second,
			SessionIdleTimeout: time.Duration(cfg.Session.IdleTimeout) * time.Second,
		},
	)

	container.Server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           httpapi.NewRouter(container.Service, time.Duration(cfg.Server.RequestTimeout)*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return container, nil
}

// Run serves HTTP and runs the background workers until ctx is done
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// A cold cache is not fatal, menus load on first request
	g.Go(func() error {
		if err := c.Service.WarmUp(ctx); err != nil {
			log.Warnf("⚠️ Warm-up incomplete: %v", err)
		}
		return nil
	})

	// Run workers to process tasks
	g.Go(func() error {
		return c.Service.RunWorkers(ctx, service.WorkerCounts{
			Selection: c.Config.Workers.Selection,
			Refresh:   c.Config.Workers.Refresh,
		})
	})

	g.Go(func() error {
		return c.Service.ScheduleRefresh(ctx)
	})

	g.Go(func() error {
		interval := time.Duration(c.Config.Session.JanitorInterval) * time.Second
		if interval <= 0 {
			interval = time.Minute
		}
		return c.Service.RunSessionJanitor(ctx, interval)
	})

	g.Go(func() error {
		log.Infof("🚀 Listening on %s", c.Server.Addr)
		if err := c.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		timeout := time.Duration(c.Config.Server.ShutdownTimeout) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return c.Server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("⚠️ Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
