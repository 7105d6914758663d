package runtime

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/architeacher/workpackages/pkg/circuitbreaker"
	"github.com/architeacher/workpackages/pkg/decorator"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/pkg/metrics/noop"
	"github.com/architeacher/workpackages/pkg/metrics/prometheus"
	inboundhttp "github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/inbound/http"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/repos"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/infrastructure"
	infraPostgres "github.com/architeacher/workpackages/services/svc-workpackages/internal/infrastructure/postgres"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/services"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases"
	"github.com/hashicorp/vault/api"
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithSecretsRepository(),
		WithSecrets(ctx),
		WithLogger(),
		WithTracing(ctx),
		WithMetrics(),
		WithDatabase(ctx),
		WithCache(),
		WithRepositories(),
		WithServices(),
		WithApplication(),
		WithHTTPServer(),
	}
}

// migrationOptions resolve just enough to reach the database.
func migrationOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithSecretsRepository(),
		WithSecrets(ctx),
		WithLogger(),
	}
}

func WithConfig() DependencyOption {
	return func(d *dependencies) error {
		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

func WithSecretsRepository() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.SecretsStorage.Enabled {
			return nil
		}

		vaultConfig := api.DefaultConfig()
		vaultConfig.Address = d.config.SecretsStorage.Address
		vaultConfig.Timeout = d.config.SecretsStorage.Timeout
		vaultConfig.MaxRetries = int(d.config.SecretsStorage.MaxRetries)

		if d.config.SecretsStorage.TLSSkipVerify {
			vaultConfig.HttpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in for local vault
			}
		}

		client, err := api.NewClient(vaultConfig)
		if err != nil {
			return fmt.Errorf("creating Vault client: %w", err)
		}

		if d.config.SecretsStorage.Namespace != "" {
			client.SetNamespace(d.config.SecretsStorage.Namespace)
		}

		d.repos.secretsRepo = repos.NewVaultRepository(client)

		return nil
	}
}

// WithSecrets overlays vault credentials on the configuration. It must run
// before any option that opens a connection.
func WithSecrets(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.SecretsStorage.Enabled || d.repos.secretsRepo == nil {
			return nil
		}

		if err := config.LoadSecrets(ctx, d.repos.secretsRepo, d.config); err != nil {
			return fmt.Errorf("loading secrets from Vault: %w", err)
		}

		return nil
	}
}

func WithLogger() DependencyOption {
	return func(d *dependencies) error {
		d.infra.logger = logger.New(d.config.Logging.Level, d.config.Logging.Format)

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Traces.Enabled {
			d.infra.tracerProvider = infrastructure.NewNoopTracerProvider()

			return nil
		}

		tp, shutdown, err := infrastructure.NewTracerProvider(ctx, d.config.App, d.config.Telemetry)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}

		d.infra.tracerProvider = tp
		d.cleanupFuncs["tracer"] = shutdown

		return nil
	}
}

func WithMetrics() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Metrics.Enabled {
			d.infra.metricsClient = noop.NewMetricsClient()

			return nil
		}

		client := prometheus.NewClient(d.config.Telemetry.Metrics.Namespace)
		d.infra.metricsClient = client
		d.cleanupFuncs["metrics"] = client.Shutdown

		return nil
	}
}

func WithDatabase(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if d.config.Storage.Driver == config.StorageDriverMemory {
			return nil
		}

		if d.config.Database.MigrateOnStart {
			if err := infraPostgres.Migrate(d.config.Database, d.infra.logger); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
		}

		pool, err := infraPostgres.NewPool(ctx, d.config.Database, d.config.Backoff, d.infra.logger)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		d.infra.dbPool = pool
		d.cleanupFuncs["database"] = func(context.Context) error {
			pool.Close()

			return nil
		}

		return nil
	}
}

// WithCache connects to KeyDB, which backs the project values cache and the
// rate limiter. Both are left unset when caching is disabled.
func WithCache() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Cache.Enabled {
			return nil
		}

		client := infrastructure.NewKeyDBClient(d.config.Cache, d.infra.logger)
		d.infra.cacheClient = client
		d.cleanupFuncs["cache"] = func(context.Context) error {
			return client.Close()
		}

		if d.config.ProjectValuesCache.Enabled {
			d.repos.projectValuesCache = repos.NewProjectValuesCacheRepository(client, d.infra.logger)
		}

		if d.config.ThrottledRateLimiting.Enabled {
			d.repos.rateLimitStore = repos.NewRateLimitStore(client)
		}

		return nil
	}
}

func WithRepositories() DependencyOption {
	return func(d *dependencies) error {
		switch d.config.Storage.Driver {
		case config.StorageDriverMemory:
			return withInMemoryStore(d)
		case "", config.StorageDriverPostgres:
		default:
			return fmt.Errorf("unknown storage driver %q", d.config.Storage.Driver)
		}

		scanner := repos.NewPgxScanner()
		translatorLogger := d.infra.logger.Component("criteria_translator")
		breaker := breakerConfig(d.config.CircuitBreaker)

		workPackages := repos.NewWorkPackagesRepository(
			d.infra.dbPool,
			scanner,
			repos.NewCriteriaTranslator(&translatorLogger),
			d.infra.logger,
		)
		access := repos.NewAccessRepository(d.infra.dbPool, scanner, d.infra.logger)

		d.repos.workPackages = repos.NewResilientWorkPackageRepository(workPackages, breaker, d.infra.logger)
		d.repos.access = repos.NewResilientAccessRepository(access, breaker, d.infra.logger)
		d.repos.viewers = access

		return nil
	}
}

func withInMemoryStore(d *dependencies) error {
	store := repos.NewInMemoryRepository()

	if path := d.config.Storage.SeedFile; path != "" {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening storage seed: %w", err)
		}
		defer file.Close()

		store, err = repos.LoadInMemoryRepository(file)
		if err != nil {
			return fmt.Errorf("loading storage seed %s: %w", path, err)
		}
	}

	d.repos.workPackages = store
	d.repos.access = store
	d.repos.viewers = store

	d.infra.logger.Warn().
		Str("seed_file", d.config.Storage.SeedFile).
		Msg("serving work packages from the in-memory store")

	return nil
}

func WithServices() DependencyOption {
	return func(d *dependencies) error {
		policy := services.NewMembershipVisibilityPolicy(
			d.repos.access,
			d.config.Permissions,
			d.config.Query.IncludeSubprojects,
		)

		d.services.executor = services.NewWorkPackageQueryExecutor(policy, d.repos.workPackages)
		d.services.projectFilters = services.NewProjectFilterService(policy)

		healthOpts := []services.HealthOption{
			services.WithDependency("database", d.repos.workPackages, true),
		}

		if d.infra.cacheClient != nil {
			healthOpts = append(healthOpts, services.WithDependency("cache", d.infra.cacheClient, false))
		}

		d.services.healthChecker = services.NewHealthService(d.config.App.APIVersion, healthOpts...)

		return nil
	}
}

func WithApplication() DependencyOption {
	return func(d *dependencies) error {
		d.app = usecases.NewApplication(
			d.services.executor,
			d.services.projectFilters,
			d.repos.projectValuesCache,
			decorator.CacheConfig{
				Enabled: d.config.ProjectValuesCache.Enabled && d.repos.projectValuesCache != nil,
				TTL:     d.config.ProjectValuesCache.TTL,
			},
			d.services.healthChecker,
			d.infra.logger,
			d.infra.metricsClient,
			d.infra.tracerProvider,
		)

		return nil
	}
}

func WithHTTPServer() DependencyOption {
	return func(d *dependencies) error {
		router := inboundhttp.NewRouter(inboundhttp.RouterConfig{
			App:            d.app,
			Viewers:        d.repos.viewers,
			RateLimitStore: d.repos.rateLimitStore,
			Logger:         d.infra.logger,
			MetricsClient:  d.infra.metricsClient,
			TracerProvider: d.infra.tracerProvider,
			Config:         d.config,
		})

		d.infra.httpServer = &http.Server{
			Addr:              net.JoinHostPort(d.config.HTTPServer.Host, strconv.FormatUint(uint64(d.config.HTTPServer.Port), 10)),
			Handler:           router,
			ReadTimeout:       d.config.HTTPServer.ReadTimeout,
			ReadHeaderTimeout: d.config.HTTPServer.ReadTimeout,
			WriteTimeout:      d.config.HTTPServer.WriteTimeout,
			IdleTimeout:       d.config.HTTPServer.IdleTimeout,
		}
		d.cleanupFuncs["http_server"] = d.infra.httpServer.Shutdown

		return nil
	}
}

func breakerConfig(cfg config.CircuitBreaker) circuitbreaker.Config {
	return circuitbreaker.Config{
		Enabled:          cfg.Enabled,
		MaxRequests:      cfg.MaxRequests,
		Interval:         cfg.Interval,
		Timeout:          cfg.Timeout,
		FailureThreshold: cfg.FailureThreshold,
	}
}
