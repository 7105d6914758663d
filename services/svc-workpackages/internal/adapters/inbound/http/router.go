package http

import (
	"net/http"

	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/pkg/metrics"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/inbound/http/handlers"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/throttled/throttled/v2"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const baseURL = "/api/v3"

type RouterConfig struct {
	App     *usecases.Application
	Viewers ports.ViewerRepository
	// RateLimitStore may be nil, which disables rate limiting.
	RateLimitStore throttled.GCRAStoreCtx
	Logger         logger.Logger
	MetricsClient  metrics.Client
	TracerProvider otelTrace.TracerProvider
	Config         *config.ServiceConfig
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestTracking())
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(chimiddleware.Timeout(cfg.Config.HTTPServer.RequestTimeout))
	router.Use(middleware.SecurityHeaders(cfg.Config.App.APIVersion))
	router.Use(middleware.CORS(cfg.Config.Auth.AllowedOrigins))

	if cfg.Config.Telemetry.Traces.Enabled {
		router.Use(middleware.Tracer(cfg.Config.App.ServiceName, cfg.TracerProvider))
		cfg.Logger.Info().Msg("distributed tracing enabled")
	}

	if cfg.Config.Telemetry.Metrics.Enabled {
		router.Use(middleware.NewMetricsMiddleware(cfg.MetricsClient).Middleware)
		cfg.Logger.Info().Msg("HTTP metrics collection enabled")
	}

	if cfg.Config.Logging.AccessLog.Enabled {
		router.Use(middleware.NewHealthCheckFilter(cfg.Config.Logging.AccessLog.LogHealthChecks).Middleware)
		router.Use(middleware.AccessLogger(cfg.Logger, cfg.Config.Logging.AccessLog.IncludeQueryParams))
		cfg.Logger.Info().
			Bool("log_health_checks", cfg.Config.Logging.AccessLog.LogHealthChecks).
			Msg("structured access logging enabled")
	}

	if cfg.Config.ThrottledRateLimiting.Enabled && cfg.RateLimitStore != nil {
		router.Use(middleware.RateLimiting(cfg.Config.ThrottledRateLimiting, cfg.RateLimitStore, cfg.Logger))
		cfg.Logger.Info().
			Uint("requests_per_second", cfg.Config.ThrottledRateLimiting.RequestsPerSecond).
			Uint("burst_size", cfg.Config.ThrottledRateLimiting.BurstSize).
			Msg("rate limiting enabled")
	}

	router.Use(middleware.Compression(cfg.Config.Compression))

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrorNotFound, "The requested resource could not be found.", "")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.ErrorInvalidQuery, "The method is not allowed for this resource.", "")
	})

	handler := handlers.NewHandler(cfg.App, cfg.Config.Query, cfg.Logger)

	router.Get("/health", handler.GetHealth)
	router.Get("/liveness", handler.GetLiveness)
	router.Get("/readiness", handler.GetReadiness)

	if cfg.Config.Telemetry.Metrics.Enabled {
		router.Method(http.MethodGet, "/metrics", cfg.MetricsClient.Handler())
	}

	router.Get(baseURL+"/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(handlers.OpenAPIDocument())
	})

	swagger, err := handlers.GetSwagger()
	if err != nil {
		cfg.Logger.Fatal().Err(err).Msg("failed to load OpenAPI document")
	}

	router.Group(func(api chi.Router) {
		api.Use(middleware.OapiRequestValidator(cfg.Logger, swagger, middleware.RequestValidatorOptions{
			Options: openapi3filter.Options{
				ExcludeRequestBody: true,
				MultiError:         false,
			},
		}))
		api.Use(middleware.Authentication(cfg.Viewers, cfg.Config.Auth.TrustViewerHeader, cfg.Logger))
		api.Use(middleware.CacheStatus())
		api.Use(middleware.ConditionalGET())

		handlers.HandlerWithOptions(handler, handlers.ChiServerOptions{
			BaseRouter:       api,
			BaseURL:          baseURL,
			ErrorHandlerFunc: handlers.ParamErrorHandler,
		})
	})

	return router
}
