package config

import "time"

// Compile time variables are set by -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

const (
	Development = 1 << iota
	Sandbox
	Staging
	Production
)

type (
	ServiceConfig struct {
		App                   App                   `json:"app"`
		SecretsStorage        SecretsStorage        `json:"secrets_storage"`
		HTTPServer            HTTPServer            `json:"http_server"`
		Auth                  Auth                  `json:"auth"`
		Storage               Storage               `json:"storage"`
		Database              Database              `json:"database"`
		Backoff               Backoff               `json:"backoff"`
		CircuitBreaker        CircuitBreaker        `json:"circuit_breaker"`
		Cache                 Cache                 `json:"cache"`
		ProjectValuesCache    ProjectValuesCache    `json:"project_values_cache"`
		Query                 Query                 `json:"query"`
		Permissions           Permissions           `json:"permissions"`
		ThrottledRateLimiting ThrottledRateLimiting `json:"throttled_rate_limiting"`
		Compression           Compression           `json:"compression"`
		Logging               Logging               `json:"logging"`
		Telemetry             Telemetry             `json:"telemetry"`
	}

	App struct {
		ServiceName    string      `envconfig:"APP_SERVICE_NAME" default:"svc-workpackages" json:"service_name"`
		APIVersion     string      `envconfig:"APP_API_VERSION" default:"v3" json:"api_version"`
		ServiceVersion string      `envconfig:"APP_SERVICE_VERSION" default:"dev" json:"service_version"`
		CommitSHA      string      `envconfig:"APP_COMMIT_SHA" default:"" json:"commit_sha"`
		Env            Environment `json:"environment"`
	}

	Environment struct {
		Name string `envconfig:"APP_ENVIRONMENT" default:"development" json:"env"`
	}

	SecretsStorage struct {
		Enabled       bool          `envconfig:"VAULT_ENABLED" default:"false" json:"enabled"`
		Address       string        `envconfig:"VAULT_ADDRESS" default:"http://vault:8200" json:"address"`
		Token         string        `envconfig:"VAULT_TOKEN" default:"" json:"-"`
		RoleID        string        `envconfig:"VAULT_ROLE_ID" default:"" json:"-"`
		SecretID      string        `envconfig:"VAULT_SECRET_ID" default:"" json:"-"`
		AuthMethod    string        `envconfig:"VAULT_AUTH_METHOD" default:"token" json:"auth_method"`
		MountPath     string        `envconfig:"VAULT_MOUNT_PATH" default:"svc-workpackages" json:"mount_path"`
		Namespace     string        `envconfig:"VAULT_NAMESPACE" default:"" json:"namespace,omitempty"`
		Timeout       time.Duration `envconfig:"VAULT_TIMEOUT" default:"30s" json:"timeout"`
		MaxRetries    uint          `envconfig:"VAULT_MAX_RETRIES" default:"3" json:"max_retries"`
		TLSSkipVerify bool          `envconfig:"VAULT_TLS_SKIP_VERIFY" default:"false" json:"tls_skip_verify"`
	}

	HTTPServer struct {
		Host            string        `envconfig:"HTTP_SERVER_HOST" default:"0.0.0.0" json:"host"`
		Port            uint          `envconfig:"HTTP_SERVER_PORT" default:"8080" json:"port"`
		ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s" json:"write_timeout"`
		IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s" json:"idle_timeout"`
		RequestTimeout  time.Duration `envconfig:"HTTP_REQUEST_TIMEOUT" default:"25s" json:"request_timeout"`
		ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s" json:"shutdown_timeout"`
	}

	Auth struct {
		// TrustViewerHeader accepts X-Viewer-Id from a fronting gateway that
		// already authenticated the caller.
		TrustViewerHeader bool     `envconfig:"AUTH_TRUST_VIEWER_HEADER" default:"false" json:"trust_viewer_header"`
		AllowedOrigins    []string `envconfig:"AUTH_ALLOWED_ORIGINS" default:"*" json:"allowed_origins"`
	}

	// Storage selects where work packages are read from. The memory driver
	// serves a store seeded from SeedFile and opens no database connection.
	Storage struct {
		Driver   string `envconfig:"STORAGE_DRIVER" default:"postgres" json:"driver"`
		SeedFile string `envconfig:"STORAGE_SEED_FILE" default:"" json:"seed_file,omitempty"`
	}

	Database struct {
		Host             string        `envconfig:"POSTGRES_HOST" default:"postgres" json:"host"`
		Port             uint          `envconfig:"POSTGRES_PORT" default:"5432" json:"port"`
		Database         string        `envconfig:"POSTGRES_DATABASE" default:"workpackages" json:"database"`
		Username         string        `envconfig:"POSTGRES_USERNAME" default:"postgres" json:"username"`
		Password         string        `envconfig:"POSTGRES_PASSWORD" default:"" json:"-"`
		SSLMode          string        `envconfig:"POSTGRES_SSL_MODE" default:"disable" json:"ssl_mode"`
		MaxConnections   int32         `envconfig:"POSTGRES_MAX_CONNECTIONS" default:"25" json:"max_connections"`
		MinConnections   int32         `envconfig:"POSTGRES_MIN_CONNECTIONS" default:"5" json:"min_connections"`
		ConnectTimeout   time.Duration `envconfig:"POSTGRES_CONNECT_TIMEOUT" default:"10s" json:"connect_timeout"`
		StatementTimeout time.Duration `envconfig:"POSTGRES_STATEMENT_TIMEOUT" default:"20s" json:"statement_timeout"`
		MaxConnLifetime  time.Duration `envconfig:"POSTGRES_MAX_CONN_LIFETIME" default:"1h" json:"max_conn_lifetime"`
		MaxConnIdleTime  time.Duration `envconfig:"POSTGRES_MAX_CONN_IDLE_TIME" default:"30m" json:"max_conn_idle_time"`
		MigrateOnStart   bool          `envconfig:"POSTGRES_MIGRATE_ON_START" default:"false" json:"migrate_on_start"`
	}

	Backoff struct {
		BaseDelay  time.Duration `envconfig:"BACKOFF_BASE_DELAY" default:"1s" json:"base_delay"`
		Multiplier float64       `envconfig:"BACKOFF_MULTIPLIER" default:"1.5" json:"multiplier"`
		Jitter     float64       `envconfig:"BACKOFF_JITTER" default:"0.3" json:"jitter"`
		MaxDelay   time.Duration `envconfig:"BACKOFF_MAX_DELAY" default:"10s" json:"max_delay"`
		MaxTries   uint          `envconfig:"BACKOFF_MAX_TRIES" default:"5" json:"max_tries"`
	}

	CircuitBreaker struct {
		Enabled          bool          `envconfig:"DB_CB_ENABLED" default:"true" json:"enabled"`
		MaxRequests      uint          `envconfig:"DB_CB_MAX_REQUESTS" default:"5" json:"max_requests"`
		Interval         time.Duration `envconfig:"DB_CB_INTERVAL" default:"60s" json:"interval"`
		Timeout          time.Duration `envconfig:"DB_CB_TIMEOUT" default:"30s" json:"timeout"`
		FailureThreshold uint          `envconfig:"DB_CB_FAILURE_THRESHOLD" default:"5" json:"failure_threshold"`
	}

	Cache struct {
		Enabled      bool          `envconfig:"CACHE_ENABLED" default:"true" json:"enabled"`
		Address      string        `envconfig:"CACHE_ADDRESS" default:"keydb:6379" json:"address"`
		Password     string        `envconfig:"CACHE_PASSWORD" default:"" json:"-"`
		DB           uint          `envconfig:"CACHE_DB" default:"0" json:"db"`
		PoolSize     uint          `envconfig:"CACHE_POOL_SIZE" default:"10" json:"pool_size"`
		MinIdleConns uint          `envconfig:"CACHE_MIN_IDLE_CONNS" default:"3" json:"min_idle_conns"`
		DialTimeout  time.Duration `envconfig:"CACHE_DIAL_TIMEOUT" default:"5s" json:"dial_timeout"`
		ReadTimeout  time.Duration `envconfig:"CACHE_READ_TIMEOUT" default:"3s" json:"read_timeout"`
		WriteTimeout time.Duration `envconfig:"CACHE_WRITE_TIMEOUT" default:"3s" json:"write_timeout"`
		PoolTimeout  time.Duration `envconfig:"CACHE_POOL_TIMEOUT" default:"5s" json:"pool_timeout"`
		MaxRetries   uint          `envconfig:"CACHE_MAX_RETRIES" default:"3" json:"max_retries"`
	}

	ProjectValuesCache struct {
		Enabled bool          `envconfig:"PROJECT_VALUES_CACHE_ENABLED" default:"true" json:"enabled"`
		TTL     time.Duration `envconfig:"PROJECT_VALUES_CACHE_TTL" default:"1m" json:"ttl"`
		MaxAge  uint          `envconfig:"PROJECT_VALUES_CACHE_MAX_AGE" default:"30" json:"max_age"`
	}

	Query struct {
		DefaultPageSize    uint   `envconfig:"QUERY_DEFAULT_PAGE_SIZE" default:"20" json:"default_page_size"`
		MaxPageSize        uint   `envconfig:"QUERY_MAX_PAGE_SIZE" default:"1000" json:"max_page_size"`
		Currency           string `envconfig:"QUERY_CURRENCY" default:"EUR" json:"currency"`
		IncludeSubprojects bool   `envconfig:"QUERY_INCLUDE_SUBPROJECTS" default:"true" json:"include_subprojects"`
	}

	// Permissions granted in public projects to users who are not members.
	Permissions struct {
		NonMember []string `envconfig:"PERMISSIONS_NON_MEMBER" default:"view_project,view_work_packages" json:"non_member"`
		Anonymous []string `envconfig:"PERMISSIONS_ANONYMOUS" default:"view_project" json:"anonymous"`
	}

	ThrottledRateLimiting struct {
		Enabled           bool     `envconfig:"RATE_LIMITING_ENABLED" default:"true" json:"enabled"`
		RequestsPerSecond uint     `envconfig:"RATE_LIMITING_REQUESTS_PER_SECOND" default:"10" json:"requests_per_second"`
		BurstSize         uint     `envconfig:"RATE_LIMITING_BURST_SIZE" default:"20" json:"burst_size"`
		SkipPaths         []string `envconfig:"RATE_LIMITING_SKIP_PATHS" default:"/health,/liveness,/readiness,/metrics" json:"skip_paths"`
		GracefulDegraded  bool     `envconfig:"RATE_LIMITING_GRACEFUL_DEGRADED" default:"true" json:"graceful_degraded"`
	}

	Compression struct {
		Enabled bool `envconfig:"COMPRESSION_ENABLED" default:"true" json:"enabled"`
		// Level is shared by gzip and brotli, 1 to 9.
		Level     int      `envconfig:"COMPRESSION_LEVEL" default:"5" json:"level"`
		MinSize   int      `envconfig:"COMPRESSION_MIN_SIZE" default:"1024" json:"min_size"`
		SkipPaths []string `envconfig:"COMPRESSION_SKIP_PATHS" default:"/health,/liveness,/readiness,/metrics" json:"skip_paths"`
	}

	Logging struct {
		Level     string    `envconfig:"LOG_LEVEL" default:"info" json:"level"`
		Format    string    `envconfig:"LOG_FORMAT" default:"json" json:"format"`
		AccessLog AccessLog `json:"access_log"`
	}

	AccessLog struct {
		Enabled            bool `envconfig:"ACCESS_LOG_ENABLED" default:"true" json:"enabled"`
		LogHealthChecks    bool `envconfig:"ACCESS_LOG_HEALTH_CHECKS" default:"false" json:"log_health_checks"`
		IncludeQueryParams bool `envconfig:"ACCESS_LOG_INCLUDE_QUERY_PARAMS" default:"true" json:"include_query_params"`
	}

	Telemetry struct {
		Enabled      bool    `envconfig:"OTEL_ENABLED" default:"false" json:"enabled"`
		OTLPEndpoint string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"otel-collector:4317" json:"otlp_endpoint"`
		Insecure     bool    `envconfig:"OTEL_EXPORTER_INSECURE" default:"true" json:"insecure"`
		Metrics      Metrics `json:"metrics"`
		Traces       Traces  `json:"traces"`
	}

	Metrics struct {
		Enabled   bool   `envconfig:"METRICS_ENABLED" default:"true" json:"enabled"`
		Namespace string `envconfig:"METRICS_NAMESPACE" default:"svc_workpackages" json:"namespace"`
	}

	Traces struct {
		Enabled      bool    `envconfig:"TRACES_ENABLED" default:"false" json:"enabled"`
		SamplerRatio float64 `envconfig:"TRACES_SAMPLER_RATIO" default:"1.0" json:"sampler_ratio"`
	}
)

func (c *ServiceConfig) GetEnvironment() int {
	switch c.App.Env.Name {
	case "production", "prod":
		return Production
	case "staging", "stg":
		return Staging
	case "sandbox", "sbx":
		return Sandbox
	default:
		return Development
	}
}

func (c *ServiceConfig) IsProduction() bool {
	return c.GetEnvironment() == Production
}
