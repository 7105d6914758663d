package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "sandbox")
	t.Setenv("APP_SERVICE_NAME", "svc-workpackages-test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PERMISSIONS_NON_MEMBER", "view_project")

	cfg, err := Init()
	require.NoError(t, err)

	assert.Equal(t, "sandbox", cfg.App.Env.Name)
	assert.Equal(t, "svc-workpackages-test", cfg.App.ServiceName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"view_project"}, cfg.Permissions.NonMember)
}

func TestInit_DefaultValues(t *testing.T) {
	cfg, err := Init()
	require.NoError(t, err)

	assert.Equal(t, "svc-workpackages", cfg.App.ServiceName)
	assert.Equal(t, "v3", cfg.App.APIVersion)

	assert.Equal(t, "0.0.0.0", cfg.HTTPServer.Host)
	assert.Equal(t, uint(8080), cfg.HTTPServer.Port)

	assert.False(t, cfg.SecretsStorage.Enabled)
	assert.Equal(t, "token", cfg.SecretsStorage.AuthMethod)
	assert.Equal(t, "svc-workpackages", cfg.SecretsStorage.MountPath)

	assert.Equal(t, "workpackages", cfg.Database.Database)
	assert.Equal(t, uint(20), cfg.Query.DefaultPageSize)
	assert.Equal(t, uint(1000), cfg.Query.MaxPageSize)
	assert.Equal(t, "EUR", cfg.Query.Currency)
	assert.Equal(t, []string{"view_project", "view_work_packages"}, cfg.Permissions.NonMember)
	assert.Equal(t, []string{"view_project"}, cfg.Permissions.Anonymous)

	assert.False(t, cfg.Auth.TrustViewerHeader)
	assert.Equal(t, []string{"*"}, cfg.Auth.AllowedOrigins)
}

func TestGetEnvironment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		env      string
		expected int
	}{
		{name: "production", env: "production", expected: Production},
		{name: "prod shorthand", env: "prod", expected: Production},
		{name: "staging", env: "staging", expected: Staging},
		{name: "stg shorthand", env: "stg", expected: Staging},
		{name: "sandbox", env: "sandbox", expected: Sandbox},
		{name: "sbx shorthand", env: "sbx", expected: Sandbox},
		{name: "development default", env: "development", expected: Development},
		{name: "unknown defaults to development", env: "unknown", expected: Development},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := &ServiceConfig{App: App{Env: Environment{Name: tc.env}}}

			assert.Equal(t, tc.expected, cfg.GetEnvironment())
			assert.Equal(t, tc.expected == Production, cfg.IsProduction())
		})
	}
}
