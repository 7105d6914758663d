package infrastructure_test

import (
	"testing"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/infrastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewTracerProvider_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  config.Telemetry
	}{
		{name: "telemetry disabled", cfg: config.Telemetry{Traces: config.Traces{Enabled: true}}},
		{name: "traces disabled", cfg: config.Telemetry{Enabled: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tp, shutdown, err := infrastructure.NewTracerProvider(t.Context(), config.App{ServiceName: "svc-workpackages"}, tc.cfg)
			require.NoError(t, err)

			assert.IsType(t, noop.TracerProvider{}, tp)
			assert.NoError(t, shutdown(t.Context()))
		})
	}
}
