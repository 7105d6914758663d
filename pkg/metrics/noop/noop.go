// Package noop provides a no-operation metrics client implementation
// for use in testing or when metrics collection is disabled.
package noop

import (
	"context"
	"net/http"

	"github.com/architeacher/workpackages/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

var _ metrics.Client = MetricsClient{}

type MetricsClient struct{}

func NewMetricsClient() MetricsClient {
	return MetricsClient{}
}

func (c MetricsClient) Inc(_ context.Context, _ string, _ any, _ ...attribute.KeyValue) {}

func (c MetricsClient) Observe(_ context.Context, _ string, _ float64, _ ...attribute.KeyValue) {}

// Handler answers scrapes with 404 so a disabled exporter is distinguishable
// from an empty one.
func (c MetricsClient) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "metrics collection is disabled", http.StatusNotFound)
	})
}

func (c MetricsClient) Shutdown(_ context.Context) error {
	return nil
}
