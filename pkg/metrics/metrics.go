package metrics

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

type Client interface {
	// Inc adds value to the counter identified by key.
	Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue)
	// Observe records a sample in the histogram identified by key.
	Observe(ctx context.Context, key string, value float64, attributes ...attribute.KeyValue)
	Handler() http.Handler
	Shutdown(ctx context.Context) error
}
