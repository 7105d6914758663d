package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otelTrace "go.opentelemetry.io/otel/trace"
)

// Tracer starts a server span per request and extracts the incoming trace
// context.
func Tracer(serviceName string, tp otelTrace.TracerProvider) func(http.Handler) http.Handler {
	return otelhttp.NewMiddleware(
		serviceName,
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
