package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/architeacher/workpackages/pkg/decorator"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/repos"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/hal+json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorDocument {
	t.Helper()

	var doc middleware.ErrorDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	return doc
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	rec := serve(middleware.SecurityHeaders("3")(okHandler("{}")), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "3", rec.Header().Get("API-Version"))
}

func TestCORS(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		allowed        []string
		method         string
		origin         string
		expectedOrigin string
		expectedStatus int
	}{
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodGet, origin: "https://a.example", expectedOrigin: "https://a.example", expectedStatus: http.StatusOK},
		{name: "listed origin", allowed: []string{"https://a.example"}, method: http.MethodGet, origin: "https://a.example", expectedOrigin: "https://a.example", expectedStatus: http.StatusOK},
		{name: "unlisted origin", allowed: []string{"https://a.example"}, method: http.MethodGet, origin: "https://b.example", expectedStatus: http.StatusOK},
		{name: "preflight", allowed: []string{"*"}, method: http.MethodOptions, origin: "https://a.example", expectedOrigin: "https://a.example", expectedStatus: http.StatusNoContent},
		{name: "no origin", allowed: []string{"*"}, method: http.MethodGet, expectedStatus: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tc.method, "/api/v3/work_packages", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}

			rec := serve(middleware.CORS(tc.allowed)(okHandler("{}")), req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, tc.expectedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestTracking(t *testing.T) {
	t.Parallel()

	var requestID, correlationID string

	handler := middleware.RequestTracking()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		requestID = middleware.GetRequestID(r.Context())
		correlationID = middleware.GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.CorrelationIDHeader, "corr-1")

	rec := serve(handler, req)

	assert.Equal(t, "corr-1", correlationID)
	assert.Equal(t, "corr-1", rec.Header().Get(middleware.CorrelationIDHeader))
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := middleware.Recovery(logger.NewBufferedTestLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/v3/work_packages", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, middleware.ErrorInternal, decodeError(t, rec).ErrorIdentifier)
	assert.NotContains(t, rec.Body.String(), "kaboom")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	t.Parallel()

	handler := middleware.Recovery(logger.NewTestLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	middleware.WriteError(rec, http.StatusBadRequest, middleware.ErrorInvalidQuery, "invalid sortBy", "sortBy")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/hal+json; charset=utf-8", rec.Header().Get("Content-Type"))

	doc := decodeError(t, rec)
	assert.Equal(t, "Error", doc.Type)
	assert.Equal(t, "urn:openproject-org:api:v3:errors:InvalidQuery", doc.ErrorIdentifier)
	require.NotNil(t, doc.Embedded)
	assert.Equal(t, "sortBy", doc.Embedded.Details.Attribute)

	rec = httptest.NewRecorder()
	middleware.WriteError(rec, http.StatusNotFound, middleware.ErrorNotFound, "not found", "")

	assert.NotContains(t, rec.Body.String(), "_embedded")
}

func TestAccessLogger(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		path            string
		logHealthChecks bool
		status          int
		expectedLevel   string
	}{
		{name: "success", path: "/api/v3/work_packages?pageSize=5", status: http.StatusOK, expectedLevel: "info"},
		{name: "client error", path: "/api/v3/work_packages", status: http.StatusNotFound, expectedLevel: "warn"},
		{name: "server error", path: "/api/v3/work_packages", status: http.StatusServiceUnavailable, expectedLevel: "error"},
		{name: "health check skipped", path: "/readiness", status: http.StatusOK},
		{name: "health check logged on request", path: "/readiness", logHealthChecks: true, status: http.StatusOK, expectedLevel: "info"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set(middleware.CacheStatusHeader, "HIT")
				w.WriteHeader(tc.status)
			})

			handler := middleware.NewHealthCheckFilter(tc.logHealthChecks).Middleware(
				middleware.AccessLogger(logger.NewBufferedTestLogger(&buf), true)(inner),
			)

			serve(handler, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if tc.expectedLevel == "" {
				assert.Empty(t, buf.String())

				return
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

			assert.Equal(t, tc.expectedLevel, entry["level"])
			assert.Equal(t, float64(tc.status), entry["status"])
			assert.Equal(t, "HIT", entry["cache"])
		})
	}
}

func TestCacheStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		status   decorator.CacheStatus
		expected string
	}{
		{name: "hit", status: decorator.CacheStatusHit, expected: "HIT"},
		{name: "miss", status: decorator.CacheStatusMiss, expected: "MISS"},
		{name: "bypass is not reported", status: decorator.CacheStatusBypass},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := middleware.CacheStatus()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = decorator.NewQueryCachingDecorator[string, string](
					echoHandler{},
					fixedCache{status: tc.status},
					decorator.CacheConfig{Enabled: tc.status != decorator.CacheStatusBypass},
				).Execute(r.Context(), "q")

				w.WriteHeader(http.StatusOK)
			}))

			rec := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tc.expected, rec.Header().Get(middleware.CacheStatusHeader))
		})
	}
}

type echoHandler struct{}

func (echoHandler) Execute(_ context.Context, q string) (string, error) { return q, nil }

type fixedCache struct {
	status decorator.CacheStatus
}

func (c fixedCache) Get(context.Context, string) (string, bool, error) {
	return "cached", c.status == decorator.CacheStatusHit, nil
}

func (fixedCache) Set(context.Context, string, string, time.Duration) error { return nil }

func TestAuthentication(t *testing.T) {
	t.Parallel()

	repo := repos.NewInMemoryRepository().AddViewer(model.Viewer{ID: 42, Name: "Ada"}, "secret")

	cases := []struct {
		name              string
		trustViewerHeader bool
		headers           map[string]string
		expectedStatus    int
		expectedViewerID  int64
	}{
		{name: "anonymous", expectedStatus: http.StatusOK},
		{name: "bearer token", headers: map[string]string{"Authorization": "Bearer secret"}, expectedStatus: http.StatusOK, expectedViewerID: 42},
		{name: "bearer scheme is case insensitive", headers: map[string]string{"Authorization": "bearer secret"}, expectedStatus: http.StatusOK, expectedViewerID: 42},
		{name: "unknown token", headers: map[string]string{"Authorization": "Bearer wrong"}, expectedStatus: http.StatusUnauthorized},
		{name: "empty token", headers: map[string]string{"Authorization": "Bearer "}, expectedStatus: http.StatusUnauthorized},
		{name: "trusted viewer header", trustViewerHeader: true, headers: map[string]string{middleware.ViewerIDHeader: "42"}, expectedStatus: http.StatusOK, expectedViewerID: 42},
		{name: "untrusted viewer header is ignored", headers: map[string]string{middleware.ViewerIDHeader: "42"}, expectedStatus: http.StatusOK},
		{name: "malformed viewer header", trustViewerHeader: true, headers: map[string]string{middleware.ViewerIDHeader: "ada"}, expectedStatus: http.StatusUnauthorized},
		{name: "unknown viewer id", trustViewerHeader: true, headers: map[string]string{middleware.ViewerIDHeader: "7"}, expectedStatus: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var viewer model.Viewer

			handler := middleware.Authentication(repo, tc.trustViewerHeader, logger.NewTestLogger())(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					viewer = middleware.GetViewer(r.Context())
					w.WriteHeader(http.StatusOK)
				}),
			)

			req := httptest.NewRequest(http.MethodGet, "/api/v3/work_packages", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			rec := serve(handler, req)

			require.Equal(t, tc.expectedStatus, rec.Code)

			if tc.expectedStatus == http.StatusUnauthorized {
				assert.Equal(t, middleware.ErrorUnauthenticated, decodeError(t, rec).ErrorIdentifier)

				return
			}

			assert.Equal(t, tc.expectedViewerID, viewer.ID)
		})
	}
}
