package middleware_test

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/inbound/http/handlers"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/throttled/throttled/v2/store/memstore"
)

var largeBody = `{"_type":"WorkPackageCollection","subject":"` + strings.Repeat("release notes ", 200) + `"}`

func TestCompression(t *testing.T) {
	t.Parallel()

	enabled := config.Compression{Enabled: true, Level: 5, MinSize: 256, SkipPaths: []string{"/health"}}

	cases := []struct {
		name             string
		cfg              config.Compression
		path             string
		acceptEncoding   string
		body             string
		contentType      string
		expectedEncoding string
	}{
		{name: "gzip", cfg: enabled, path: "/api/v3/work_packages", acceptEncoding: "gzip", body: largeBody, expectedEncoding: "gzip"},
		{name: "brotli preferred on a tie", cfg: enabled, path: "/api/v3/work_packages", acceptEncoding: "gzip, br", body: largeBody, expectedEncoding: "br"},
		{name: "client weights win", cfg: enabled, path: "/api/v3/work_packages", acceptEncoding: "br;q=0.5, gzip;q=0.9", body: largeBody, expectedEncoding: "gzip"},
		{name: "wildcard", cfg: enabled, path: "/api/v3/work_packages", acceptEncoding: "*", body: largeBody, expectedEncoding: "br"},
		{name: "below minimum size", cfg: enabled, path: "/api/v3/work_packages", acceptEncoding: "gzip", body: `{"count":0}`},
		{name: "not compressible", cfg: enabled, path: "/api/v3/work_packages", acceptEncoding: "gzip", body: largeBody, contentType: "image/png"},
		{name: "skipped path", cfg: enabled, path: "/health", acceptEncoding: "gzip", body: largeBody},
		{name: "no accept encoding", cfg: enabled, path: "/api/v3/work_packages", body: largeBody},
		{name: "disabled", cfg: config.Compression{}, path: "/api/v3/work_packages", acceptEncoding: "gzip", body: largeBody},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			contentType := tc.contentType
			if contentType == "" {
				contentType = "application/hal+json; charset=utf-8"
			}

			inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", contentType)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tc.acceptEncoding)
			}

			rec := serve(middleware.Compression(tc.cfg)(inner), req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.expectedEncoding, rec.Header().Get("Content-Encoding"))

			var reader io.Reader = rec.Body

			switch tc.expectedEncoding {
			case "gzip":
				gr, err := gzip.NewReader(rec.Body)
				require.NoError(t, err)

				reader = gr
			case "br":
				reader = brotli.NewReader(rec.Body)
			}

			decoded, err := io.ReadAll(reader)
			require.NoError(t, err)
			assert.Equal(t, tc.body, string(decoded))
		})
	}
}

func TestCompression_NoContent(t *testing.T) {
	t.Parallel()

	handler := middleware.Compression(config.Compression{Enabled: true, Level: 5})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v3/work_packages", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	rec := serve(handler, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Zero(t, rec.Body.Len())
}

func TestGenerateETag(t *testing.T) {
	t.Parallel()

	first := middleware.GenerateETag([]byte(`{"count":1}`))

	assert.Equal(t, first, middleware.GenerateETag([]byte(`{"count":1}`)))
	assert.NotEqual(t, first, middleware.GenerateETag([]byte(`{"count":2}`)))
	assert.True(t, strings.HasPrefix(first, `"`) && strings.HasSuffix(first, `"`))
	assert.Len(t, first, 18)
}

func TestConditionalGET(t *testing.T) {
	t.Parallel()

	etag := middleware.GenerateETag([]byte(largeBody))

	cases := []struct {
		name           string
		method         string
		ifNoneMatch    string
		status         int
		expectedStatus int
		expectETag     bool
	}{
		{name: "fresh request", method: http.MethodGet, status: http.StatusOK, expectedStatus: http.StatusOK, expectETag: true},
		{name: "matching etag", method: http.MethodGet, ifNoneMatch: etag, status: http.StatusOK, expectedStatus: http.StatusNotModified, expectETag: true},
		{name: "weak match", method: http.MethodGet, ifNoneMatch: `"other", W/` + etag, status: http.StatusOK, expectedStatus: http.StatusNotModified, expectETag: true},
		{name: "any", method: http.MethodGet, ifNoneMatch: "*", status: http.StatusOK, expectedStatus: http.StatusNotModified, expectETag: true},
		{name: "stale etag", method: http.MethodGet, ifNoneMatch: `"stale"`, status: http.StatusOK, expectedStatus: http.StatusOK, expectETag: true},
		{name: "errors are not tagged", method: http.MethodGet, ifNoneMatch: etag, status: http.StatusNotFound, expectedStatus: http.StatusNotFound},
		{name: "other methods pass through", method: http.MethodPost, ifNoneMatch: etag, status: http.StatusOK, expectedStatus: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := middleware.ConditionalGET()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/hal+json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(largeBody))
			}))

			req := httptest.NewRequest(tc.method, "/api/v3/work_packages", nil)
			if tc.ifNoneMatch != "" {
				req.Header.Set("If-None-Match", tc.ifNoneMatch)
			}

			rec := serve(handler, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)

			if tc.expectETag {
				assert.Equal(t, etag, rec.Header().Get("ETag"))
			} else {
				assert.Empty(t, rec.Header().Get("ETag"))
			}

			if tc.expectedStatus == http.StatusNotModified {
				assert.Zero(t, rec.Body.Len())
			} else {
				assert.Equal(t, largeBody, rec.Body.String())
			}
		})
	}
}

type failingStore struct{}

func (failingStore) GetWithTime(context.Context, string) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("keydb unavailable")
}

func (failingStore) SetIfNotExistsWithTTL(context.Context, string, int64, time.Duration) (bool, error) {
	return false, errors.New("keydb unavailable")
}

func (failingStore) CompareAndSwapWithTTL(context.Context, string, int64, int64, time.Duration) (bool, error) {
	return false, errors.New("keydb unavailable")
}

type RateLimitingTestSuite struct {
	suite.Suite

	log    logger.Logger
	config config.ThrottledRateLimiting
}

func TestRateLimitingTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(RateLimitingTestSuite))
}

func (s *RateLimitingTestSuite) SetupTest() {
	s.log = logger.NewTestLogger()
	s.config = config.ThrottledRateLimiting{
		Enabled:           true,
		RequestsPerSecond: 1,
		BurstSize:         2,
		SkipPaths:         []string{"/health", "/liveness", "/readiness"},
	}
}

func (s *RateLimitingTestSuite) request(handler http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr

	return serve(handler, req)
}

func (s *RateLimitingTestSuite) TestLimitsPerClient() {
	store, err := memstore.NewCtx(100)
	s.Require().NoError(err)

	handler := middleware.RateLimiting(s.config, store, s.log)(okHandler("{}"))

	for range 3 {
		rec := s.request(handler, "/api/v3/work_packages", "192.168.1.1:1234")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.NotEmpty(rec.Header().Get(middleware.RateLimitLimitHeader))
		s.NotEmpty(rec.Header().Get(middleware.RateLimitRemainingHeader))
	}

	rec := s.request(handler, "/api/v3/work_packages", "192.168.1.1:5678")
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.NotEmpty(rec.Header().Get(middleware.RetryAfterHeader))
	s.Contains(rec.Body.String(), middleware.ErrorTooManyRequests)

	rec = s.request(handler, "/api/v3/work_packages", "192.168.1.2:1234")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RateLimitingTestSuite) TestSkipsHealthChecks() {
	store, err := memstore.NewCtx(100)
	s.Require().NoError(err)

	handler := middleware.RateLimiting(s.config, store, s.log)(okHandler("{}"))

	for range 10 {
		rec := s.request(handler, "/readiness", "192.168.1.1:1234")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Empty(rec.Header().Get(middleware.RateLimitLimitHeader))
	}
}

func (s *RateLimitingTestSuite) TestStoreFailure() {
	cases := []struct {
		name             string
		gracefulDegraded bool
		expectedStatus   int
	}{
		{name: "graceful degradation lets requests through", gracefulDegraded: true, expectedStatus: http.StatusOK},
		{name: "strict mode rejects", gracefulDegraded: false, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			cfg := s.config
			cfg.GracefulDegraded = tc.gracefulDegraded

			handler := middleware.RateLimiting(cfg, failingStore{}, s.log)(okHandler("{}"))

			rec := s.request(handler, "/api/v3/work_packages", "192.168.1.1:1234")
			s.Equal(tc.expectedStatus, rec.Code)
		})
	}
}

func TestOapiRequestValidator(t *testing.T) {
	t.Parallel()

	swagger, err := handlers.GetSwagger()
	require.NoError(t, err)

	validator := middleware.OapiRequestValidator(logger.NewTestLogger(), swagger, middleware.RequestValidatorOptions{
		Options: openapi3filter.Options{ExcludeRequestBody: true},
	})
	handler := validator(okHandler("{}"))

	cases := []struct {
		name               string
		method             string
		target             string
		expectedStatus     int
		expectedIdentifier string
		expectedAttribute  string
	}{
		{name: "valid list", method: http.MethodGet, target: "/api/v3/work_packages?pageSize=10&showSums=true", expectedStatus: http.StatusOK},
		{name: "valid project list", method: http.MethodGet, target: "/api/v3/projects/3/work_packages", expectedStatus: http.StatusOK},
		{name: "valid filter values", method: http.MethodGet, target: "/api/v3/queries/filters/project/values?values=1&values=2", expectedStatus: http.StatusOK},
		{name: "non numeric page size", method: http.MethodGet, target: "/api/v3/work_packages?pageSize=ten", expectedStatus: http.StatusBadRequest, expectedIdentifier: middleware.ErrorInvalidQuery, expectedAttribute: "pageSize"},
		{name: "zero offset", method: http.MethodGet, target: "/api/v3/work_packages?offset=0", expectedStatus: http.StatusBadRequest, expectedIdentifier: middleware.ErrorInvalidQuery, expectedAttribute: "offset"},
		{name: "non boolean sums flag", method: http.MethodGet, target: "/api/v3/work_packages?showSums=maybe", expectedStatus: http.StatusBadRequest, expectedIdentifier: middleware.ErrorInvalidQuery, expectedAttribute: "showSums"},
		{name: "non numeric project id", method: http.MethodGet, target: "/api/v3/projects/seed/work_packages", expectedStatus: http.StatusBadRequest, expectedIdentifier: middleware.ErrorInvalidQuery, expectedAttribute: "id"},
		{name: "unknown route", method: http.MethodGet, target: "/api/v3/versions", expectedStatus: http.StatusNotFound, expectedIdentifier: middleware.ErrorNotFound},
		{name: "preflight skips validation", method: http.MethodOptions, target: "/api/v3/versions", expectedStatus: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(handler, httptest.NewRequest(tc.method, tc.target, nil))

			require.Equal(t, tc.expectedStatus, rec.Code, rec.Body.String())

			if tc.expectedIdentifier == "" {
				return
			}

			doc := decodeError(t, rec)
			assert.Equal(t, tc.expectedIdentifier, doc.ErrorIdentifier)

			if tc.expectedAttribute != "" {
				require.NotNil(t, doc.Embedded)
				assert.Equal(t, tc.expectedAttribute, doc.Embedded.Details.Attribute)
			}
		})
	}
}
