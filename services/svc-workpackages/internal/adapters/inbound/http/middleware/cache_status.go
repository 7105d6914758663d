package middleware

import (
	"net/http"

	"github.com/architeacher/workpackages/pkg/decorator"
)

const CacheStatusHeader = "X-Cache"

// CacheStatus reports through X-Cache how cached queries served the request.
// The header is only set when a caching decorator recorded something other
// than a bypass.
func CacheStatus() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(decorator.WithCacheStatus(r.Context()))

			next.ServeHTTP(&cacheStatusWriter{ResponseWriter: w, r: r}, r)
		})
	}
}

type cacheStatusWriter struct {
	http.ResponseWriter
	r           *http.Request
	wroteHeader bool
}

func (w *cacheStatusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true

		if status := decorator.GetCacheStatus(w.r.Context()); status != decorator.CacheStatusBypass {
			w.Header().Set(CacheStatusHeader, string(status))
		}
	}

	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheStatusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.ResponseWriter.Write(b)
}

func (w *cacheStatusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
