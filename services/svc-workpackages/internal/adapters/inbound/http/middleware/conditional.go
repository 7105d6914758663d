package middleware

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	headerETag        = "ETag"
	headerIfNoneMatch = "If-None-Match"
)

// GenerateETag returns a quoted strong ETag for content.
func GenerateETag(content []byte) string {
	sum := make([]byte, 8)
	binary.BigEndian.PutUint64(sum, xxhash.Sum64(content))

	return `"` + hex.EncodeToString(sum) + `"`
}

// ConditionalGET tags successful GET responses with an ETag over the body
// and answers a matching If-None-Match with 304 Not Modified.
func ConditionalGET() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)

				return
			}

			buffered := &bufferedResponseWriter{header: make(http.Header), statusCode: http.StatusOK}

			next.ServeHTTP(buffered, r)

			for key, values := range buffered.header {
				w.Header()[key] = values
			}

			body := buffered.body.Bytes()

			if buffered.statusCode != http.StatusOK {
				w.WriteHeader(buffered.statusCode)
				_, _ = w.Write(body)

				return
			}

			etag := GenerateETag(body)
			w.Header().Set(headerETag, etag)

			if etagMatches(r.Header.Get(headerIfNoneMatch), etag) {
				w.Header().Del("Content-Length")
				w.WriteHeader(http.StatusNotModified)

				return
			}

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
		})
	}
}

func etagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}

	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}

	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}

	return false
}

type bufferedResponseWriter struct {
	header      http.Header
	body        bytes.Buffer
	statusCode  int
	wroteHeader bool
}

func (w *bufferedResponseWriter) Header() http.Header {
	return w.header
}

func (w *bufferedResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}

	w.wroteHeader = true
	w.statusCode = code
}

func (w *bufferedResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.body.Write(b)
}
