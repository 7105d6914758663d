package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
)

const (
	encodingGzip   = "gzip"
	encodingBrotli = "br"
)

var compressibleTypes = []string{
	"application/json",
	"application/hal+json",
	"text/plain",
}

// serverPreference breaks ties between equally weighted encodings.
var serverPreference = []string{encodingBrotli, encodingGzip}

type acceptEncoding struct {
	encoding string
	quality  float64
}

// Compression encodes responses of at least cfg.MinSize bytes with brotli or
// gzip, whichever the client weighs higher.
func Compression(cfg config.Compression) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	level := min(max(cfg.Level, 1), 9)

	gzipPool := &sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, level)

		return w
	}}
	brotliPool := &sync.Pool{New: func() any {
		return brotli.NewWriterLevel(io.Discard, level)
	}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkipPath(r.URL.Path, cfg.SkipPaths) {
				next.ServeHTTP(w, r)

				return
			}

			encoding := selectEncoding(parseAcceptEncoding(r.Header.Get("Accept-Encoding")))
			if encoding == "" {
				next.ServeHTTP(w, r)

				return
			}

			w.Header().Add("Vary", "Accept-Encoding")

			cw := &compressResponseWriter{
				ResponseWriter: w,
				encoding:       encoding,
				minSize:        cfg.MinSize,
				statusCode:     http.StatusOK,
				gzipPool:       gzipPool,
				brotliPool:     brotliPool,
			}
			defer func() { _ = cw.Close() }()

			next.ServeHTTP(cw, r)
		})
	}
}

func parseAcceptEncoding(header string) []acceptEncoding {
	var encodings []acceptEncoding

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, params, _ := strings.Cut(part, ";")
		enc := acceptEncoding{encoding: strings.TrimSpace(name), quality: 1}

		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil {
				enc.quality = v
			}
		}

		encodings = append(encodings, enc)
	}

	return encodings
}

func selectEncoding(encodings []acceptEncoding) string {
	best, bestQuality := "", 0.0

	for _, preferred := range serverPreference {
		for _, enc := range encodings {
			if (enc.encoding == preferred || enc.encoding == "*") && enc.quality > bestQuality {
				best, bestQuality = preferred, enc.quality
			}
		}
	}

	return best
}

// compressResponseWriter buffers up to minSize bytes before deciding whether
// the body is worth encoding.
type compressResponseWriter struct {
	http.ResponseWriter
	encoding   string
	minSize    int
	statusCode int

	gzipPool   *sync.Pool
	brotliPool *sync.Pool

	buf         []byte
	writer      io.WriteCloser
	release     func()
	wroteHeader bool
	decided     bool
}

func (w *compressResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}

	w.wroteHeader = true
	w.statusCode = code

	if code == http.StatusNoContent || code == http.StatusNotModified || !w.isCompressible() {
		w.decide(false)
	}
}

func (w *compressResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	if !w.decided {
		w.buf = append(w.buf, b...)
		if len(w.buf) >= w.minSize {
			w.decide(true)
		}

		return len(b), nil
	}

	if w.writer != nil {
		return w.writer.Write(b)
	}

	return w.ResponseWriter.Write(b)
}

func (w *compressResponseWriter) decide(compress bool) {
	w.decided = true

	if compress {
		w.Header().Set("Content-Encoding", w.encoding)
		w.Header().Del("Content-Length")

		switch w.encoding {
		case encodingBrotli:
			bw := w.brotliPool.Get().(*brotli.Writer)
			bw.Reset(w.ResponseWriter)
			w.writer = bw
			w.release = func() { w.brotliPool.Put(bw) }
		default:
			gw := w.gzipPool.Get().(*gzip.Writer)
			gw.Reset(w.ResponseWriter)
			w.writer = gw
			w.release = func() { w.gzipPool.Put(gw) }
		}
	}

	w.ResponseWriter.WriteHeader(w.statusCode)

	if len(w.buf) > 0 {
		if w.writer != nil {
			_, _ = w.writer.Write(w.buf)
		} else {
			_, _ = w.ResponseWriter.Write(w.buf)
		}

		w.buf = nil
	}
}

func (w *compressResponseWriter) isCompressible() bool {
	mediaType, _, _ := strings.Cut(w.Header().Get("Content-Type"), ";")

	return slices.Contains(compressibleTypes, strings.ToLower(strings.TrimSpace(mediaType)))
}

// Close flushes a body that stayed below minSize uncompressed.
func (w *compressResponseWriter) Close() error {
	if !w.decided {
		if !w.wroteHeader {
			return nil
		}

		w.decide(false)
	}

	if w.writer == nil {
		return nil
	}

	err := w.writer.Close()
	w.release()

	return err
}

func (w *compressResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
