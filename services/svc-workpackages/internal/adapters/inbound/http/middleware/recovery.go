package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/architeacher/workpackages/pkg/logger"
)

// Recovery turns a panic into a 500 error document.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if rvr == http.ErrAbortHandler {
					// the client connection is gone, let net/http abort it
					panic(rvr)
				}

				var errMsg string
				switch v := rvr.(type) {
				case string:
					errMsg = v
				case error:
					errMsg = v.Error()
				default:
					errMsg = fmt.Sprintf("%v", v)
				}

				reqLogger := log.WithContext(r.Context())
				reqLogger.Error().
					Str("error", errMsg).
					Str("stack", string(debug.Stack())).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("panic recovered")

				WriteError(w, http.StatusInternalServerError, ErrorInternal, "An internal error has occurred.", "")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
