package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
)

const ViewerIDHeader = "X-Viewer-Id"

type viewerKey struct{}

// Authentication resolves the request's viewer. Requests without credentials
// run as the anonymous viewer. A bearer token is looked up in the user
// store; X-Viewer-Id is only honoured when trustViewerHeader is set.
func Authentication(viewers ports.ViewerRepository, trustViewerHeader bool, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := resolveViewer(r, viewers, trustViewerHeader)
			if err != nil {
				if !errors.Is(err, model.ErrUnauthenticated) {
					reqLogger := log.WithContext(r.Context())
					reqLogger.Error().Err(err).Msg("failed to resolve viewer")

					WriteError(w, http.StatusInternalServerError, ErrorInternal, "An internal error has occurred.", "")

					return
				}

				WriteError(w, http.StatusUnauthorized, ErrorUnauthenticated, "You did not provide the correct credentials.", "")

				return
			}

			ctx := context.WithValue(r.Context(), viewerKey{}, viewer)
			if !viewer.IsAnonymous() {
				ctx = context.WithValue(ctx, logger.ContextKeyViewerID, viewer.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveViewer(r *http.Request, viewers ports.ViewerRepository, trustViewerHeader bool) (model.Viewer, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return model.Viewer{}, model.ErrUnauthenticated
		}

		return viewers.FindViewerByToken(r.Context(), strings.TrimSpace(token))
	}

	if raw := r.Header.Get(ViewerIDHeader); raw != "" && trustViewerHeader {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return model.Viewer{}, model.ErrUnauthenticated
		}

		return viewers.FindViewerByID(r.Context(), id)
	}

	return model.Viewer{}, nil
}

// GetViewer returns the viewer resolved for the request, the anonymous
// viewer when none was.
func GetViewer(ctx context.Context) model.Viewer {
	if viewer, ok := ctx.Value(viewerKey{}).(model.Viewer); ok {
		return viewer
	}

	return model.Viewer{}
}

// WithViewer stores viewer in ctx the way Authentication does.
func WithViewer(ctx context.Context, viewer model.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, viewer)
}
