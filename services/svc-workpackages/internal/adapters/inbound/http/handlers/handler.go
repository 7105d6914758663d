package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/architeacher/workpackages/pkg/circuitbreaker"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases/queries"
)

const (
	contentTypeHeader = "Content-Type"
	halJSON           = "application/hal+json; charset=utf-8"
	applicationJSON   = "application/json"
)

var _ ServerInterface = (*Handler)(nil)

type Handler struct {
	app       *usecases.Application
	presenter ResultPresenter
	limits    model.PageLimits
	log       logger.Logger
}

func NewHandler(app *usecases.Application, cfg config.Query, log logger.Logger) *Handler {
	return &Handler{
		app:       app,
		presenter: NewResultPresenter(cfg.Currency),
		limits: model.PageLimits{
			Default: cfg.DefaultPageSize,
			Max:     cfg.MaxPageSize,
		},
		log: log,
	}
}

func (h *Handler) ListWorkPackages(w http.ResponseWriter, r *http.Request, params ListWorkPackagesParams) {
	h.listWorkPackages(w, r, model.GlobalScope(), apiBasePath+"/work_packages", params)
}

func (h *Handler) ListProjectWorkPackages(w http.ResponseWriter, r *http.Request, id int64, params ListWorkPackagesParams) {
	h.listWorkPackages(w, r, model.ProjectScope(id), fmt.Sprintf("%s/projects/%d/work_packages", apiBasePath, id), params)
}

func (h *Handler) listWorkPackages(
	w http.ResponseWriter,
	r *http.Request,
	scope model.Scope,
	collectionPath string,
	params ListWorkPackagesParams,
) {
	queryParams, err := params.queryParams()
	if err != nil {
		h.writeQueryError(w, r, err)

		return
	}

	spec, err := model.ParseQuerySpec(queryParams, h.limits)
	if err != nil {
		h.writeQueryError(w, r, err)

		return
	}

	result, err := h.app.Queries.ListWorkPackages.Execute(r.Context(), queries.ListWorkPackagesQuery{
		Scope:  scope,
		Spec:   spec,
		Viewer: middleware.GetViewer(r.Context()),
	})
	if err != nil {
		h.writeQueryError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, halJSON, h.presenter.Collection(result, collectionPath))
}

func (h *Handler) ListProjectFilterValues(w http.ResponseWriter, r *http.Request, params ProjectFilterValuesParams) {
	h.listProjectFilterValues(w, r, nil, apiBasePath+"/queries/filters/project/values", params)
}

func (h *Handler) ListProjectScopedFilterValues(w http.ResponseWriter, r *http.Request, id int64, params ProjectFilterValuesParams) {
	h.listProjectFilterValues(w, r, &id, fmt.Sprintf("%s/projects/%d/queries/filters/project/values", apiBasePath, id), params)
}

func (h *Handler) listProjectFilterValues(
	w http.ResponseWriter,
	r *http.Request,
	container *int64,
	selfPath string,
	params ProjectFilterValuesParams,
) {
	query := queries.ProjectFilterValuesQuery{
		Viewer:    middleware.GetViewer(r.Context()),
		Container: container,
	}

	if params.Values != nil {
		query.Selected = *params.Values
	}

	result, err := h.app.Queries.ProjectFilterValues.Execute(r.Context(), query)
	if err != nil {
		h.writeQueryError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, halJSON, h.presenter.AllowedValues(result, selfPath))
}

func (h *Handler) ListQueryFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, halJSON, h.presenter.Filters(model.FilterDefinitions()))
}

func (h *Handler) GetQueryFilter(w http.ResponseWriter, _ *http.Request, name string) {
	def, ok := model.LookupFilterDefinition(name)
	if !ok {
		writeResourceNotFound(w)

		return
	}

	writeJSON(w, http.StatusOK, halJSON, h.presenter.Filter(def))
}

func (h *Handler) ListQueryGroupBys(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, halJSON, h.presenter.GroupBys(model.GroupableAttributes()))
}

func (h *Handler) GetQueryGroupBy(w http.ResponseWriter, _ *http.Request, name string) {
	attr, ok := model.LookupAttribute(name)
	if !ok || !attr.Groupable {
		writeResourceNotFound(w)

		return
	}

	writeJSON(w, http.StatusOK, halJSON, h.presenter.GroupByAttribute(attr))
}

func writeResourceNotFound(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusNotFound, middleware.ErrorNotFound, "The requested resource could not be found.", "")
}

// ParamErrorHandler answers parameters that could not be bound.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	attribute := ""

	var paramErr *InvalidParamFormatError
	if errors.As(err, &paramErr) {
		attribute = paramErr.ParamName
	}

	middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorInvalidQuery, err.Error(), attribute)
}

// writeQueryError maps domain errors to statuses. Invisible containers are
// reported as not found so their existence is not disclosed.
func (h *Handler) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *model.InvalidFilterError

	switch {
	case errors.As(err, &invalid):
		attribute := invalid.Field
		if invalid.Filter != "" {
			attribute = invalid.Filter
		}

		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorInvalidQuery, invalid.Error(), attribute)
	case errors.Is(err, model.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrorNotFound, model.ErrNotFound.Error(), "")
	case errors.Is(err, model.ErrForbidden):
		middleware.WriteError(w, http.StatusForbidden, middleware.ErrorMissingPermission, model.ErrForbidden.Error(), "")
	case errors.Is(err, model.ErrUnauthenticated):
		middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrorUnauthenticated, model.ErrUnauthenticated.Error(), "")
	case errors.Is(err, model.ErrDatabaseConnection) || circuitbreaker.IsRejected(err):
		h.logError(r, err)
		middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrorUnavailable, "The service is temporarily unavailable.", "")
	default:
		h.logError(r, err)
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrorInternal, "An internal error has occurred.", "")
	}
}

func (h *Handler) logError(r *http.Request, err error) {
	reqLogger := h.log.WithContext(r.Context())
	reqLogger.Error().Err(err).Str("path", r.URL.Path).Msg("query failed")
}

func (p ListWorkPackagesParams) queryParams() (model.QueryParams, error) {
	var params model.QueryParams

	if p.Filters != nil {
		params.Filters = *p.Filters
	}

	if p.SortBy != nil {
		params.SortBy = *p.SortBy
	}

	if p.GroupBy != nil {
		params.GroupBy = *p.GroupBy
	}

	if p.ShowSums != nil {
		params.ShowSums = *p.ShowSums
	}

	if p.Offset != nil {
		if *p.Offset < 1 {
			return model.QueryParams{}, &model.InvalidFilterError{Field: "offset", Reason: "must be a positive integer"}
		}

		params.Offset = uint(*p.Offset)
	}

	if p.PageSize != nil {
		if *p.PageSize < 1 {
			return model.QueryParams{}, &model.InvalidFilterError{Field: "pageSize", Reason: "must be a positive integer"}
		}

		params.PageSize = uint(*p.PageSize)
	}

	return params, nil
}

func writeJSON(w http.ResponseWriter, status int, contentType string, data any) {
	w.Header().Set(contentTypeHeader, contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
