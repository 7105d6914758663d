package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

type (
	// ListWorkPackagesParams are the query parameters of both work package
	// collections.
	ListWorkPackagesParams struct {
		Filters  *string
		SortBy   *string
		GroupBy  *string
		ShowSums *bool
		Offset   *int
		PageSize *int
	}

	ProjectFilterValuesParams struct {
		// Values are selected filter values to resolve into projects.
		Values *[]string
	}

	// ServerInterface is implemented by the API handler.
	ServerInterface interface {
		// (GET /work_packages)
		ListWorkPackages(w http.ResponseWriter, r *http.Request, params ListWorkPackagesParams)
		// (GET /projects/{id}/work_packages)
		ListProjectWorkPackages(w http.ResponseWriter, r *http.Request, id int64, params ListWorkPackagesParams)
		// (GET /queries/filters/project/values)
		ListProjectFilterValues(w http.ResponseWriter, r *http.Request, params ProjectFilterValuesParams)
		// (GET /projects/{id}/queries/filters/project/values)
		ListProjectScopedFilterValues(w http.ResponseWriter, r *http.Request, id int64, params ProjectFilterValuesParams)
		// (GET /queries/filters)
		ListQueryFilters(w http.ResponseWriter, r *http.Request)
		// (GET /queries/filters/{name})
		GetQueryFilter(w http.ResponseWriter, r *http.Request, name string)
		// (GET /queries/group_bys)
		ListQueryGroupBys(w http.ResponseWriter, r *http.Request)
		// (GET /queries/group_bys/{name})
		GetQueryGroupBy(w http.ResponseWriter, r *http.Request, name string)
	}

	MiddlewareFunc func(http.Handler) http.Handler

	// ServerInterfaceWrapper binds request parameters before calling the
	// handler.
	ServerInterfaceWrapper struct {
		Handler            ServerInterface
		HandlerMiddlewares []MiddlewareFunc
		ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
	}

	ChiServerOptions struct {
		BaseURL          string
		BaseRouter       chi.Router
		Middlewares      []MiddlewareFunc
		ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
	}

	// InvalidParamFormatError is passed to ErrorHandlerFunc when a parameter
	// cannot be bound.
	InvalidParamFormatError struct {
		ParamName string
		Err       error
	}
)

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

func (siw *ServerInterfaceWrapper) ListWorkPackages(w http.ResponseWriter, r *http.Request) {
	var params ListWorkPackagesParams
	if err := bindListWorkPackagesParams(r, &params); err != nil {
		siw.ErrorHandlerFunc(w, r, err)

		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListWorkPackages(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) ListProjectWorkPackages(w http.ResponseWriter, r *http.Request) {
	id, err := bindProjectID(r)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, err)

		return
	}

	var params ListWorkPackagesParams
	if err := bindListWorkPackagesParams(r, &params); err != nil {
		siw.ErrorHandlerFunc(w, r, err)

		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListProjectWorkPackages(w, r, id, params)
	})
}

func (siw *ServerInterfaceWrapper) ListProjectFilterValues(w http.ResponseWriter, r *http.Request) {
	var params ProjectFilterValuesParams
	if err := bindProjectFilterValuesParams(r, &params); err != nil {
		siw.ErrorHandlerFunc(w, r, err)

		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListProjectFilterValues(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) ListProjectScopedFilterValues(w http.ResponseWriter, r *http.Request) {
	id, err := bindProjectID(r)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, err)

		return
	}

	var params ProjectFilterValuesParams
	if err := bindProjectFilterValuesParams(r, &params); err != nil {
		siw.ErrorHandlerFunc(w, r, err)

		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListProjectScopedFilterValues(w, r, id, params)
	})
}

func (siw *ServerInterfaceWrapper) ListQueryFilters(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListQueryFilters)
}

func (siw *ServerInterfaceWrapper) ListQueryGroupBys(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListQueryGroupBys)
}

func (siw *ServerInterfaceWrapper) GetQueryFilter(w http.ResponseWriter, r *http.Request) {
	name, err := bindName(r)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, err)

		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetQueryFilter(w, r, name)
	})
}

func (siw *ServerInterfaceWrapper) GetQueryGroupBy(w http.ResponseWriter, r *http.Request) {
	name, err := bindName(r)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, err)

		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetQueryGroupBy(w, r, name)
	})
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	var handler http.Handler = fn

	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}

	handler.ServeHTTP(w, r)
}

func bindProjectID(r *http.Request) (int64, error) {
	var id int64

	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return 0, &InvalidParamFormatError{ParamName: "id", Err: err}
	}

	return id, nil
}

func bindName(r *http.Request) (string, error) {
	var name string

	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return "", &InvalidParamFormatError{ParamName: "name", Err: err}
	}

	return name, nil
}

func bindListWorkPackagesParams(r *http.Request, params *ListWorkPackagesParams) error {
	query := r.URL.Query()

	bindings := []struct {
		name string
		dest any
	}{
		{"filters", &params.Filters},
		{"sortBy", &params.SortBy},
		{"groupBy", &params.GroupBy},
		{"showSums", &params.ShowSums},
		{"offset", &params.Offset},
		{"pageSize", &params.PageSize},
	}

	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			return &InvalidParamFormatError{ParamName: b.name, Err: err}
		}
	}

	return nil
}

func bindProjectFilterValuesParams(r *http.Request, params *ProjectFilterValuesParams) error {
	if err := runtime.BindQueryParameter("form", true, false, "values", r.URL.Query(), &params.Values); err != nil {
		return &InvalidParamFormatError{ParamName: "values", Err: err}
	}

	return nil
}

// HandlerWithOptions mounts si on options.BaseRouter below options.BaseURL.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}

	errorHandler := options.ErrorHandlerFunc
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   errorHandler,
	}

	r.Get(options.BaseURL+"/work_packages", wrapper.ListWorkPackages)
	r.Get(options.BaseURL+"/projects/{id}/work_packages", wrapper.ListProjectWorkPackages)
	r.Get(options.BaseURL+"/queries/filters/project/values", wrapper.ListProjectFilterValues)
	r.Get(options.BaseURL+"/projects/{id}/queries/filters/project/values", wrapper.ListProjectScopedFilterValues)
	r.Get(options.BaseURL+"/queries/filters", wrapper.ListQueryFilters)
	r.Get(options.BaseURL+"/queries/filters/{name}", wrapper.GetQueryFilter)
	r.Get(options.BaseURL+"/queries/group_bys", wrapper.ListQueryGroupBys)
	r.Get(options.BaseURL+"/queries/group_bys/{name}", wrapper.GetQueryGroupBy)

	return r
}
