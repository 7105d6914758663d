package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

type RequestValidatorOptions struct {
	Options openapi3filter.Options
}

// OapiRequestValidator rejects requests that do not match the OpenAPI
// document with a 400 error naming the offending parameter.
func OapiRequestValidator(
	log logger.Logger,
	swagger *openapi3.T,
	options RequestValidatorOptions,
) func(http.Handler) http.Handler {
	router, err := gorillamux.NewRouter(swagger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create OpenAPI router")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)

				return
			}

			if status, attribute, err := validateRequest(r, router, &options.Options); err != nil {
				identifier := ErrorInvalidQuery
				if status == http.StatusNotFound {
					identifier = ErrorNotFound
				}

				WriteError(w, status, identifier, sanitizeErrorMessage(err.Error()), attribute)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validateRequest(r *http.Request, router routers.Router, options *openapi3filter.Options) (int, string, error) {
	route, pathParams, err := router.FindRoute(r)
	if err != nil {
		return http.StatusNotFound, "", errors.New("the requested resource could not be found")
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options:    options,
	}

	err = openapi3filter.ValidateRequest(r.Context(), input)
	if err == nil {
		return http.StatusOK, "", nil
	}

	var requestErr *openapi3filter.RequestError
	if errors.As(err, &requestErr) {
		attribute := ""
		if requestErr.Parameter != nil {
			attribute = requestErr.Parameter.Name
		}

		return http.StatusBadRequest, attribute, err
	}

	var securityErr *openapi3filter.SecurityRequirementsError
	if errors.As(err, &securityErr) {
		return http.StatusUnauthorized, "", err
	}

	return http.StatusBadRequest, "", err
}

// sanitizeErrorMessage drops the validator's request path prefix.
func sanitizeErrorMessage(message string) string {
	if idx := strings.Index(message, ": "); idx != -1 {
		return message[idx+2:]
	}

	return message
}
