package middleware

import (
	"encoding/json"
	"net/http"
)

const (
	contentTypeHeader = "Content-Type"
	halJSON           = "application/hal+json; charset=utf-8"

	errorIdentifierPrefix = "urn:openproject-org:api:v3:errors:"

	ErrorInvalidQuery      = errorIdentifierPrefix + "InvalidQuery"
	ErrorNotFound          = errorIdentifierPrefix + "NotFound"
	ErrorMissingPermission = errorIdentifierPrefix + "MissingPermission"
	ErrorUnauthenticated   = errorIdentifierPrefix + "Unauthenticated"
	ErrorTooManyRequests   = errorIdentifierPrefix + "TooManyRequests"
	ErrorUnavailable       = errorIdentifierPrefix + "ServiceUnavailable"
	ErrorInternal          = errorIdentifierPrefix + "InternalServerError"
)

type (
	// ErrorDocument is the error body shared by middleware and handlers.
	ErrorDocument struct {
		Type            string         `json:"_type"`
		ErrorIdentifier string         `json:"errorIdentifier"`
		Message         string         `json:"message"`
		Embedded        *ErrorEmbedded `json:"_embedded,omitempty"`
	}

	ErrorEmbedded struct {
		Details ErrorDetails `json:"details"`
	}

	ErrorDetails struct {
		Attribute string `json:"attribute"`
	}
)

// WriteError writes an error document. attribute names the offending request
// part and is omitted when empty.
func WriteError(w http.ResponseWriter, status int, identifier, message, attribute string) {
	doc := ErrorDocument{
		Type:            "Error",
		ErrorIdentifier: identifier,
		Message:         message,
	}

	if attribute != "" {
		doc.Embedded = &ErrorEmbedded{Details: ErrorDetails{Attribute: attribute}}
	}

	w.Header().Set(contentTypeHeader, halJSON)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(doc)
}
