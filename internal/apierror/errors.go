package apierror

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is the terminal outcome of any failed request. Every failure path in
// the gateway converges on this shape before it reaches the HTTP layer; it is
// serialized as the OpenAI-style error envelope {"error":{...}}.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
}

type envelope struct {
	Error *Error `json:"error"`
}

// Write serializes err as a JSON error envelope with its HTTP status.
func Write(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	json.NewEncoder(w).Encode(envelope{Error: err})
}

// InvalidParameters reports a client-supplied parameter outside its accepted
// range, or an unreadable request body.
func InvalidParameters(message string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: message,
		Type:    "invalid_request_error",
		Code:    "invalid_parameters",
	}
}

// ModelNotFound reports a model name absent from the deployment mapping.
func ModelNotFound(model string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("model %q is not available", model),
		Type:    "invalid_request_error",
		Code:    "model_not_found",
	}
}

// InvalidAPIKey reports that no usable credential was supplied by the caller
// or the environment.
func InvalidAPIKey() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Message: "no API key found in environment or request headers",
		Type:    "authentication_error",
		Code:    "invalid_api_key",
	}
}

// MissingAPIKey reports a provider that was selected but never configured.
func MissingAPIKey(provider string) *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Message: fmt.Sprintf("%s provider is not configured: missing API key", provider),
		Type:    "configuration_error",
		Code:    "missing_api_key",
	}
}

// Upstream surfaces a non-success upstream status whose error body was
// decodable, defaulting message and code when the body omitted them.
func Upstream(provider string, status int, code, message string) *Error {
	if code == "" {
		code = "unknown_error"
	}
	if message == "" {
		message = "upstream request failed"
	}
	return &Error{
		Status:  status,
		Message: message,
		Type:    provider + "_error",
		Code:    code,
	}
}

// ParseError surfaces a non-success upstream status whose body could not be
// decoded; the raw text is passed through as the message.
func ParseError(provider, raw string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: raw,
		Type:    provider + "_error",
		Code:    "parse_error",
	}
}

// Internal converts any transport or serialization fault into the generic
// proxy error. Nothing propagates to the HTTP layer as an unhandled fault.
func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("proxy error: %v", err),
		Type:    "proxy_error",
		Code:    "internal_error",
	}
}
