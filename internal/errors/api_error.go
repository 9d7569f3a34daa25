package errors

import "net/http"

// APIError is the error shape returned by services and rendered by handlers
// as {"error": {...}}.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

// InvalidField is a BadRequest that names the offending field in details.
func InvalidField(code, field, message string) *APIError {
	err := BadRequest(code, message)
	err.Details = map[string]string{"field": field}
	return err
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}
