package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromAppError maps domain error codes onto HTTP statuses.
func fromAppError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.CodeUnhandledEvent:
		status = http.StatusConflict
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeInvalidToken:
		status = http.StatusUnauthorized
	case apperrors.CodeLLM:
		status = http.StatusBadGateway
	case apperrors.CodeRepositoryNotFound, apperrors.CodeRepositoryDecode, apperrors.CodeStorage, apperrors.CodeConfig:
		status = http.StatusInternalServerError
	case "":
		code = "internal_error"
	}
	message := apperrors.MessageOf(err)
	if status >= http.StatusInternalServerError && code == "internal_error" {
		message = "something went wrong"
	}
	return NewHTTPError(status, code, message, err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return fromAppError(err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func abortWithAppError(c *gin.Context, err error) {
	abortWithError(c, fromAppError(err))
}
