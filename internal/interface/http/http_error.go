package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/aduba/pkg/errors"
)

// HTTPError is what the error middleware renders as {"error":{code,message}}.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// domainStatus maps service error codes onto responses. Clients key off the
// codes, and bad credentials are a 400 on both signin routes.
var domainStatus = map[string]struct {
	status  int
	message string
}{
	apperrors.CodeInvalidInput:       {http.StatusBadRequest, ""},
	apperrors.CodeEmailExists:        {http.StatusBadRequest, "email already registered"},
	apperrors.CodeInvalidCredentials: {http.StatusBadRequest, "invalid email or password"},
	apperrors.CodeInvalidToken:       {http.StatusUnauthorized, ""},
	apperrors.CodeUserNotFound:       {http.StatusNotFound, "user not found"},
}

// serviceError converts a domain failure. Unknown codes become a 500 with
// fallback as the code.
func serviceError(err error, fallback string) *HTTPError {
	code := apperrors.CodeOf(err)
	mapped, ok := domainStatus[code]
	if !ok {
		return NewHTTPError(http.StatusInternalServerError, fallback, errMessage(err), err)
	}
	if code == apperrors.CodeInvalidInput {
		code = "invalid_request"
	}
	message := mapped.message
	if message == "" {
		message = errMessage(err)
	}
	return NewHTTPError(mapped.status, code, message, err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
