package filterkit

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoOutput engine produced no output image
	ErrNoOutput = NewError("no output image", http.StatusUnprocessableEntity)
	// ErrNoImage missing input image or engine
	ErrNoImage = NewError("no input image", http.StatusBadRequest)
	// ErrUnknownFilter filter name not recognized
	ErrUnknownFilter = NewError("unknown filter", http.StatusBadRequest)
	// ErrUnsupportedFilter filter recognized but not supported by the engine
	ErrUnsupportedFilter = NewError("unsupported filter", http.StatusNotImplemented)
	// ErrInvalidParams filter parameters missing or malformed
	ErrInvalidParams = NewError("invalid filter params", http.StatusBadRequest)
	// ErrInvalidCube color cube entry count is not a perfect cube
	ErrInvalidCube = NewError("invalid color cube", http.StatusBadRequest)
	// ErrPass signal to pass to the next processor
	ErrPass = NewError("pass", http.StatusNotImplemented)
	// ErrNotFound not found error
	ErrNotFound = NewError("not found", http.StatusNotFound)
	// ErrInvalid syntactic invalid path error
	ErrInvalid = NewError("invalid", http.StatusBadRequest)
	// ErrMethodNotAllowed method not allowed error
	ErrMethodNotAllowed = NewError("method not allowed", http.StatusMethodNotAllowed)
	// ErrSignatureMismatch URL signature mismatch error
	ErrSignatureMismatch = NewError("url signature mismatch", http.StatusForbidden)
	// ErrTimeout timeout error
	ErrTimeout = NewError("timeout", http.StatusRequestTimeout)
	// ErrExpired expire error
	ErrExpired = NewError("expired", http.StatusGone)
	// ErrUnsupportedFormat unsupported format error
	ErrUnsupportedFormat = NewError("unsupported format", http.StatusNotAcceptable)
	// ErrMaxSizeExceeded maximum size exceeded error
	ErrMaxSizeExceeded = NewError("maximum size exceeded", http.StatusBadRequest)
	// ErrMaxResolutionExceeded maximum resolution exceeded error
	ErrMaxResolutionExceeded = NewError("maximum resolution exceeded", http.StatusUnprocessableEntity)
	// ErrTooManyRequests too many requests error
	ErrTooManyRequests = NewError("too many requests", http.StatusTooManyRequests)
	// ErrInternal internal error
	ErrInternal = NewError("internal error", http.StatusInternalServerError)
)

const errPrefix = "filterkit:"

// errMsgRegexp matches the Error string form, for errors flattened to text
var errMsgRegexp = regexp.MustCompile(`^` + errPrefix + ` ([0-9]+) (.*)$`)

// Error carries an HTTP status code along with the message
type Error struct {
	Message string `json:"message,omitempty"`
	Code    int    `json:"status,omitempty"`
}

// Error implements error
func (e Error) Error() string {
	return errPrefix + " " + strconv.Itoa(e.Code) + " " + e.Message
}

// Timeout reports whether the status code is a timeout
func (e Error) Timeout() bool {
	switch e.Code {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// NewError creates Error from message and status code
func NewError(msg string, code int) Error {
	return Error{Message: msg, Code: code}
}

// NewErrorFromStatusCode creates Error with the status text of code
func NewErrorFromStatusCode(code int) Error {
	return NewError(http.StatusText(code), code)
}

// IsPass reports whether err signals falling through to the next processor
func IsPass(err error) bool {
	return errors.Is(err, ErrPass) || errors.Is(err, ErrUnsupportedFilter)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	t, ok := err.(interface{ Timeout() bool })
	return ok && t.Timeout()
}

// WrapError converts err into Error, keeping the status code of a wrapped Error.
// Falling through every processor reads as ErrUnsupportedFilter
func WrapError(err error) Error {
	if err == nil {
		return ErrInternal
	}
	if IsPass(err) {
		return ErrUnsupportedFilter
	}
	if e, ok := err.(Error); ok {
		return e
	}
	if isTimeout(err) {
		return ErrTimeout
	}
	msg := err.Error()
	var inner Error
	if errors.As(err, &inner) {
		// strip the prefix and code of every joined Error with the same code
		tag := errPrefix + " " + strconv.Itoa(inner.Code) + " "
		msg = strings.ReplaceAll(strings.ReplaceAll(msg, "\n", "; "), tag, "")
		return NewError(msg, inner.Code)
	}
	if m := errMsgRegexp.FindStringSubmatch(msg); m != nil {
		code, _ := strconv.Atoi(m[1])
		return NewError(m[2], code)
	}
	return NewError(strings.ReplaceAll(msg, "\n", ""), http.StatusInternalServerError)
}
