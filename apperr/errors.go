package apperr

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// Kind classifies an error so the handler boundary can pick a status code
// without inspecting messages.
type Kind int

const (
	KindUnauthorized Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindProcessor
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// Processor wraps a payment-processor failure. The processor's own message is
// surfaced to the caller.
func Processor(message string, err error) *Error {
	return &Error{Kind: KindProcessor, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

func codeOf(kind Kind) (int, string) {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case KindForbidden:
		return http.StatusForbidden, "FORBIDDEN"
	case KindInvalidState, KindProcessor:
		return http.StatusBadRequest, "BAD_REQUEST"
	default:
		return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
	}
}

// Respond writes the tagged {code, message} body for err. Unknown error types
// are reported as INTERNAL_SERVER_ERROR, never as an auth failure.
func Respond(c fiber.Ctx, err error) error {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = &Error{Kind: KindInternal, Message: "something went wrong", Err: err}
	}

	status, code := codeOf(appErr.Kind)
	return c.Status(status).JSON(fiber.Map{
		"code":    code,
		"message": appErr.Message,
	})
}
