package api

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shelf-service/internal/service"
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_ERROR"
)

func statusToErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return CodeBadRequest
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return CodeNotFound
	case fiber.StatusConflict:
		return CodeConflict
	case fiber.StatusTooManyRequests:
		return CodeTooManyRequests
	default:
		return CodeInternal
	}
}

func Success(c *fiber.Ctx, status int, data interface{}, message string) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data, Message: message})
}

func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Error: statusToErrorCode(status), Message: message})
}

// ValidationFailed renders validator errors as a single readable message.
func ValidationFailed(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return Fail(c, fiber.StatusBadRequest, "Invalid input")
	}

	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}

	return Fail(c, fiber.StatusBadRequest, "Invalid input: "+strings.Join(parts, "; "))
}

// ServiceError maps service error kinds onto statuses. Anything unrecognised is logged and
// reported as an internal error without leaking the cause.
func ServiceError(c *fiber.Ctx, err error) error {
	kinds := []struct {
		kind   error
		status int
	}{
		{service.ErrValidation, fiber.StatusBadRequest},
		{service.ErrUnauthorized, fiber.StatusUnauthorized},
		{service.ErrConflict, fiber.StatusConflict},
		{service.ErrNotFound, fiber.StatusNotFound},
	}

	for _, k := range kinds {
		if errors.Is(err, k.kind) {
			return Fail(c, k.status, kindMessage(err, k.kind))
		}
	}

	slog.ErrorContext(c.UserContext(), "Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return Fail(c, fiber.StatusInternalServerError, "Internal server error")
}

func kindMessage(err, kind error) string {
	msg := strings.TrimPrefix(err.Error(), kind.Error()+": ")
	if msg == "" {
		return kind.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// ErrorHandler renders errors that escape handlers, fiber's own included, as an envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Fail(c, fe.Code, fe.Message)
	}

	return ServiceError(c, err)
}
