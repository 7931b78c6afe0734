package models

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message"`
	Code      int         `json:"code"`
	Data      interface{} `json:"data"`
}

// NewEnvelope stamps an envelope with the current time.
func NewEnvelope(status int, message string, data interface{}) Envelope {
	return Envelope{
		Timestamp: time.Now().UTC(),
		Message:   message,
		Code:      status,
		Data:      data,
	}
}

// Respond writes a success envelope.
func Respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(NewEnvelope(status, message, data))
}

// StatusForError maps an error to its HTTP status via the AppError code.
func StatusForError(err error) int {
	switch ErrorCode(err) {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeValidation, CodeFieldValidation:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error envelope. Internal causes are
// never exposed to the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	message := "An unexpected internal server error occurred"
	var data interface{}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code != CodeInternal {
			message = appErr.Message
		}
		if len(appErr.Fields) > 0 {
			data = appErr.Fields
		}
	} else if status < fiber.StatusInternalServerError && err != nil {
		message = err.Error()
	}

	return c.Status(status).JSON(NewEnvelope(status, message, data))
}

// RespondError picks the status from err and writes the error envelope.
func RespondError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusForError(err), err)
}
