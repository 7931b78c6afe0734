package server

import (
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"look/internal/auth"
	"look/internal/middleware"
	"look/internal/models"
	"look/internal/repository"
	"look/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit   = 20
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) repository.Page {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return repository.Page{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint. The error
// message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + humanizeParam(param))
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// bindBody decodes the JSON body into dst and validates its tags.
func bindBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	if fields := validation.Struct(dst); fields != nil {
		return models.NewFieldValidationError(fields)
	}
	return nil
}

// identity returns the caller resolved by middleware.Identify. The policy
// table guarantees one on every non-public route.
func identity(c *fiber.Ctx) (auth.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, models.NewUnauthorizedError(MessageAuthRequired)
	}
	return id, nil
}

// respondError writes err as an envelope, logging internal causes.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusForError(err)
	if status >= fiber.StatusInternalServerError {
		var appErr *models.AppError
		cause := err
		if errors.As(err, &appErr) && appErr.Err != nil {
			cause = appErr.Err
		}
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()), slog.String("error", cause.Error()))
	}
	return models.RespondWithError(c, status, err)
}

// ErrorHandler renders errors escaping handlers (unknown routes, wrong
// methods, panics recovered upstream) in the response envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		message := fe.Message
		if fe.Code >= fiber.StatusInternalServerError {
			message = "An unexpected internal server error occurred"
		}
		return c.Status(fe.Code).JSON(models.NewEnvelope(fe.Code, message, nil))
	}
	return respondError(c, err)
}
