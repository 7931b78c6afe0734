package repository

import (
	"errors"
	"strings"

	"look/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DuplicateError reports a unique-index violation on Field.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Field
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// DuplicateField returns the violated field when err is a DuplicateError.
func DuplicateField(err error) (string, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Field, true
	}
	return "", false
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// uniqueViolation maps a unique-index error to a DuplicateError naming the
// first of fields mentioned by the constraint. ok is false for other errors.
func uniqueViolation(err error, fields ...string) (*DuplicateError, bool) {
	if !isUniqueConstraintError(err) {
		return nil, false
	}
	detail := strings.ToLower(err.Error())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		detail = strings.ToLower(pgErr.ConstraintName + " " + pgErr.Detail)
	}
	for _, f := range fields {
		if strings.Contains(detail, f) {
			return &DuplicateError{Field: f, Err: err}, true
		}
	}
	field := ""
	if len(fields) > 0 {
		field = fields[0]
	}
	return &DuplicateError{Field: field, Err: err}, true
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND AppError and wraps
// anything else as INTERNAL_ERROR.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

const maxPageLimit = 100

func (p Page) apply(db *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return db.Limit(limit).Offset(offset)
}
