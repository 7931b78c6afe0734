// Package service provides application business logic (auth, users, posts, comments, chats).
package service

import (
	"context"
	"sort"
	"strings"

	"look/internal/auth"
	"look/internal/models"
	"look/internal/observability"
	"look/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func startSpan(ctx context.Context, service, method string, actor *auth.Identity) (context.Context, trace.Span) {
	if actor == nil {
		return observability.StartServiceSpan(ctx, service, method)
	}
	return observability.StartServiceSpan(ctx, service, method,
		attribute.Int64("user.id", int64(actor.UserID)))
}

// duplicateUserError renders a username/email unique violation with prefix
// ("Error: " on registration, empty elsewhere).
func duplicateUserError(err error, prefix string) error {
	field, ok := repository.DuplicateField(err)
	if !ok {
		return err
	}
	if field == "email" {
		return models.NewValidationError(prefix + "Email is already in use!")
	}
	return models.NewValidationError(prefix + "Username is already taken!")
}

// resolveRoles checks names against the roles table and returns the set.
func resolveRoles(ctx context.Context, roles repository.RoleRepository, names []string) (models.RoleSet, error) {
	requested := models.NewRoleSet(names...)
	if len(requested) == 0 {
		return nil, models.NewValidationError("At least one role is required")
	}
	found, err := roles.FindExisting(ctx, requested)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(found))
	for _, name := range found {
		known[name] = true
	}
	var missing []string
	for _, name := range requested {
		if !known[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, models.NewValidationError("Invalid role(s) specified: [" + strings.Join(missing, ", ") + "]")
	}
	return requested, nil
}

func requireAdmin(actor auth.Identity) error {
	if !actor.IsAdmin() {
		return models.NewForbiddenError("Access Denied: insufficient role")
	}
	return nil
}

func requireSuperAdmin(actor auth.Identity) error {
	if !actor.IsSuperAdmin() {
		return models.NewForbiddenError("Access Denied: insufficient role")
	}
	return nil
}
