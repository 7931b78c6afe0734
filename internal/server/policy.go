package server

import (
	"strings"

	"look/internal/auth"
	"look/internal/middleware"
	"look/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Policy denial messages.
const (
	MessageAuthRequired = "Authentication required"
	MessageAccessDenied = "Access Denied: insufficient role"
)

// Access is what a Rule demands of the caller.
type Access int

const (
	// Authenticated requires any verified identity.
	Authenticated Access = iota
	// Public lets anonymous callers through.
	Public
	// RolesRequired requires one of Rule.Roles.
	RolesRequired
)

// Rule maps a method and path patterns to an access requirement. Method "*"
// matches every method. In a pattern "*" matches one segment and a trailing
// "/**" matches the remaining path, including none.
type Rule struct {
	Method   string
	Patterns []string
	Access   Access
	Roles    []string
}

var (
	anyTier   = []string{models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin}
	adminTier = []string{models.RoleAdmin, models.RoleSuperAdmin}
	superTier = []string{models.RoleSuperAdmin}
)

// DefaultRules is the route access table. The first matching rule wins;
// requests matching no rule require authentication.
var DefaultRules = []Rule{
	{Method: "*", Patterns: []string{"/api/auth/**"}, Access: Public},
	{Method: fiber.MethodGet, Patterns: []string{"/health/**", "/metrics", "/api/swagger/**"}, Access: Public},
	{Method: fiber.MethodGet, Patterns: []string{"/api/v1/posts", "/api/v1/posts/**"}, Access: Public},
	{Method: fiber.MethodPost, Patterns: []string{"/api/v1/posts"}, Access: RolesRequired, Roles: anyTier},
	{Method: fiber.MethodGet, Patterns: []string{"/api/v1/users/me", "/api/v1/users/me/**"}, Access: Authenticated},
	{Method: fiber.MethodGet, Patterns: []string{"/api/v1/users"}, Access: RolesRequired, Roles: adminTier},
	{Method: fiber.MethodPost, Patterns: []string{"/api/v1/users"}, Access: RolesRequired, Roles: adminTier},
	{Method: fiber.MethodGet, Patterns: []string{"/api/v1/users/*/comments"}, Access: RolesRequired, Roles: adminTier},
	{Method: fiber.MethodGet, Patterns: []string{
		"/api/v1/users/*/followers",
		"/api/v1/users/*/following",
		"/api/v1/users/*/posts",
	}, Access: Authenticated},
	{Method: fiber.MethodGet, Patterns: []string{"/api/v1/users/*"}, Access: RolesRequired, Roles: adminTier},
	{Method: fiber.MethodPut, Patterns: []string{"/api/v1/users/me"}, Access: Authenticated},
	{Method: fiber.MethodPut, Patterns: []string{"/api/v1/users/*/roles"}, Access: RolesRequired, Roles: superTier},
	{Method: fiber.MethodPut, Patterns: []string{"/api/v1/users/*"}, Access: RolesRequired, Roles: adminTier},
	{Method: fiber.MethodPatch, Patterns: []string{"/api/v1/users/*/status"}, Access: RolesRequired, Roles: adminTier},
	{Method: fiber.MethodDelete, Patterns: []string{"/api/v1/users/*"}, Access: RolesRequired, Roles: superTier},
	{Method: "*", Patterns: []string{"/api/v1/admin/**"}, Access: RolesRequired, Roles: adminTier},
}

// Policy evaluates a rule table against each request. It is immutable after
// construction.
type Policy struct {
	rules []compiledRule
}

type compiledRule struct {
	Rule
	patterns [][]string
}

// NewPolicy compiles rules in order.
func NewPolicy(rules []Rule) *Policy {
	p := &Policy{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		cr := compiledRule{Rule: r}
		for _, pattern := range r.Patterns {
			cr.patterns = append(cr.patterns, splitPath(pattern))
		}
		p.rules = append(p.rules, cr)
	}
	return p
}

// Match returns the first rule matching method and path.
func (p *Policy) Match(method, path string) (Rule, bool) {
	segments := splitPath(path)
	for _, r := range p.rules {
		if r.Method != "*" && !strings.EqualFold(r.Method, method) {
			continue
		}
		for _, pattern := range r.patterns {
			if matchSegments(pattern, segments) {
				return r.Rule, true
			}
		}
	}
	return Rule{Access: Authenticated}, false
}

// Check returns nil when id (nil for anonymous callers) may use the route.
func (p *Policy) Check(method, path string, id *auth.Identity) error {
	rule, _ := p.Match(method, path)
	if rule.Access == Public {
		return nil
	}
	if id == nil {
		return models.NewUnauthorizedError(MessageAuthRequired)
	}
	if rule.Access == RolesRequired && !id.Roles.HasAny(rule.Roles...) {
		return models.NewForbiddenError(MessageAccessDenied)
	}
	return nil
}

// Handler enforces the policy before any route handler runs. It must follow
// middleware.Identify.
func (p *Policy) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var caller *auth.Identity
		if id, ok := middleware.IdentityFrom(c); ok {
			caller = &id
		}
		if err := p.Check(c.Method(), c.Path(), caller); err != nil {
			return models.RespondError(c, err)
		}
		return c.Next()
	}
}

// splitPath lower-cases path and drops empty segments. Rule patterns are
// lower case, so a request matches the same rule however it is spelled.
func splitPath(path string) []string {
	return strings.FieldsFunc(strings.ToLower(path), func(r rune) bool { return r == '/' })
}

func matchSegments(pattern, path []string) bool {
	for i, seg := range pattern {
		if seg == "**" && i == len(pattern)-1 {
			return true
		}
		if i >= len(path) {
			return false
		}
		if seg != "*" && seg != path[i] {
			return false
		}
	}
	return len(pattern) == len(path)
}
