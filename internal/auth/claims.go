package auth

import (
	"context"
	"slices"
	"time"
)

// SessionClaims is the verified identity of the caller for one request.
// It is built from the signed credential only and is never mutated afterwards;
// accessors hand out copies.
type SessionClaims struct {
	UserID        uint64
	Email         string
	roles         []string
	InstitutionID *uint64
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// NewSessionClaims builds claims with a deduplicated copy of roles.
func NewSessionClaims(userID uint64, email string, roles []string, institutionID *uint64, iat, exp time.Time) SessionClaims {
	c := SessionClaims{
		UserID:    userID,
		Email:     email,
		roles:     dedupe(roles),
		IssuedAt:  iat,
		ExpiresAt: exp,
	}

	if institutionID != nil {
		id := *institutionID
		c.InstitutionID = &id
	}

	return c
}

// Roles returns a copy of the role codes carried by the credential.
func (c SessionClaims) Roles() []string {
	out := make([]string, len(c.roles))
	copy(out, c.roles)

	return out
}

// HasRole reports whether the credential carries role.
func (c SessionClaims) HasRole(role RoleCode) bool {
	return slices.Contains(c.roles, string(role))
}

// Identity is the handler-facing view of the caller.
type Identity struct {
	ID            uint64   `json:"id"`
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	InstitutionID *uint64  `json:"institucion_id,omitempty"`
}

// Identity returns the handler-facing identity.
func (c SessionClaims) Identity() Identity {
	id := Identity{ID: c.UserID, Email: c.Email, Roles: c.Roles()}

	if c.InstitutionID != nil {
		inst := *c.InstitutionID
		id.InstitutionID = &inst
	}

	return id
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))

	for _, v := range in {
		if v == "" || slices.Contains(out, v) {
			continue
		}

		out = append(out, v)
	}

	return out
}

type claimsContextKey struct{}

// WithClaims returns a child context carrying claims.
func WithClaims(ctx context.Context, claims SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims attached by the guard.
func ClaimsFromContext(ctx context.Context) (SessionClaims, bool) {
	if ctx == nil {
		return SessionClaims{}, false
	}

	c, ok := ctx.Value(claimsContextKey{}).(SessionClaims)

	return c, ok
}

// ActorID returns the caller's user id, or nil for unauthenticated contexts.
func ActorID(ctx context.Context) *uint64 {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil
	}

	id := c.UserID

	return &id
}
