package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Credential failure codes returned in 401 bodies.
const (
	CodeCredentialMissing = "credential_missing"
	CodeCredentialInvalid = "credential_invalid"
	CodeCredentialExpired = "credential_expired"
)

// UnauthorizedBody is the 401 response payload.
type UnauthorizedBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ForbiddenBody is the 403 response payload.
type ForbiddenBody struct {
	Error string `json:"error"`
	*Denial
}

// Validator verifies a bearer credential taken from the Authorization header.
type Validator interface {
	ValidateHeader(header string) (SessionClaims, error)
}

// Guard is the per-request enforcement pipeline: authenticate, then evaluate
// requirements in order, stopping at the first failure. It keeps no per-request state.
type Guard struct {
	validator Validator
}

// NewGuard creates a guard backed by validator.
func NewGuard(validator Validator) *Guard {
	if validator == nil {
		panic("auth: guard needs a validator")
	}

	return &Guard{validator: validator}
}

// Authenticate only verifies the credential and attaches the claims.
func (g *Guard) Authenticate() fiber.Handler {
	return g.Require()
}

// Require authenticates the caller and checks every requirement.
func (g *Guard) Require(reqs ...Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c.UserContext())
		if !ok {
			var err error

			claims, err = g.validator.ValidateHeader(c.Get(fiber.HeaderAuthorization))
			if err != nil {
				return g.unauthorized(c, err)
			}

			c.SetUserContext(WithClaims(c.UserContext(), claims))
		}

		for _, r := range reqs {
			if denial := r.evaluate(c, claims); denial != nil {
				return g.forbidden(c, claims, denial)
			}
		}

		decisions.WithLabelValues(outcomeAllow, "").Inc()

		return c.Next()
	}
}

func (g *Guard) unauthorized(c *fiber.Ctx, err error) error {
	code := CredentialCode(err)

	log.Warn().Err(err).
		Str("code", code).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("ip", c.IP()).
		Msg("credential rejected")

	decisions.WithLabelValues(outcomeUnauthorized, code).Inc()

	return c.Status(fiber.StatusUnauthorized).JSON(UnauthorizedBody{
		Error:   "unauthorized",
		Code:    code,
		Message: credentialMessage(code),
	})
}

func (g *Guard) forbidden(c *fiber.Ctx, claims SessionClaims, denial *Denial) error {
	perms := make([]string, len(denial.Required))
	for i, p := range denial.Required {
		perms[i] = string(p)
	}

	log.Warn().
		Uint64("user_id", claims.UserID).
		Strs("roles", denial.Roles).
		Str("mode", denial.Mode).
		Strs("required", perms).
		Str("module", string(denial.Module)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("access denied")

	decisions.WithLabelValues(outcomeForbidden, denial.Mode).Inc()

	return c.Status(fiber.StatusForbidden).JSON(ForbiddenBody{Error: "forbidden", Denial: denial})
}

// CredentialCode maps a validation error to its 401 code.
func CredentialCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return CodeCredentialMissing
	case errors.Is(err, ErrExpiredCredential):
		return CodeCredentialExpired
	default:
		return CodeCredentialInvalid
	}
}

func credentialMessage(code string) string {
	switch code {
	case CodeCredentialMissing:
		return "authorization bearer credential is required"
	case CodeCredentialExpired:
		return "credential has expired, refresh or log in again"
	default:
		return "credential is malformed or its signature is invalid"
	}
}

// Claims returns the claims attached by the guard, or false on unguarded routes.
func Claims(c *fiber.Ctx) (SessionClaims, bool) {
	return ClaimsFromContext(c.UserContext())
}
