package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingCredential is returned when the request carries no bearer credential.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential is returned when the credential is malformed or its signature does not verify.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrExpiredCredential is returned when a correctly signed credential is past its expiry.
	ErrExpiredCredential = errors.New("expired credential")

	// ErrForbidden is returned when the caller's roles do not satisfy a requirement.
	ErrForbidden = errors.New("forbidden")

	// ErrUnknownRole is returned when a role code has no entry in the permission matrix.
	ErrUnknownRole = errors.New("role has no permission matrix entry")

	// ErrInvalidLogin is returned when email or password do not match an account.
	ErrInvalidLogin = errors.New("invalid email or password")

	// ErrUserInactive is returned when credentials are requested for a disabled account.
	ErrUserInactive = errors.New("user account is inactive")

	// ErrEmptySecret is returned when the signing secret is empty.
	ErrEmptySecret = errors.New("token signing secret is empty")

	// ErrInvalidTTL is returned when the credential lifetime is not positive.
	ErrInvalidTTL = errors.New("token ttl must be greater than zero")
)

// Denial describes a failed authorization check. It wraps ErrForbidden.
type Denial struct {
	// Mode is the kind of check that failed (permission, any, all, module, admin, self_or_admin).
	Mode string `json:"mode"`
	// Required lists the permissions the check asked for.
	Required []Permission `json:"required,omitempty"`
	// Module is set for module access checks.
	Module Module `json:"module,omitempty"`
	// Roles are the role codes the caller actually holds.
	Roles []string `json:"roles"`
}

func (d *Denial) Error() string {
	var want string

	switch {
	case d.Module != "":
		want = "module " + string(d.Module)
	case len(d.Required) > 0:
		parts := make([]string, len(d.Required))
		for i, p := range d.Required {
			parts[i] = string(p)
		}

		want = d.Mode + " of [" + strings.Join(parts, ",") + "]"
	default:
		want = d.Mode
	}

	return fmt.Sprintf("%s: requires %s, roles held %v", ErrForbidden, want, d.Roles)
}

// Unwrap allows errors.Is(err, ErrForbidden).
func (d *Denial) Unwrap() error {
	return ErrForbidden
}
