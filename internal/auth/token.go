package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTokenTTL is the lifetime of a freshly minted credential.
	DefaultTokenTTL = 8 * time.Hour

	// DefaultIssuer is written to the iss claim when none is configured.
	DefaultIssuer = "planificacion"

	bearerPrefix = "bearer "
)

// TokenConfig configures credential signing and verification.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

// credential is the signed payload. Field names follow the wire format consumed by the dashboard.
type credential struct {
	UserID        uint64   `json:"userId"`
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	InstitutionID *uint64  `json:"institucion_id,omitempty"`
	jwt.RegisteredClaims
}

// Tokens mints and verifies HS256 credentials. Verification is CPU-bound only.
type Tokens struct {
	cfg    TokenConfig
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokens validates cfg and returns a ready Tokens.
func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}

	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenTTL
	}

	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}

	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}

	t := &Tokens{cfg: cfg, now: time.Now}
	t.buildParser()

	return t, nil
}

// WithClock returns a copy of t that reads the current time from now.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	c := &Tokens{cfg: t.cfg, now: now}
	c.buildParser()

	return c
}

// TTL returns the configured credential lifetime.
func (t *Tokens) TTL() time.Duration {
	return t.cfg.TTL
}

func (t *Tokens) buildParser() {
	t.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithLeeway(t.cfg.Leeway),
		jwt.WithTimeFunc(t.now),
	)
}

// Issue signs a credential for the given identity and returns it with the claims it carries.
func (t *Tokens) Issue(userID uint64, email string, roles []string, institutionID *uint64) (string, SessionClaims, error) {
	now := t.now().UTC().Truncate(time.Second)
	exp := now.Add(t.cfg.TTL)
	claims := NewSessionClaims(userID, email, roles, institutionID, now, exp)

	payload := credential{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Roles:         claims.Roles(),
		InstitutionID: claims.InstitutionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(t.cfg.Secret)
	if err != nil {
		return "", SessionClaims{}, fmt.Errorf("sign credential: %w", err)
	}

	return signed, claims, nil
}

// Validate verifies raw and decodes it into SessionClaims. A tampered credential is
// reported as ErrInvalidCredential before its expiry is considered.
func (t *Tokens) Validate(raw string) (SessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SessionClaims{}, ErrMissingCredential
	}

	var payload credential

	token, err := t.parser.ParseWithClaims(raw, &payload, func(_ *jwt.Token) (any, error) {
		return t.cfg.Secret, nil
	})

	switch {
	case err == nil && token.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return SessionClaims{}, fmt.Errorf("%w: %w", ErrExpiredCredential, err)
	case err != nil:
		return SessionClaims{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	default:
		return SessionClaims{}, ErrInvalidCredential
	}

	// WithIssuedAt only checks iat when it is present
	if payload.IssuedAt == nil {
		return SessionClaims{}, fmt.Errorf("%w: missing issued at", ErrInvalidCredential)
	}

	if payload.UserID == 0 || payload.Subject != strconv.FormatUint(payload.UserID, 10) {
		return SessionClaims{}, fmt.Errorf("%w: subject does not match user id", ErrInvalidCredential)
	}

	return NewSessionClaims(
		payload.UserID,
		payload.Email,
		payload.Roles,
		payload.InstitutionID,
		payload.IssuedAt.Time,
		payload.ExpiresAt.Time,
	), nil
}

// ValidateHeader extracts the bearer credential from an Authorization header value and validates it.
func (t *Tokens) ValidateHeader(header string) (SessionClaims, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return SessionClaims{}, err
	}

	return t.Validate(raw)
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrMissingCredential
	}

	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" {
		return "", ErrMissingCredential
	}

	return raw, nil
}
