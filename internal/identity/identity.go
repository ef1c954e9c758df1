// Package identity issues credentials: it checks passwords, derives the user's current
// role set from live assignments and signs it into a bearer token.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/controller/role"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

// Bitacora event names written by the service.
const (
	EventLogin        = "LOGIN"
	EventLoginFailed  = "LOGIN_FALLIDO"
	EventTokenRefresh = "RENOVAR_TOKEN"
)

// ErrUserNotFound is returned when no account has the requested id.
var ErrUserNotFound = errors.New("user not found")

// Issued is a freshly signed credential.
type Issued struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expira"`
	User      auth.Identity     `json:"usuario"`
	Perms     []auth.Permission `json:"permisos"`
}

// Service issues credentials backed by db.
type Service struct {
	db       *gorm.DB
	tokens   *auth.Tokens
	recorder audit.Appender
	unknown  func(password string)
}

// NewService creates the service.
func NewService(db *gorm.DB, tokens *auth.Tokens, recorder audit.Appender) *Service {
	return &Service{db: db, tokens: tokens, recorder: recorder, unknown: models.VerifyUnknownAccount}
}

// Login checks email and password and issues a credential with the user's current
// roles. Both outcomes are written to the bitacora; a failure to write them fails
// the login.
func (s *Service) Login(ctx context.Context, email, password, ip string) (Issued, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.verify(ctx, email, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidLogin) && !errors.Is(err, auth.ErrUserInactive) {
			return Issued{}, err
		}

		var actor *uint64
		if u != nil {
			actor = &u.ID
		}

		_, rerr := s.recorder.RecordEvent(ctx, audit.LogEntry{
			EventName:   EventLoginFailed,
			Description: "intento de inicio de sesion fallido",
			Module:      audit.ModuleAutenticacion,
			Severity:    audit.SeverityWarning,
			Actor:       actor,
			IP:          ip,
			Detail:      map[string]string{"email": email, "motivo": err.Error()},
		})
		if rerr != nil {
			return Issued{}, rerr
		}

		return Issued{}, err
	}

	issued, err := s.issueFor(ctx, u)
	if err != nil {
		return Issued{}, err
	}

	_, err = s.recorder.RecordEvent(ctx, audit.LogEntry{
		EventName:   EventLogin,
		Description: "inicio de sesion",
		Module:      audit.ModuleAutenticacion,
		Severity:    audit.SeverityInfo,
		Actor:       &u.ID,
		IP:          ip,
		Detail:      map[string]any{"roles": issued.User.Roles},
	})
	if err != nil {
		return Issued{}, err
	}

	return issued, nil
}

func (s *Service) verify(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, auth.ErrInvalidLogin
	}

	var u models.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.unknown(password)
		return nil, auth.ErrInvalidLogin
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !u.VerifyPassword(password) {
		return &u, auth.ErrInvalidLogin
	}

	if !u.Active {
		return &u, auth.ErrUserInactive
	}

	return &u, nil
}

// Issue signs a credential for userID with the roles the user holds right now.
func (s *Service) Issue(ctx context.Context, userID uint64) (Issued, error) {
	var u models.User

	err := s.db.WithContext(ctx).First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Issued{}, ErrUserNotFound
	}

	if err != nil {
		return Issued{}, fmt.Errorf("failed to query user: %w", err)
	}

	if !u.Active {
		return Issued{}, auth.ErrUserInactive
	}

	return s.issueFor(ctx, &u)
}

// Refresh reissues the caller's credential. Identity is preserved, roles are
// re-derived from the current assignments.
func (s *Service) Refresh(ctx context.Context, claims auth.SessionClaims, ip string) (Issued, error) {
	issued, err := s.Issue(ctx, claims.UserID)
	if err != nil {
		return Issued{}, err
	}

	_, err = s.recorder.RecordEvent(ctx, audit.LogEntry{
		EventName:   EventTokenRefresh,
		Description: "renovacion de credencial",
		Module:      audit.ModuleAutenticacion,
		Severity:    audit.SeverityInfo,
		Actor:       &claims.UserID,
		IP:          ip,
		Detail:      map[string]any{"roles_anteriores": claims.Roles(), "roles": issued.User.Roles},
	})
	if err != nil {
		return Issued{}, err
	}

	return issued, nil
}

func (s *Service) issueFor(ctx context.Context, u *models.User) (Issued, error) {
	codes, err := role.ActiveRoleCodes(s.db.WithContext(ctx), u.ID)
	if err != nil {
		return Issued{}, fmt.Errorf("failed to load roles: %w", err)
	}

	for _, c := range codes {
		if !auth.IsKnownRole(auth.RoleCode(c)) {
			// stays in the credential but grants nothing
			log.Warn().Uint64("user_id", u.ID).Str("role", c).Msg("assigned role has no permission matrix entry")
		}
	}

	token, claims, err := s.tokens.Issue(u.ID, u.Email, codes, u.InstitutionID)
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
		User:      claims.Identity(),
		Perms:     auth.EffectivePermissions(codes),
	}, nil
}
