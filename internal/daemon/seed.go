package daemon

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/config"
	rolecontroller "github.com/javier19927/proyecto-fullstack-sub002/internal/db/controller/role"
	usercontroller "github.com/javier19927/proyecto-fullstack-sub002/internal/db/controller/user"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

// EventSeed is the bitacora event written when seeding changed the database.
const EventSeed = "INICIALIZACION"

// ErrSeedAdminIncomplete is returned when an admin email is configured without a password.
var ErrSeedAdminIncomplete = errors.New("seed.adminemail requires seed.adminpassword")

// SeedRoles are the fixed roles created on an empty database, in level order.
var SeedRoles = []models.Role{ //nolint:gochecknoglobals
	{Code: string(auth.RoleAdmin), Name: "Administrador", Description: "Configuracion institucional y seguridad", Level: 1},
	{Code: string(auth.RolePlanif), Name: "Planificador", Description: "Objetivos y proyectos de inversion", Level: 2},
	{Code: string(auth.RoleValid), Name: "Validador", Description: "Validacion de objetivos y proyectos", Level: 3},
	{Code: string(auth.RoleRevisor), Name: "Revisor", Description: "Revision tecnica y observaciones", Level: 4},
	{Code: string(auth.RoleAuditor), Name: "Auditor", Description: "Auditoria, bitacora y reportes", Level: 5},
}

// SeedResult tells what Seed created.
type SeedResult struct {
	RolesCreated int
	AdminCreated bool
	AdminID      uint64
}

// Seed creates the missing fixed roles and, when the database has no account yet, the
// configured administrator. Existing rows are never modified, so Seed is safe on every start.
func Seed(ctx context.Context, cfg *config.Config, db *gorm.DB, appender audit.Appender) (SeedResult, error) {
	var res SeedResult

	if cfg == nil {
		return res, config.ErrConfigNil
	}

	tx := db.WithContext(ctx)

	for _, r := range SeedRoles {
		_, err := rolecontroller.Get(tx, r.Code)
		if err == nil {
			continue
		}

		if !errors.Is(err, rolecontroller.ErrRoleNotFound) {
			return res, err
		}

		if _, err = rolecontroller.Create(tx, r); err != nil {
			return res, err
		}

		res.RolesCreated++
	}

	admin, err := seedAdmin(tx, cfg.Seed)
	if err != nil {
		return res, err
	}

	if admin != nil {
		res.AdminCreated = true
		res.AdminID = admin.ID

		log.Warn().Str("email", admin.Email).Msg("initial administrator created, change its password")
	}

	if res.RolesCreated == 0 && !res.AdminCreated {
		return res, nil
	}

	detail := map[string]any{"roles_creados": res.RolesCreated}
	if admin != nil {
		detail["administrador"] = strconv.FormatUint(admin.ID, 10)
	}

	_, err = appender.RecordEvent(ctx, audit.LogEntry{
		EventName:   EventSeed,
		Description: "datos iniciales creados",
		Module:      audit.ModuleSistema,
		Severity:    audit.SeverityInfo,
		Detail:      detail,
	})

	return res, err
}

func seedAdmin(db *gorm.DB, s config.Seed) (*models.User, error) {
	if strings.TrimSpace(s.AdminEmail) == "" {
		return nil, nil //nolint:nilnil
	}

	if s.AdminPassword == "" {
		return nil, ErrSeedAdminIncomplete
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, err
	}

	if count > 0 {
		return nil, nil //nolint:nilnil
	}

	hash, err := models.HashPassword(s.AdminPassword)
	if err != nil {
		return nil, err
	}

	name := s.AdminName
	if name == "" {
		name = "Administrador"
	}

	var created *models.User

	err = db.Transaction(func(tx *gorm.DB) error {
		created, err = usercontroller.Create(tx, models.User{Email: s.AdminEmail, Password: hash, Name: name})
		if err != nil {
			return err
		}

		_, _, err = rolecontroller.Assign(tx, created.ID, string(auth.RoleAdmin), nil, time.Now().UTC())

		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
