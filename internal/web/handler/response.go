package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
)

type (
	// ErrorBody is the payload of every non-2xx response written by the handlers.
	ErrorBody struct {
		Error   string       `json:"error"`
		Message string       `json:"message,omitempty"`
		Fields  []FieldError `json:"campos,omitempty"`
	}

	// FieldError is one failed validation rule.
	FieldError struct {
		Field string `json:"campo"`
		Tag   string `json:"regla"`
		Param string `json:"parametro,omitempty"`
	}

	// ValidationError carries every failed rule of a request payload.
	ValidationError struct {
		Fields []FieldError
	}
)

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = "field '" + f.Field + "' failed validation tag '" + f.Tag + "'"
	}

	return strings.Join(parts, "; ")
}

var validate = newValidator() //nolint:gochecknoglobals

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report the wire name, not the Go field name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "params"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}

		return f.Name
	})

	return v
}

// Validate checks data against its validate tags.
func Validate(data any) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	out := &ValidationError{Fields: make([]FieldError, len(validationErrors))}
	for i, ve := range validationErrors {
		out.Fields[i] = FieldError{Field: ve.Field(), Tag: ve.Tag(), Param: ve.Param()}
	}

	return out
}

// Bind parses the JSON body into dst and validates it.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}

	return Validate(dst)
}

// Normalizer is implemented by payloads that clean their fields up before validation.
type Normalizer interface {
	Normalize()
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BindQuery parses the query string into dst and validates it.
func BindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query string")
	}

	return Validate(dst)
}

// Actor returns the authenticated caller id, nil on unguarded routes.
func Actor(c *fiber.Ctx) *uint64 {
	return auth.ActorID(c.UserContext())
}

// Client returns the caller address and user agent recorded in audit rows.
func Client(c *fiber.Ctx) (ip, userAgent string) {
	return c.IP(), c.Get(fiber.HeaderUserAgent)
}

// ErrorHandler is the fiber error handler of the API. A failed audit or bitacora
// write answers 500 audit_failed even when the business effect was committed.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		validationErr *ValidationError
		fiberErr      *fiber.Error
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorBody{
			Error:   "validation_failed",
			Message: validationErr.Error(),
			Fields:  validationErr.Fields,
		})
	case errors.Is(err, audit.ErrInvalidAuditEntry),
		errors.Is(err, audit.ErrInvalidLogEntry),
		errors.Is(err, audit.ErrAppendFailed):
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Interface("actor_id", Actor(c)).
			Msg("request effect could not be audited")

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorBody{
			Error:   ErrCodeAuditFailed,
			Message: "the operation could not be recorded in the audit trail",
		})
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(ErrorBody{Error: statusCode(fiberErr.Code), Message: fiberErr.Message})
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled request error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorBody{Error: "internal_error"})
}

func statusCode(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return "bad_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusConflict:
		return "conflict"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case fiber.StatusServiceUnavailable:
		return "unavailable"
	default:
		if status >= fiber.StatusInternalServerError {
			return "internal_error"
		}

		return "error"
	}
}
