package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
)

const dayLayout = "2006-01-02"

// ParseBound reads a date filter. A bare day (2006-01-02) starts at 00:00 UTC, or
// ends at the last instant of the day when endOfDay is set. RFC 3339 timestamps are
// taken as given. An empty value means no bound.
func ParseBound(name, value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil //nolint:nilnil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}

	t, err := time.Parse(dayLayout, value)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, name+" must be a date (2006-01-02) or an RFC 3339 timestamp")
	}

	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return &t, nil
}

// Window builds the time part of a filter from desde/hasta query values.
func Window(desde, hasta string) (from, to *time.Time, err error) {
	if from, err = ParseBound("desde", desde, false); err != nil {
		return nil, nil, err
	}

	if to, err = ParseBound("hasta", hasta, true); err != nil {
		return nil, nil, err
	}

	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "desde must not be after hasta")
	}

	return from, to, nil
}

// OptionalID turns a zero id into no filter.
func OptionalID(id uint64) *uint64 {
	if id == 0 {
		return nil
	}

	return &id
}

// ParamID reads a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a positive integer")
	}

	return id, nil
}

// Page builds a page request; clamping happens in the log.
func Page(page, limit int) audit.PageRequest {
	return audit.PageRequest{Page: page, Limit: limit}
}
