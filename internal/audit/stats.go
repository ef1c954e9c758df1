package audit

import (
	"context"
	"time"
)

const dayLayout = "2006-01-02"

// Count is one group of a rollup.
type Count struct {
	Key   string `gorm:"column:clave" json:"clave"`
	Total int64  `gorm:"column:total" json:"total"`
}

// DayCount is one day of the daily activity series, in UTC.
type DayCount struct {
	Date  string `json:"fecha"`
	Total int64  `json:"total"`
}

// Stats is the dashboard rollup of one stream. Headline groups cover WindowDays,
// Daily covers DailyDays and always has one entry per day, oldest first.
type Stats struct {
	Since      time.Time  `json:"desde"`
	WindowDays int        `json:"ventana_dias"`
	Total      int64      `json:"total"`
	ByKind     []Count    `json:"por_tipo"`
	ByScope    []Count    `json:"por_ambito"`
	Top        []Count    `json:"top"`
	DailyDays  int        `json:"ventana_diaria_dias"`
	Daily      []DayCount `json:"actividad_diaria"`
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Stats computes the rollups relative to the current time.
func (l *EventLog[T]) Stats(ctx context.Context) (Stats, error) {
	s := l.schema
	today := startOfDay(l.opts.Now())
	since := today.AddDate(0, 0, -(l.opts.StatsWindowDays - 1))

	out := Stats{Since: since, WindowDays: l.opts.StatsWindowDays, DailyDays: l.opts.DailyWindowDays}

	window := Filter{From: &since}

	q, err := l.filtered(ctx, window)
	if err != nil {
		return Stats{}, err
	}

	if err = q.Count(&out.Total).Error; err != nil {
		return Stats{}, err
	}

	if out.ByKind, err = l.groupCount(ctx, window, s.KindColumn, 0); err != nil {
		return Stats{}, err
	}

	if out.ByScope, err = l.groupCount(ctx, window, s.ScopeColumn, 0); err != nil {
		return Stats{}, err
	}

	if out.Top, err = l.groupCount(ctx, window, s.TopColumn, l.opts.TopN); err != nil {
		return Stats{}, err
	}

	if out.Daily, err = l.daily(ctx, today); err != nil {
		return Stats{}, err
	}

	return out, nil
}

func (l *EventLog[T]) groupCount(ctx context.Context, f Filter, column string, limit int) ([]Count, error) {
	q, err := l.filtered(ctx, f)
	if err != nil {
		return nil, err
	}

	q = q.Select(column + " AS clave, COUNT(*) AS total").
		Where(column + " IS NOT NULL").
		Group(column).
		Order("total DESC").
		Order("clave ASC")

	if limit > 0 {
		q = q.Limit(limit)
	}

	counts := []Count{}
	if err = q.Scan(&counts).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

// daily counts each day separately so days without rows still appear.
func (l *EventLog[T]) daily(ctx context.Context, today time.Time) ([]DayCount, error) {
	days := l.opts.DailyWindowDays
	out := make([]DayCount, 0, days)

	for i := days - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		end := start.AddDate(0, 0, 1)

		q, err := l.filtered(ctx, Filter{From: &start})
		if err != nil {
			return nil, err
		}

		var n int64
		if err = q.Where(l.schema.TimeColumn+" < ?", end).Count(&n).Error; err != nil {
			return nil, err
		}

		out = append(out, DayCount{Date: start.Format(dayLayout), Total: n})
	}

	return out, nil
}
