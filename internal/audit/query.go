package audit

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"
)

// Filter narrows a listing. Empty fields do not filter. From and To are inclusive.
type Filter struct {
	Scope   string
	Kind    string
	Name    string
	Record  string
	ActorID *uint64
	From    *time.Time
	To      *time.Time
}

// PageRequest selects a page; zero values fall back to the log defaults.
type PageRequest struct {
	Page  int
	Limit int
}

// Page is one page of a listing, newest rows first.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

func (l *EventLog[T]) filtered(ctx context.Context, f Filter) (*gorm.DB, error) {
	s := l.schema
	q := l.db.WithContext(ctx).Model(new(T))

	if f.Name != "" && s.NameColumn == "" {
		return nil, ErrUnsupportedFilter
	}

	if f.Record != "" && s.RecordColumn == "" {
		return nil, ErrUnsupportedFilter
	}

	if f.Scope != "" {
		q = q.Where(s.ScopeColumn+" = ?", f.Scope)
	}

	if f.Kind != "" {
		q = q.Where(s.KindColumn+" = ?", f.Kind)
	}

	if f.Name != "" {
		q = q.Where(s.NameColumn+" = ?", f.Name)
	}

	if f.Record != "" {
		q = q.Where(s.RecordColumn+" = ?", f.Record)
	}

	if f.ActorID != nil {
		q = q.Where(s.ActorColumn+" = ?", *f.ActorID)
	}

	if f.From != nil {
		q = q.Where(s.TimeColumn+" >= ?", f.From.UTC())
	}

	if f.To != nil {
		q = q.Where(s.TimeColumn+" <= ?", f.To.UTC())
	}

	return q, nil
}

// NormalizePage clamps p to the configured page sizes.
func (l *EventLog[T]) NormalizePage(p PageRequest) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}

	switch {
	case p.Limit <= 0:
		p.Limit = l.opts.DefaultPageSize
	case p.Limit > l.opts.MaxPageSize:
		p.Limit = l.opts.MaxPageSize
	}

	return p
}

// List returns one page of rows matching f, newest first.
func (l *EventLog[T]) List(ctx context.Context, f Filter, p PageRequest) (Page[T], error) {
	p = l.NormalizePage(p)

	q, err := l.filtered(ctx, f)
	if err != nil {
		return Page[T]{}, err
	}

	var total int64
	if err = q.Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	items := []T{}

	q, _ = l.filtered(ctx, f)

	err = q.Order(l.schema.TimeColumn + " DESC").Order("id DESC").
		Limit(p.Limit).
		Offset((p.Page - 1) * p.Limit).
		Find(&items).Error
	if err != nil {
		return Page[T]{}, err
	}

	return Page[T]{
		Items: items,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
		Pages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}, nil
}

// Scan streams every row matching f in primary key order, batch rows at a time.
// fn returning an error stops the scan.
func (l *EventLog[T]) Scan(ctx context.Context, f Filter, batch int, fn func([]T) error) error {
	if batch <= 0 {
		batch = l.opts.MaxPageSize
	}

	q, err := l.filtered(ctx, f)
	if err != nil {
		return err
	}

	rows := []T{}

	return q.FindInBatches(&rows, batch, func(_ *gorm.DB, _ int) error {
		return fn(rows)
	}).Error
}

// History returns every row tied to one record of scope, oldest first. It is not
// paginated: a record's history is read in full.
func (l *EventLog[T]) History(ctx context.Context, scope, record string) ([]T, error) {
	q, err := l.filtered(ctx, Filter{Scope: scope, Record: record})
	if err != nil {
		return nil, err
	}

	rows := []T{}

	err = q.Order(l.schema.TimeColumn + " ASC").Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}
