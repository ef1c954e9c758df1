package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Schema names the columns an EventLog groups and filters on. Column names come from
// code, never from request input.
type Schema struct {
	Stream       string // metric and log label
	ScopeColumn  string // tabla or modulo
	KindColumn   string // accion or nivel
	NameColumn   string // evento; empty when the stream has no event names
	RecordColumn string // registro_id; empty when rows are not tied to a record
	ActorColumn  string
	TimeColumn   string
	TopColumn    string // grouped for the top-N ranking
}

// Options tunes appends and read projections.
type Options struct {
	MaxRetries      int
	RetryDelay      time.Duration
	DefaultPageSize int
	MaxPageSize     int
	StatsWindowDays int
	DailyWindowDays int
	TopN            int
	Now             func() time.Time
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxRetries:      3,
		RetryDelay:      50 * time.Millisecond,
		DefaultPageSize: 20,
		MaxPageSize:     100,
		StatsWindowDays: 30,
		DailyWindowDays: 7,
		TopN:            10,
		Now:             time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()

	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}

	if o.RetryDelay <= 0 {
		o.RetryDelay = d.RetryDelay
	}

	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = d.DefaultPageSize
	}

	if o.MaxPageSize <= 0 {
		o.MaxPageSize = d.MaxPageSize
	}

	if o.StatsWindowDays <= 0 {
		o.StatsWindowDays = d.StatsWindowDays
	}

	if o.DailyWindowDays <= 0 {
		o.DailyWindowDays = d.DailyWindowDays
	}

	if o.TopN <= 0 {
		o.TopN = d.TopN
	}

	if o.Now == nil {
		o.Now = d.Now
	}

	return o
}

// EventLog is an append-only log of rows of type T. It only inserts and reads;
// there is no update or delete path.
type EventLog[T any] struct {
	db     *gorm.DB
	schema Schema
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewEventLog binds a log to db. T must be a gorm model.
func NewEventLog[T any](db *gorm.DB, schema Schema, opts Options) (*EventLog[T], error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &EventLog[T]{db: db, schema: schema, opts: opts.withDefaults(), sleep: sleepCtx}, nil
}

// Schema returns the column layout of the log.
func (l *EventLog[T]) Schema() Schema {
	return l.schema
}

// Append inserts row. Storage errors are retried up to MaxRetries times with
// exponential backoff; the error returned after that wraps ErrAppendFailed.
// A cancelled ctx stops retrying.
func (l *EventLog[T]) Append(ctx context.Context, row *T) error {
	var err error

	for attempt := 0; attempt <= l.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			retries.WithLabelValues(l.schema.Stream).Inc()

			if serr := l.sleep(ctx, l.opts.RetryDelay<<(attempt-1)); serr != nil {
				err = fmt.Errorf("%w (last error: %w)", serr, err)
				break
			}
		}

		if err = l.db.WithContext(ctx).Create(row).Error; err == nil {
			appends.WithLabelValues(l.schema.Stream, "ok").Inc()
			return nil
		}

		log.Warn().Err(err).
			Str("stream", l.schema.Stream).
			Int("attempt", attempt+1).
			Msg("audit append attempt failed")

		if permanent(err) {
			break
		}
	}

	appends.WithLabelValues(l.schema.Stream, "failed").Inc()

	return fmt.Errorf("%w: %s: %w", ErrAppendFailed, l.schema.Stream, err)
}

// permanent reports errors that fail the same way on every attempt: the row itself
// is rejected, or the caller gave up.
func permanent(err error) bool {
	for _, target := range []error{
		gorm.ErrDuplicatedKey,
		gorm.ErrForeignKeyViolated,
		gorm.ErrInvalidData,
		gorm.ErrInvalidField,
		gorm.ErrInvalidValue,
		gorm.ErrModelValueRequired,
		gorm.ErrUnsupportedDriver,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
