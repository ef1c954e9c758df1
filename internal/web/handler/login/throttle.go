package login

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
)

// idleBucket is how long an address keeps its bucket after its last attempt.
const idleBucket = 10 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Throttle limits login attempts per client address with a token bucket.
type Throttle struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewThrottle allows perMinute attempts per address with bursts of burst.
func NewThrottle(perMinute, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}

	return &Throttle{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether addr may attempt a login now.
func (t *Throttle) Allow(addr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	if now.Sub(t.lastSweep) > idleBucket {
		for k, b := range t.buckets {
			if now.Sub(b.seen) > idleBucket {
				delete(t.buckets, k)
			}
		}

		t.lastSweep = now
	}

	b, ok := t.buckets[addr]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[addr] = b
	}

	b.seen = now

	return b.lim.AllowN(now, 1)
}

// Handler answers 429 once the caller's bucket is empty.
func (t *Throttle) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip, _ := handler.Client(c)
		if ip == "" {
			ip = "unknown"
		}

		if t.Allow(ip) {
			return c.Next()
		}

		log.Warn().Str("ip", ip).Str("path", c.Path()).Msg("login throttled")

		return c.Status(fiber.StatusTooManyRequests).JSON(handler.ErrorBody{
			Error:   "too_many_requests",
			Message: "too many login attempts, try again later",
		})
	}
}
