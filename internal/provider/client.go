// Package provider implements the Entity Provider: the async data source the
// controllers fetch employees and reports from. The backend is the local
// bbolt dataset; every call goes through a Client that applies the shared
// rate limiter, a simulated network latency and retry with exponential
// backoff, so callers see the same failure modes as a remote service.
package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultMaxRetries = 4
	defaultBackoff    = 500 * time.Millisecond
)

var (
	// ErrUnavailable is returned when the backend cannot be reached after
	// all retries, or the context ends first.
	ErrUnavailable = errors.New("provider: unavailable")

	// ErrNotFound is returned by operations that require an existing record.
	ErrNotFound = errors.New("provider: not found")

	// ErrInvalidStatus is returned for a status outside the entity's set.
	ErrInvalidStatus = errors.New("provider: invalid status")

	// ErrInvalidRequest is returned for a malformed report request.
	ErrInvalidRequest = errors.New("provider: invalid request")

	// ErrNotDownloadable is returned when downloading a report that has not
	// been generated.
	ErrNotDownloadable = errors.New("provider: report not downloadable")
)

// Provider is the data source for one entity kind.
type Provider[T any] interface {
	// FetchAll returns the complete collection.
	FetchAll(ctx context.Context) ([]T, error)
	// FetchByID returns the record with id, or false if there is none.
	FetchByID(ctx context.Context, id int) (T, bool, error)
	// UpdateStatus replaces the record's status and stamps its recency
	// field. It returns false if no record has id.
	UpdateStatus(ctx context.Context, id int, status string) (bool, error)
}

// Clock supplies the current time for recency stamps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Options configures a Client. Zero values select the defaults.
type Options struct {
	// Rate is the maximum number of calls per second; <= 0 is unlimited.
	Rate float64
	// Latency is added to every attempt.
	Latency time.Duration
	// MaxRetries is the number of attempts before giving up.
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles per retry.
	Backoff time.Duration
	Clock   Clock
}

// Client paces and retries backend calls.
type Client struct {
	limiter    *rate.Limiter
	latency    time.Duration
	maxRetries int
	backoff    time.Duration
	clock      Clock
	log        zerolog.Logger
}

// NewClient creates a Client.
func NewClient(opts Options, log zerolog.Logger) *Client {
	limit := rate.Inf
	burst := 1
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
		if b := int(opts.Rate); b > 1 {
			burst = b
		}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &Client{
		limiter:    rate.NewLimiter(limit, burst),
		latency:    opts.Latency,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		clock:      opts.Clock,
		log:        log.With().Str("component", "provider").Logger(),
	}
}

// Now returns the client's current time.
func (c *Client) Now() time.Time {
	return c.clock.Now()
}

// do runs fn under the rate limiter, retrying failed attempts with
// exponential backoff. Failures surface wrapped in ErrUnavailable.
func (c *Client) do(ctx context.Context, op string, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff
			c.log.Debug().Str("op", op).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying after backoff")
			if err := sleep(ctx, backoff); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
			}
		}
		if err := sleep(ctx, c.latency); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
		}

		start := time.Now()
		err := fn()
		if err == nil {
			c.log.Debug().Str("op", op).Dur("took", time.Since(start)).Msg("provider call")
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
		c.log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("provider call failed")
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrUnavailable, op, c.maxRetries, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// permanentError marks a failure that retrying cannot fix, such as a
// rejected request. do returns the wrapped error as is.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err} }
