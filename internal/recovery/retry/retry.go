// Package retry runs an operation with bounded retries, exponential backoff
// and jitter.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vietddude/itinerary/internal/recovery/failure"
)

// Options configures Do. Start from DefaultOptions; a zero MaxRetries means a
// single attempt.
type Options struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool

	// ShouldRetry is consulted after a failed attempt that still has retries
	// left. Nil means ShouldRetryError.
	ShouldRetry func(err error, attempt int) bool
	// OnRetry is called before waiting for the next attempt.
	OnRetry func(err error, attempt int, delay time.Duration)

	// Rand returns a value in [0, 1). Nil means math/rand/v2.
	Rand func() float64
	// Timer drives the waits between attempts. Nil means a real timer.
	Timer backoff.Timer
}

// DefaultOptions returns 3 retries, 1s base delay, 30s cap, factor 2 with jitter.
func DefaultOptions() Options {
	return Options{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
		Jitter:        true,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = def.BaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = def.MaxDelay
	}
	if o.BackoffFactor < 1 {
		o.BackoffFactor = def.BackoffFactor
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = ShouldRetryError
	}
	if o.Rand == nil {
		o.Rand = rand.Float64
	}
	return o
}

// Delay returns the pre-jitter delay after the k-th failed attempt:
// min(base * factor^(k-1), max).
func Delay(k int, base, maxDelay time.Duration, factor float64) time.Duration {
	if k < 1 {
		k = 1
	}
	d := float64(base) * math.Pow(factor, float64(k-1))
	if d > float64(maxDelay) || math.IsInf(d, 0) {
		return maxDelay
	}
	return time.Duration(d)
}

// exponential is a backoff.BackOff yielding Delay(k) for the k-th retry.
type exponential struct {
	opts Options
	k    int
}

func (e *exponential) NextBackOff() time.Duration {
	e.k++
	d := Delay(e.k, e.opts.BaseDelay, e.opts.MaxDelay, e.opts.BackoffFactor)
	if e.opts.Jitter {
		d = time.Duration(float64(d) * (0.5 + e.opts.Rand()*0.5))
	}
	return d
}

func (e *exponential) Reset() { e.k = 0 }

// Do runs op until it succeeds, a failure is not eligible for retry, retries
// are exhausted or ctx is done. It makes at most MaxRetries+1 calls and
// returns the last error.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	opts = opts.normalized()

	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if attempt <= opts.MaxRetries && !opts.ShouldRetry(err, attempt) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	var b backoff.BackOff = &exponential{opts: opts}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(opts.MaxRetries)), ctx)

	notify := func(err error, d time.Duration) {
		if opts.OnRetry != nil {
			opts.OnRetry(err, attempt, d)
		}
	}

	return backoff.RetryNotifyWithTimerAndData(operation, b, notify, opts.Timer)
}

// ShouldRetryError is the default eligibility rule: validation failures and
// 4xx statuses other than 408 and 429 are final, everything else is retried.
func ShouldRetryError(err error, _ int) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var ve *failure.ValidationError
	if errors.As(err, &ve) {
		return false
	}

	var pe *failure.PathwayError
	if errors.As(err, &pe) {
		switch pe.Code {
		case failure.CodeDownloadError, failure.CodeFeatureDisabled,
			failure.CodeConfiguration, failure.CodeUnauthorized:
			return false
		}
	}

	status := failure.StatusOf(err)
	switch {
	case status == 422:
		return false
	case status == 408 || status == 429:
		return true
	case status >= 400 && status < 500:
		return false
	}
	return true
}
