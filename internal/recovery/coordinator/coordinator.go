// Package coordinator decides, per failed generation, whether to retry the
// primary pathway or switch to the fallback one.
package coordinator

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/vietddude/itinerary/internal/recovery/classify"
	"github.com/vietddude/itinerary/internal/recovery/failure"
	"github.com/vietddude/itinerary/internal/recovery/retry"
)

// Method names the operation that produced a Result.
type Method string

const (
	MethodPrimary    Method = "primary"
	MethodFallback   Method = "fallback"
	MethodValidation Method = "validation"
)

// Operations are the callbacks of one recovery flow.
type Operations[T any] struct {
	Primary func(ctx context.Context) (T, error)
	// Fallback is invoked at most once and never retried.
	Fallback func(ctx context.Context) (T, error)
	// Validation re-checks the input when the failure is a VALIDATION one.
	Validation func() (ok bool, summary string)
	// Observed is the primary failure that produced the Info passed to
	// Coordinate. When set it counts as the first primary attempt.
	Observed error
}

// Result is the terminal outcome of a recovery flow.
type Result[T any] struct {
	Success bool
	Value   T
	Method  Method
	Err     *failure.Info
	State   *AttemptState
}

// Observer receives recovery events, typically metrics.
type Observer interface {
	ObserveRetry(info failure.Info, attempt int, delay time.Duration)
	ObserveOutcome(info failure.Info, method Method, success, eager bool)
}

// Config configures a Coordinator.
type Config struct {
	Policy    Policy
	Retry     retry.Options
	Logger    *slog.Logger
	Observers []Observer
	Now       func() time.Time
}

// Coordinator is safe for concurrent use when its HistoryStore is.
type Coordinator struct {
	history   HistoryStore
	policy    Policy
	retry     retry.Options
	logger    *slog.Logger
	observers []Observer
	now       func() time.Time
}

// New creates a coordinator. A nil history gets a fresh MemoryHistory, a zero
// Policy gets DefaultPolicy and zero retry timings get retry.DefaultOptions.
func New(history HistoryStore, cfg Config) *Coordinator {
	if history == nil {
		history = NewMemoryHistory()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Retry.BaseDelay == 0 && cfg.Retry.MaxDelay == 0 && cfg.Retry.BackoffFactor == 0 {
		def := retry.DefaultOptions()
		def.Rand, def.Timer = cfg.Retry.Rand, cfg.Retry.Timer
		cfg.Retry = def
	}
	return &Coordinator{
		history:   history,
		policy:    cfg.Policy,
		retry:     cfg.Retry,
		logger:    cfg.Logger,
		observers: cfg.Observers,
		now:       cfg.Now,
	}
}

// Policy returns the escalation thresholds in use.
func (c *Coordinator) Policy() Policy { return c.policy }

// Coordinate runs one recovery flow for info. It never panics and every path
// ends in either a successful value or a populated Err.
func Coordinate[T any](ctx context.Context, c *Coordinator, info failure.Info, ops Operations[T]) Result[T] {
	sig := info.Signature()
	state := newAttemptState(info, c.now())

	if err := ctx.Err(); err != nil {
		return abandon[T](c, state, err)
	}

	prior, err := c.history.Increment(ctx, sig)
	if err != nil {
		c.logger.Warn("Failed to update recovery history", "signature", sig, "error", err)
		prior = 0
	}

	if ops.Primary == nil {
		c.advance(state, StateExhausted)
		c.advance(state, StateDone)
		missing := info.Clone()
		return Result[T]{Method: MethodPrimary, Err: &missing, State: state}
	}

	if ops.Validation != nil && info.Category == failure.CategoryValidation {
		c.advance(state, StateValidating)
		if ok, summary := ops.Validation(); !ok {
			updated := info.Clone()
			updated.UserMessage = "Please fix validation errors: " + summary
			state.fail(updated, c.now())
			c.advance(state, StateDone)
			c.outcome(updated, MethodValidation, false, false)
			return Result[T]{Method: MethodValidation, Err: &updated, State: state}
		}
	}

	canFallback := ops.Fallback != nil && info.Category != failure.CategoryValidation

	if canFallback && c.policy.EagerFallback(info, prior) {
		state.Eager = true
		c.logger.Info("Skipping primary, invoking fallback",
			"signature", sig,
			"prior_attempts", prior,
			"severity", info.Severity,
		)
		return runFallback(ctx, c, state, info, ops)
	}

	c.advance(state, StateRetryingPrimary)

	opts := c.retry
	opts.MaxRetries = c.policy.RetryCount(info, prior)
	opts.BaseDelay = baseDelay(info, opts)
	if opts.ShouldRetry == nil {
		opts.ShouldRetry = retry.ShouldRetryError
	}
	opts.OnRetry = func(err error, attempt int, delay time.Duration) {
		c.logger.Info("Retrying primary pathway",
			"signature", sig,
			"attempt", attempt,
			"max_retries", opts.MaxRetries,
			"delay", delay,
			"error", err,
		)
		for _, o := range c.observers {
			o.ObserveRetry(info, attempt, delay)
		}
	}

	observed := ops.Observed
	primary := func(ctx context.Context) (T, error) {
		state.PrimaryAttempts++
		if observed != nil {
			err := observed
			observed = nil
			var zero T
			return zero, err
		}
		return ops.Primary(ctx)
	}

	v, err := retry.Do(ctx, primary, opts)
	if err == nil {
		state.Pathway = MethodPrimary
		c.advance(state, StateDone)
		c.succeeded(ctx, sig)
		c.outcome(info, MethodPrimary, true, false)
		return Result[T]{Success: true, Value: v, Method: MethodPrimary, State: state}
	}

	if ctx.Err() != nil {
		return abandon[T](c, state, ctx.Err())
	}

	primaryInfo := classify.Classify(err)
	state.fail(primaryInfo, c.now())
	c.logger.Warn("Primary pathway exhausted",
		"signature", sig,
		"attempts", state.PrimaryAttempts,
		"category", primaryInfo.Category,
		"error", err,
	)

	if canFallback && primaryInfo.Category != failure.CategoryValidation {
		return runFallback(ctx, c, state, info, ops)
	}

	c.advance(state, StateExhausted)
	c.advance(state, StateDone)
	c.outcome(primaryInfo, MethodPrimary, false, false)
	return Result[T]{Method: MethodPrimary, Err: &primaryInfo, State: state}
}

func runFallback[T any](ctx context.Context, c *Coordinator, state *AttemptState, info failure.Info, ops Operations[T]) Result[T] {
	c.advance(state, StateFallback)
	state.Pathway = MethodFallback
	state.FallbackAttempts++

	c.logger.Info("Invoking fallback pathway", "signature", state.Signature, "eager", state.Eager)
	v, err := ops.Fallback(ctx)
	if err == nil {
		c.advance(state, StateDone)
		c.succeeded(ctx, state.Signature)
		c.outcome(info, MethodFallback, true, state.Eager)
		return Result[T]{Success: true, Value: v, Method: MethodFallback, State: state}
	}

	fbInfo := classify.Classify(err)
	state.fail(fbInfo, c.now())
	c.logger.Error("Fallback pathway failed",
		"signature", state.Signature,
		"category", fbInfo.Category,
		"technical_details", fbInfo.TechnicalDetails,
		"error", err,
	)
	c.advance(state, StateExhausted)
	c.advance(state, StateDone)
	c.outcome(fbInfo, MethodFallback, false, state.Eager)
	return Result[T]{Method: MethodFallback, Err: &fbInfo, State: state}
}

// baseDelay starts the backoff at the category's retry delay, bounded by the
// configured cap. Categories without a retry policy keep the configured base.
func baseDelay(info failure.Info, opts retry.Options) time.Duration {
	p := classify.Policy(info)
	if !p.ShouldRetry || p.RetryDelay <= 0 {
		return opts.BaseDelay
	}
	if opts.MaxDelay > 0 && p.RetryDelay > opts.MaxDelay {
		return opts.MaxDelay
	}
	return p.RetryDelay
}

// abandon ends a flow whose context is done. The fallback is not invoked.
func abandon[T any](c *Coordinator, state *AttemptState, err error) Result[T] {
	info := classify.Classify(err)
	state.fail(info, c.now())
	c.logger.Info("Recovery abandoned", "signature", state.Signature, "attempts", state.PrimaryAttempts, "error", err)
	c.advance(state, StateExhausted)
	c.advance(state, StateDone)
	return Result[T]{Method: MethodPrimary, Err: &info, State: state}
}

func (c *Coordinator) advance(state *AttemptState, to State) {
	if err := state.advance(to, c.now()); err != nil {
		c.logger.Error("Recovery state machine violation", "signature", state.Signature, "error", err)
	}
}

func (c *Coordinator) succeeded(ctx context.Context, sig string) {
	if !c.policy.ResetOnSuccess {
		return
	}
	if err := c.history.Reset(ctx, sig); err != nil {
		c.logger.Warn("Failed to reset recovery history", "signature", sig, "error", err)
	}
}

func (c *Coordinator) outcome(info failure.Info, m Method, success, eager bool) {
	for _, o := range c.observers {
		o.ObserveOutcome(info, m, success, eager)
	}
}

// SignatureStat is the attempt count of one recovery signature.
type SignatureStat struct {
	Signature string `json:"signature"`
	Attempts  int    `json:"attempts"`
}

// Stats returns the recovery history, most attempted first.
func (c *Coordinator) Stats(ctx context.Context) ([]SignatureStat, error) {
	snap, err := c.history.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SignatureStat, 0, len(snap))
	for sig, n := range snap {
		out = append(out, SignatureStat{Signature: sig, Attempts: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Attempts != out[j].Attempts {
			return out[i].Attempts > out[j].Attempts
		}
		return out[i].Signature < out[j].Signature
	})
	return out, nil
}

// ClearHistory drops every recorded signature.
func (c *Coordinator) ClearHistory(ctx context.Context) error {
	return c.history.Clear(ctx)
}
