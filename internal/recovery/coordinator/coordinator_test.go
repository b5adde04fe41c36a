package coordinator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/classify"
	"github.com/vietddude/itinerary/internal/recovery/failure"
	"github.com/vietddude/itinerary/internal/recovery/retry"
)

type instantTimer struct{ c chan time.Time }

func (t *instantTimer) Start(time.Duration) { t.c <- time.Now() }
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.c }

type countingOp struct {
	calls int
	errs  []error
	value string
}

func (o *countingOp) run(context.Context) (string, error) {
	o.calls++
	if o.calls <= len(o.errs) {
		return "", o.errs[o.calls-1]
	}
	if len(o.errs) > 0 && o.value == "" {
		return "", o.errs[len(o.errs)-1]
	}
	return o.value, nil
}

func failing(err error) *countingOp { return &countingOp{errs: []error{err}} }

type recordingObserver struct {
	retries  int
	outcomes []Method
}

func (r *recordingObserver) ObserveRetry(failure.Info, int, time.Duration) { r.retries++ }
func (r *recordingObserver) ObserveOutcome(_ failure.Info, m Method, _, _ bool) {
	r.outcomes = append(r.outcomes, m)
}

func newTestCoordinator(history HistoryStore, obs ...Observer) *Coordinator {
	return New(history, Config{
		Retry:     retry.Options{Timer: &instantTimer{c: make(chan time.Time, 1)}},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observers: obs,
	})
}

func TestCoordinateNetworkEscalatesToFallback(t *testing.T) {
	ctx := context.Background()
	history := NewMemoryHistory()
	info := classify.Classify(&failure.NetworkError{Kind: failure.NetworkRefused, Message: "Failed to connect"})

	for range 2 {
		if _, err := history.Increment(ctx, info.Signature()); err != nil {
			t.Fatal(err)
		}
	}

	c := newTestCoordinator(history)
	primary := failing(errors.New("connection refused"))
	fallback := &countingOp{value: "local.pdf"}

	res := Coordinate(ctx, c, info, Operations[string]{Primary: primary.run, Fallback: fallback.run})

	if primary.calls != 0 {
		t.Errorf("primary called %d times, want 0", primary.calls)
	}
	if fallback.calls != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls)
	}
	if !res.Success || res.Method != MethodFallback || res.Value != "local.pdf" {
		t.Errorf("result = %+v", res)
	}
	if !res.State.Eager {
		t.Error("expected eager fallback")
	}
}

func TestCoordinateValidationShortCircuit(t *testing.T) {
	c := newTestCoordinator(nil)
	info := classify.Classify(&failure.ValidationError{Status: 422, Message: "title is required"})
	primary := &countingOp{value: "x"}
	fallback := &countingOp{value: "y"}

	res := Coordinate(context.Background(), c, info, Operations[string]{
		Primary:    primary.run,
		Fallback:   fallback.run,
		Validation: func() (bool, string) { return false, "1 error found" },
	})

	if res.Success || res.Method != MethodValidation {
		t.Fatalf("result = %+v", res)
	}
	if primary.calls != 0 || fallback.calls != 0 {
		t.Errorf("primary=%d fallback=%d, want no calls", primary.calls, fallback.calls)
	}
	if res.Err == nil || res.Err.UserMessage != "Please fix validation errors: 1 error found" {
		t.Errorf("err = %+v", res.Err)
	}
	if res.Err.CanRetry || res.Err.FallbackAvailable {
		t.Error("validation info must stay non-recoverable")
	}
	want := []State{StateInitial, StateValidating, StateDone}
	if got := res.State.Path(); !equalStates(got, want) {
		t.Errorf("path = %v, want %v", got, want)
	}
}

func TestCoordinateServerRetriesThenFallback(t *testing.T) {
	c := newTestCoordinator(nil)
	e503 := &failure.ServerError{Status: 503, Message: "Service unavailable"}
	info := classify.Classify(e503)
	primary := &countingOp{errs: []error{e503, e503, e503}}
	fallback := &countingOp{value: "local.pdf"}

	res := Coordinate(context.Background(), c, info, Operations[string]{Primary: primary.run, Fallback: fallback.run})

	if primary.calls != 3 {
		t.Errorf("primary called %d times, want 3", primary.calls)
	}
	if fallback.calls != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls)
	}
	if !res.Success || res.Method != MethodFallback {
		t.Errorf("result = %+v", res)
	}
	want := []State{StateInitial, StateRetryingPrimary, StateFallback, StateDone}
	if got := res.State.Path(); !equalStates(got, want) {
		t.Errorf("path = %v, want %v", got, want)
	}
}

func TestCoordinateTypeErrorWithoutFallback(t *testing.T) {
	c := newTestCoordinator(nil)
	typeErr := &failure.TypedError{Name: failure.TypeError, Err: errors.New("cannot read properties of undefined")}
	info := classify.Classify(typeErr)
	if info.Category != failure.CategoryClient || !info.CanRetry {
		t.Fatalf("info = %+v", info)
	}
	primary := &countingOp{errs: []error{typeErr}}

	res := Coordinate(context.Background(), c, info, Operations[string]{Primary: primary.run})

	if res.Success || res.Method != MethodPrimary {
		t.Fatalf("result = %+v", res)
	}
	if res.Err == nil || res.Err.Category != failure.CategoryClient {
		t.Errorf("err = %+v", res.Err)
	}
	if primary.calls != 3 {
		t.Errorf("primary called %d times, want 3", primary.calls)
	}
	want := []State{StateInitial, StateRetryingPrimary, StateExhausted, StateDone}
	if got := res.State.Path(); !equalStates(got, want) {
		t.Errorf("path = %v, want %v", got, want)
	}
}

func TestCoordinateCriticalGoesStraightToFallback(t *testing.T) {
	c := newTestCoordinator(nil)
	info := classify.Classify(&failure.PathwayError{Code: failure.CodeConfiguration, Message: "bad url"})
	primary := &countingOp{value: "remote"}
	fallback := &countingOp{value: "local"}

	res := Coordinate(context.Background(), c, info, Operations[string]{Primary: primary.run, Fallback: fallback.run})

	if primary.calls != 0 || fallback.calls != 1 || res.Method != MethodFallback {
		t.Errorf("primary=%d fallback=%d method=%s", primary.calls, fallback.calls, res.Method)
	}
}

func TestCoordinateFallbackFailureIsReported(t *testing.T) {
	c := newTestCoordinator(nil)
	info := classify.Classify(&failure.ServerError{Status: 500})
	primary := &countingOp{errs: []error{&failure.ServerError{Status: 500}}}
	fallback := &countingOp{errs: []error{&failure.TypedError{Name: failure.TypeError, Err: errors.New("bad day")}}}

	res := Coordinate(context.Background(), c, info, Operations[string]{Primary: primary.run, Fallback: fallback.run})

	if res.Success || res.Method != MethodFallback {
		t.Fatalf("result = %+v", res)
	}
	if res.Err == nil || res.Err.Category != failure.CategoryClient {
		t.Errorf("expected the fallback's own classified error, got %+v", res.Err)
	}
	if fallback.calls != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls)
	}
}

func TestCoordinateReducesRetriesWithHistory(t *testing.T) {
	ctx := context.Background()
	history := NewMemoryHistory()
	info := classify.Classify(&failure.ServerError{Status: 502})
	for range 2 {
		_, _ = history.Increment(ctx, info.Signature())
	}

	c := newTestCoordinator(history)
	primary := &countingOp{errs: []error{&failure.ServerError{Status: 502}}}

	res := Coordinate(ctx, c, info, Operations[string]{Primary: primary.run})

	if res.Success {
		t.Fatal("expected failure")
	}
	// max(1, 2 - 2/2) = 1 retry.
	if primary.calls != 2 {
		t.Errorf("primary called %d times, want 2", primary.calls)
	}
}

func TestCoordinateHistoryResetOnSuccess(t *testing.T) {
	ctx := context.Background()
	history := NewMemoryHistory()
	obs := &recordingObserver{}
	c := newTestCoordinator(history, obs)
	info := classify.Classify(errors.New("Failed to fetch"))

	primary := &countingOp{errs: []error{errors.New("Failed to fetch")}, value: "ok"}
	res := Coordinate(ctx, c, info, Operations[string]{Primary: primary.run})
	if !res.Success || res.Method != MethodPrimary {
		t.Fatalf("result = %+v", res)
	}
	if obs.retries != 1 {
		t.Errorf("observed retries = %d, want 1", obs.retries)
	}

	snap, _ := history.Snapshot(ctx)
	if _, ok := snap[info.Signature()]; ok {
		t.Error("history should be reset after success")
	}

	failingPrimary := failing(errors.New("Failed to fetch"))
	_ = Coordinate(ctx, c, info, Operations[string]{Primary: failingPrimary.run})
	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Attempts != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if err := c.ClearHistory(ctx); err != nil {
		t.Fatal(err)
	}
	if stats, _ := c.Stats(ctx); len(stats) != 0 {
		t.Errorf("stats after clear = %+v", stats)
	}
}

func TestCoordinateObservedErrorCountsAsFirstAttempt(t *testing.T) {
	c := newTestCoordinator(nil)
	e503 := &failure.ServerError{Status: 503}
	info := classify.Classify(e503)
	primary := &countingOp{errs: []error{e503, e503, e503}}
	fallback := &countingOp{value: "local"}

	res := Coordinate(context.Background(), c, info, Operations[string]{
		Primary:  primary.run,
		Fallback: fallback.run,
		Observed: e503,
	})

	if primary.calls != 2 {
		t.Errorf("primary called %d times, want 2", primary.calls)
	}
	if res.State.PrimaryAttempts != 3 {
		t.Errorf("primary attempts = %d, want 3", res.State.PrimaryAttempts)
	}
	if res.Method != MethodFallback || !res.Success {
		t.Errorf("result = %+v", res)
	}
}

func TestCoordinateCancelledContextSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	history := NewMemoryHistory()
	c := newTestCoordinator(history)
	primary := &countingOp{value: "remote.pdf"}
	fallback := &countingOp{value: "local.pdf"}
	info := classify.Classify(context.Canceled)

	res := Coordinate(ctx, c, info, Operations[string]{
		Primary:  primary.run,
		Fallback: fallback.run,
		Observed: context.Canceled,
	})

	if res.Success || res.Method != MethodPrimary {
		t.Errorf("result = %+v", res)
	}
	if primary.calls != 0 || fallback.calls != 0 {
		t.Errorf("calls after cancellation: primary=%d fallback=%d", primary.calls, fallback.calls)
	}
	if res.Err == nil || res.Err.CanRetry || res.Err.FallbackAvailable {
		t.Errorf("err = %+v, want a final failure", res.Err)
	}
	snap, _ := history.Snapshot(context.Background())
	if len(snap) != 0 {
		t.Errorf("history = %v, want untouched", snap)
	}
	want := []State{StateInitial, StateExhausted, StateDone}
	if got := res.State.Path(); !equalStates(got, want) {
		t.Errorf("path = %v, want %v", got, want)
	}
}

func TestCoordinateCancelledDuringRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newTestCoordinator(nil)
	calls := 0
	primary := func(context.Context) (string, error) {
		calls++
		cancel()
		return "", &failure.ServerError{Status: 503}
	}
	fallback := &countingOp{value: "local.pdf"}
	info := classify.Classify(&failure.ServerError{Status: 503})

	res := Coordinate(ctx, c, info, Operations[string]{Primary: primary, Fallback: fallback.run})

	if calls != 1 {
		t.Errorf("primary called %d times, want 1", calls)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times after cancellation", fallback.calls)
	}
	if res.Err == nil || res.Err.CanRetry {
		t.Errorf("err = %+v", res.Err)
	}
}

type delayObserver struct{ delays []time.Duration }

func (d *delayObserver) ObserveRetry(_ failure.Info, _ int, delay time.Duration) {
	d.delays = append(d.delays, delay)
}
func (d *delayObserver) ObserveOutcome(failure.Info, Method, bool, bool) {}

func TestCoordinateRetryDelayFollowsCategory(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		maxDelay time.Duration
		want     time.Duration
	}{
		{"server", &failure.ServerError{Status: 503}, 30 * time.Second, 5 * time.Second},
		{"network", &failure.NetworkError{Kind: failure.NetworkTimeout}, 30 * time.Second, 2 * time.Second},
		{"capped", &failure.ServerError{Status: 503}, time.Second, time.Second},
		{"client keeps base", &failure.PathwayError{Code: "SOMETHING"}, 30 * time.Second, 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &delayObserver{}
			c := New(nil, Config{
				Retry: retry.Options{
					BaseDelay:     10 * time.Millisecond,
					MaxDelay:      tt.maxDelay,
					BackoffFactor: 2,
					Timer:         &instantTimer{c: make(chan time.Time, 1)},
				},
				Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
				Observers: []Observer{obs},
			})
			primary := &countingOp{errs: []error{tt.err}, value: "ok"}

			res := Coordinate(context.Background(), c, classify.Classify(tt.err), Operations[string]{Primary: primary.run})
			if !res.Success {
				t.Fatalf("result = %+v", res)
			}
			if len(obs.delays) != 1 || obs.delays[0] != tt.want {
				t.Errorf("delays = %v, want [%s]", obs.delays, tt.want)
			}
		})
	}
}

func TestPolicy(t *testing.T) {
	p := DefaultPolicy()
	network := failure.Info{Category: failure.CategoryNetwork, Severity: failure.SeverityMedium}
	server := failure.Info{Category: failure.CategoryServer, Severity: failure.SeverityHigh}

	if p.EagerFallback(network, 1) {
		t.Error("network with one prior attempt should still retry")
	}
	if !p.EagerFallback(network, 2) {
		t.Error("network with two prior attempts should fall back")
	}
	if p.EagerFallback(server, 2) || !p.EagerFallback(server, 3) {
		t.Error("server escalation threshold is wrong")
	}
	if !p.EagerFallback(failure.Info{Severity: failure.SeverityCritical}, 0) {
		t.Error("critical failures should fall back immediately")
	}

	tests := []struct {
		info  failure.Info
		prior int
		want  int
	}{
		{network, 0, 3},
		{network, 2, 2},
		{network, 4, 1},
		{network, 10, 1},
		{server, 0, 2},
		{server, 3, 1},
	}
	for _, tt := range tests {
		if got := p.RetryCount(tt.info, tt.prior); got != tt.want {
			t.Errorf("RetryCount(%s, %d) = %d, want %d", tt.info.Category, tt.prior, got, tt.want)
		}
	}
}

type fakePathway struct {
	name  domain.PathwayName
	calls int
	errs  []error
}

func (f *fakePathway) Name() domain.PathwayName { return f.name }

func (f *fakePathway) Generate(context.Context, *domain.ItineraryRequest) (*domain.Document, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return &domain.Document{Data: []byte("%PDF-1.4"), Pathway: f.name}, nil
}

type recordingTracker struct{ infos []failure.Info }

func (r *recordingTracker) Track(_ context.Context, info failure.Info, _ int) {
	r.infos = append(r.infos, info)
}

func TestGeneratorRemoteFailsOverToLocal(t *testing.T) {
	e503 := &failure.ServerError{Status: 503}
	remote := &fakePathway{name: domain.PathwayRemote, errs: []error{e503, e503, e503}}
	local := &fakePathway{name: domain.PathwayLocal}
	tracker := &recordingTracker{}

	g := NewGenerator(newTestCoordinator(nil), nil, slog.New(slog.NewTextHandler(io.Discard, nil)), remote, local)
	g.AddTracker(tracker)

	gen, err := g.Generate(context.Background(), &domain.ItineraryRequest{}, GenerateOptions{Preferred: domain.PathwayRemote})
	if err != nil {
		t.Fatal(err)
	}
	if remote.calls != 3 {
		t.Errorf("remote called %d times, want 3", remote.calls)
	}
	if local.calls != 1 {
		t.Errorf("local called %d times, want 1", local.calls)
	}
	if !gen.Success || gen.Method != MethodFallback || gen.Pathway != domain.PathwayLocal {
		t.Errorf("generation = %+v", gen)
	}
	if gen.Initial == nil || gen.Initial.Category != failure.CategoryServer {
		t.Errorf("initial = %+v", gen.Initial)
	}
	if len(tracker.infos) != 1 {
		t.Errorf("tracked %d failures, want 1", len(tracker.infos))
	}
}

func TestGeneratorNoFallback(t *testing.T) {
	remote := &fakePathway{name: domain.PathwayRemote, errs: []error{
		&failure.ValidationError{Status: 422, Message: "customerEmail must be a valid email"},
	}}
	local := &fakePathway{name: domain.PathwayLocal}

	g := NewGenerator(newTestCoordinator(nil), nil, nil, remote, local)
	gen, err := g.Generate(context.Background(), &domain.ItineraryRequest{}, GenerateOptions{Preferred: domain.PathwayRemote})
	if err != nil {
		t.Fatal(err)
	}
	if gen.Success || local.calls != 0 {
		t.Errorf("validation failures must not fall back: %+v local=%d", gen, local.calls)
	}
	if remote.calls != 1 {
		t.Errorf("remote called %d times, want 1", remote.calls)
	}
	if gen.Err == nil || gen.Err.Category != failure.CategoryValidation {
		t.Errorf("err = %+v", gen.Err)
	}
}

func TestGeneratorCancelledAfterFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	remote := &fakePathway{name: domain.PathwayRemote, errs: []error{context.Canceled}}
	local := &fakePathway{name: domain.PathwayLocal}
	tracker := &recordingTracker{}
	history := NewMemoryHistory()

	g := NewGenerator(newTestCoordinator(history), nil, nil, remote, local)
	g.AddTracker(tracker)

	gen, err := g.Generate(ctx, &domain.ItineraryRequest{}, GenerateOptions{Preferred: domain.PathwayRemote})
	if err != nil {
		t.Fatal(err)
	}
	if remote.calls != 1 || local.calls != 0 {
		t.Errorf("calls: remote=%d local=%d", remote.calls, local.calls)
	}
	if gen.Success || gen.Err == nil || gen.Err.CanRetry {
		t.Errorf("generation = %+v", gen)
	}
	if len(tracker.infos) != 0 {
		t.Errorf("tracked %d cancellations", len(tracker.infos))
	}
	if snap, _ := history.Snapshot(context.Background()); len(snap) != 0 {
		t.Errorf("history = %v", snap)
	}
}

func TestGeneratorUnknownPathway(t *testing.T) {
	g := NewGenerator(newTestCoordinator(nil), nil, nil)
	_, err := g.Generate(context.Background(), &domain.ItineraryRequest{}, GenerateOptions{Preferred: domain.PathwayLocal})
	if !errors.Is(err, ErrNoPathway) {
		t.Errorf("err = %v, want ErrNoPathway", err)
	}
}

func equalStates(a, b []State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
