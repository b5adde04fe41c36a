package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/classify"
	"github.com/vietddude/itinerary/internal/recovery/failure"
)

var ErrNoPathway = errors.New("no such generation pathway")

// Pathway is one document generation mechanism.
type Pathway interface {
	Name() domain.PathwayName
	Generate(ctx context.Context, req *domain.ItineraryRequest) (*domain.Document, error)
}

// Validator re-checks a request and returns a human readable summary.
type Validator func(req *domain.ItineraryRequest) (ok bool, summary string)

// Tracker records classified failures, typically for analytics.
type Tracker interface {
	Track(ctx context.Context, info failure.Info, retryAttempt int)
}

// GenerateOptions selects the pathways of one generation.
type GenerateOptions struct {
	Preferred  domain.PathwayName
	NoFallback bool
}

// Generation is the outcome of Generator.Generate.
type Generation struct {
	Result[*domain.Document]
	// Pathway produced the document, or failed last.
	Pathway domain.PathwayName
	// Initial is the classified failure of the first attempt, nil when it succeeded.
	Initial *failure.Info
}

// Generator binds pathways and a validator into recovery flows.
type Generator struct {
	coord    *Coordinator
	pathways map[domain.PathwayName]Pathway
	validate Validator
	trackers []Tracker
	logger   *slog.Logger
}

func NewGenerator(c *Coordinator, validate Validator, logger *slog.Logger, pathways ...Pathway) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		coord:    c,
		pathways: make(map[domain.PathwayName]Pathway, len(pathways)),
		validate: validate,
		logger:   logger,
	}
	for _, p := range pathways {
		if p != nil {
			g.pathways[p.Name()] = p
		}
	}
	return g
}

// AddTracker registers a failure tracker.
func (g *Generator) AddTracker(t Tracker) {
	g.trackers = append(g.trackers, t)
}

// Generate tries the preferred pathway once and, on failure, coordinates
// recovery with the other pathway as fallback.
func (g *Generator) Generate(ctx context.Context, req *domain.ItineraryRequest, opts GenerateOptions) (Generation, error) {
	primary, ok := g.pathways[opts.Preferred]
	if !ok {
		return Generation{}, fmt.Errorf("%w: %q", ErrNoPathway, opts.Preferred)
	}

	doc, err := primary.Generate(ctx, req)
	if err == nil {
		return Generation{
			Result:  Result[*domain.Document]{Success: true, Value: doc, Method: MethodPrimary},
			Pathway: primary.Name(),
		}, nil
	}

	info := classify.Classify(err)
	if ctx.Err() != nil {
		g.logger.Info("Document generation cancelled", "pathway", primary.Name(), "error", err)
		return Generation{
			Result:  Result[*domain.Document]{Method: MethodPrimary, Err: &info},
			Pathway: primary.Name(),
			Initial: &info,
		}, nil
	}
	g.logger.Error("Document generation failed",
		"pathway", primary.Name(),
		"category", info.Category,
		"severity", info.Severity,
		"code", info.ErrorCode,
		"technical_details", info.TechnicalDetails,
		"error", err,
	)
	g.track(ctx, info, 0)

	ops := Operations[*domain.Document]{
		Primary: func(ctx context.Context) (*domain.Document, error) {
			return primary.Generate(ctx, req)
		},
		Observed: err,
	}
	fallback, hasFallback := g.pathways[primary.Name().Other()]
	if hasFallback && !opts.NoFallback {
		ops.Fallback = func(ctx context.Context) (*domain.Document, error) {
			return fallback.Generate(ctx, req)
		}
	}
	if g.validate != nil {
		ops.Validation = func() (bool, string) { return g.validate(req) }
	}

	res := Coordinate(ctx, g.coord, info, ops)

	out := Generation{Result: res, Pathway: primary.Name(), Initial: &info}
	if res.Method == MethodFallback {
		out.Pathway = fallback.Name()
	}
	if res.Err != nil {
		attempts := 0
		if res.State != nil {
			attempts = res.State.Attempts()
		}
		g.track(ctx, *res.Err, attempts)
	}
	return out, nil
}

func (g *Generator) track(ctx context.Context, info failure.Info, attempt int) {
	for _, t := range g.trackers {
		t.Track(ctx, info, attempt)
	}
}
