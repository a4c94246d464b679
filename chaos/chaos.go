// chaos/chaos.go
package chaos

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Experiment is a falsifiable claim about the reservation system plus a way
// to attack it. The steady state is measured before and after the method
// runs; the hypothesis holds only if every assertion passes.
type Experiment struct {
	Name        string
	Hypothesis  string
	SteadyState []Metric
	Method      func(ctx context.Context) error
	Validation  []Assertion
}

// Metric is a measurable system property.
type Metric struct {
	Name  string
	Query func(ctx context.Context) (float64, error)
}

// Assertion validates an experiment outcome against a named metric.
type Assertion struct {
	Metric    string
	Condition func(v float64) bool
	Message   string
}

// Result captures one experiment execution.
type Result struct {
	ExperimentName string        `json:"experiment_name"`
	StartTime      time.Time     `json:"start_time"`
	Duration       time.Duration `json:"duration"`
	HypothesisHeld bool          `json:"hypothesis_held"`
	Violations     []string      `json:"violations,omitempty"`
}

// Engine runs experiments against a live booking deployment.
type Engine struct {
	db          *sql.DB
	bookingURL  string
	experiments []Experiment
	tracer      trace.Tracer
}

func NewEngine(db *sql.DB, bookingURL string) *Engine {
	return &Engine{
		db:         db,
		bookingURL: bookingURL,
		tracer:     otel.Tracer("bookly/chaos"),
	}
}

func (e *Engine) Register(exp Experiment) {
	e.experiments = append(e.experiments, exp)
}

// RunAll executes every registered experiment in order and stops at the
// first one whose hypothesis does not hold.
func (e *Engine) RunAll(ctx context.Context) error {
	for _, exp := range e.experiments {
		result, err := e.Run(ctx, exp)
		if err != nil {
			return fmt.Errorf("experiment %q: %w", exp.Name, err)
		}
		if !result.HypothesisHeld {
			return fmt.Errorf("experiment %q falsified hypothesis %q: %v", exp.Name, exp.Hypothesis, result.Violations)
		}
		log.Printf("experiment %q held in %s", exp.Name, result.Duration)
	}
	return nil
}

// Run executes a single experiment.
func (e *Engine) Run(ctx context.Context, exp Experiment) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "chaos.experiment",
		trace.WithAttributes(attribute.String("experiment.name", exp.Name)),
	)
	defer span.End()

	result := &Result{
		ExperimentName: exp.Name,
		StartTime:      time.Now().UTC(),
		HypothesisHeld: true,
	}

	metrics := make(map[string]float64)

	measure := func(phase string) error {
		for _, m := range exp.SteadyState {
			v, err := m.Query(ctx)
			if err != nil {
				return fmt.Errorf("measure %s (%s): %w", m.Name, phase, err)
			}
			metrics[m.Name] = v
			span.AddEvent("metric.measured", trace.WithAttributes(
				attribute.String("metric.name", m.Name),
				attribute.String("phase", phase),
				attribute.Float64("metric.value", v),
			))
		}
		return nil
	}

	if err := measure("before"); err != nil {
		return nil, err
	}

	if err := exp.Method(ctx); err != nil {
		return nil, fmt.Errorf("method: %w", err)
	}

	if err := measure("after"); err != nil {
		return nil, err
	}

	for _, a := range exp.Validation {
		v, ok := metrics[a.Metric]
		if !ok {
			result.HypothesisHeld = false
			result.Violations = append(result.Violations, fmt.Sprintf("metric %s was never measured", a.Metric))
			continue
		}
		if !a.Condition(v) {
			result.HypothesisHeld = false
			result.Violations = append(result.Violations, fmt.Sprintf("%s (observed %v)", a.Message, v))
		}
	}

	result.Duration = time.Since(result.StartTime)
	span.SetAttributes(attribute.Bool("hypothesis.held", result.HypothesisHeld))
	return result, nil
}
