// Package saga runs a fixed list of steps and undoes the completed ones in
// reverse order when a later step fails.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Step is one forward action and its undo. Compensate may be nil for steps
// without side effects.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Error reports the failed step and any compensation that also failed.
type Error struct {
	Step         string
	Err          error
	Compensation error
}

func (e *Error) Error() string {
	if e.Compensation != nil {
		return fmt.Sprintf("saga: step %s: %v (compensation: %v)", e.Step, e.Err, e.Compensation)
	}
	return fmt.Sprintf("saga: step %s: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Saga is an ordered list of steps.
type Saga struct {
	name   string
	steps  []Step
	logger *logging.Logger
}

func New(name string, logger *logging.Logger) *Saga {
	if logger == nil {
		logger = logging.Default()
	}
	return &Saga{name: name, logger: logger.With("saga", name)}
}

// Add appends a step.
func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the steps in order. When one fails, every completed step is
// compensated last-to-first, even if ctx has been cancelled.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return s.abort(ctx, i, step.Name, err)
		}
		if err := step.Do(ctx); err != nil {
			return s.abort(ctx, i, step.Name, err)
		}
		s.logger.Debug("saga step done", "step", step.Name)
	}
	return nil
}

func (s *Saga) abort(ctx context.Context, failed int, name string, cause error) error {
	s.logger.Warn("saga step failed; compensating", "step", name, "error", cause)
	undoCtx := context.WithoutCancel(ctx)
	var errs []error
	for i := failed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(undoCtx); err != nil {
			s.logger.Error("saga compensation failed", "step", step.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}
	return &Error{Step: name, Err: cause, Compensation: errors.Join(errs...)}
}
