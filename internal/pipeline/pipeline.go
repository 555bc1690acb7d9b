// Package pipeline runs named steps strictly in order. The first failing step
// stops the run; later steps never execute.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrStepFailed matches every *StepError.
var ErrStepFailed = errors.New("pipeline step failed")

// StepError reports which step stopped the run.
type StepError struct {
	Step  string
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStepFailed) true for any step failure.
func (e *StepError) Is(target error) bool { return target == ErrStepFailed }

// File is one output file found by EnumerateFiles.
type File struct {
	Path string
	Size int64
}

// Summary is the aggregate computed by SumSizes.
type Summary struct {
	Files      int
	TotalBytes int64
}

// KB is the total size in kilobytes, two decimals.
func (s Summary) KB() string {
	return decimal.NewFromInt(s.TotalBytes).Div(decimal.NewFromInt(1024)).StringFixed(2)
}

// State is shared by the steps of one run.
type State struct {
	Dir      string
	Produced []string // paths written by this run; files already in Dir are not counted
	Files    []File
	Summary  Summary
}

// produce records paths written by a step, once each.
func (st *State) produce(paths ...string) {
	for _, p := range paths {
		if !slices.Contains(st.Produced, p) {
			st.Produced = append(st.Produced, p)
		}
	}
}

// Step is a named unit of work.
type Step struct {
	Name string
	Run  func(ctx context.Context, st *State) error
}

// Runner executes steps in order.
type Runner struct {
	steps []Step
	log   logrus.FieldLogger
}

// NewRunner creates a Runner for steps.
func NewRunner(log logrus.FieldLogger, steps ...Step) *Runner {
	return &Runner{steps: steps, log: log}
}

// Run executes every step against st. It returns a *StepError for the first
// step that fails or for a context cancelled between steps.
func (r *Runner) Run(ctx context.Context, st *State) error {
	for i, step := range r.steps {
		log := r.log.WithFields(logrus.Fields{"step": step.Name, "index": i + 1, "total": len(r.steps)})
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Index: i, Err: err}
		}

		log.Info("running step")
		if err := step.Run(ctx, st); err != nil {
			log.WithError(err).Error("step failed, aborting pipeline")
			return &StepError{Step: step.Name, Index: i, Err: err}
		}
		log.Debug("step done")
	}
	return nil
}
