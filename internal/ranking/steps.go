package ranking

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// Filter is a single step of the ranking pipeline.
type Filter interface {
	Name() string
	Apply(ctx context.Context, c []Candidate) ([]Candidate, Step, error)
}

// Step describes the result of executing a ranking step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status describes a configured step.
type Status struct {
	Name    string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Run executes the steps sequentially.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, c []Candidate) ([]Candidate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, info, err := step.Apply(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Debug("ranking step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		c = next
	}

	return c, nil
}

// Describe returns status entries for the provided steps.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}
		statuses = append(statuses, Status{Name: step.Name()})
	}
	return statuses
}

type thresholdFilter struct {
	threshold float64
}

// NewThreshold drops candidates whose match percentage is below threshold.
func NewThreshold(threshold float64) Filter {
	return &thresholdFilter{threshold: threshold}
}

func (f *thresholdFilter) Name() string { return "threshold" }

func (f *thresholdFilter) Apply(_ context.Context, c []Candidate) ([]Candidate, Step, error) {
	kept := make([]Candidate, 0, len(c))
	for _, cand := range c {
		if cand.Match < f.threshold {
			continue
		}
		kept = append(kept, cand)
	}
	return kept, Step{Initial: len(c), Dropped: len(c) - len(kept), Left: len(kept)}, nil
}

func (f *thresholdFilter) Status() Status {
	return Status{Name: f.Name(), Details: map[string]string{
		"threshold": strconv.FormatFloat(f.threshold, 'f', 2, 64),
	}}
}

type sortFilter struct{}

// NewSort orders candidates by raw score, highest first. Ties keep their
// input order.
func NewSort() Filter {
	return &sortFilter{}
}

func (f *sortFilter) Name() string { return "sort" }

func (f *sortFilter) Apply(_ context.Context, c []Candidate) ([]Candidate, Step, error) {
	sorted := make([]Candidate, len(c))
	copy(sorted, c)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted, Step{Initial: len(c), Left: len(sorted)}, nil
}

type topNFilter struct {
	n int
}

// NewTopN keeps the first n candidates.
func NewTopN(n int) Filter {
	return &topNFilter{n: n}
}

func (f *topNFilter) Name() string { return "top_n" }

func (f *topNFilter) Apply(_ context.Context, c []Candidate) ([]Candidate, Step, error) {
	if f.n < 1 {
		return nil, Step{}, fmt.Errorf("%w: top_n must be at least 1, got %d", ErrInvalidParameter, f.n)
	}
	kept := c
	if len(kept) > f.n {
		kept = kept[:f.n]
	}
	return kept, Step{Initial: len(c), Dropped: len(c) - len(kept), Left: len(kept)}, nil
}

func (f *topNFilter) Status() Status {
	return Status{Name: f.Name(), Details: map[string]string{"top_n": strconv.Itoa(f.n)}}
}
