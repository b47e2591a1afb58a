// Package ranking scores candidate vectors against a query and turns the
// scores into an ordered, filtered result list.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/spigell/ats-scanner/internal/tfidf"
)

// ErrInvalidParameter is returned for out-of-range ranking options.
var ErrInvalidParameter = errors.New("invalid parameter")

// Candidate pairs a document name with its similarity to the query.
type Candidate struct {
	Name  string
	Score float64
	Match float64
}

// Result is one row of the ranked output.
type Result struct {
	Rank      int     `json:"rank" yaml:"rank"`
	Candidate string  `json:"candidate" yaml:"candidate"`
	Match     float64 `json:"match_percent" yaml:"match_percent"`
	Score     float64 `json:"score" yaml:"score"`
}

// Options controls filtering and truncation.
type Options struct {
	TopN      int
	Threshold float64
	Logger    *zap.Logger
}

// Validate checks TopN >= 1 and Threshold within [0, 100].
func (o Options) Validate() error {
	if o.TopN < 1 {
		return fmt.Errorf("%w: top_n must be at least 1, got %d", ErrInvalidParameter, o.TopN)
	}
	if math.IsNaN(o.Threshold) || o.Threshold < 0 || o.Threshold > 100 {
		return fmt.Errorf("%w: threshold must be within [0, 100], got %v", ErrInvalidParameter, o.Threshold)
	}
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector.
func Cosine(a, b tfidf.Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return a.Dot(b) / (na * nb)
}

// Similarities computes Cosine(query, doc) for every doc in order.
func Similarities(query tfidf.Vector, docs []tfidf.Vector) []float64 {
	out := make([]float64, len(docs))
	for i, doc := range docs {
		out[i] = Cosine(query, doc)
	}
	return out
}

// MatchPercent converts a similarity into a percentage rounded to two decimals.
func MatchPercent(score float64) float64 {
	return math.Round(score*100*100) / 100
}

// Pipeline returns the ranking steps in execution order: threshold filter,
// stable sort, truncation.
func Pipeline(opts Options) []Filter {
	return []Filter{
		NewThreshold(opts.Threshold),
		NewSort(),
		NewTopN(opts.TopN),
	}
}

// Rank pairs names with scores, drops candidates whose rounded match is below
// the threshold, stable-sorts the rest by raw score descending and keeps the
// first TopN.
func Rank(ctx context.Context, names []string, scores []float64, opts Options) ([]Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(names) != len(scores) {
		return nil, fmt.Errorf("got %d names for %d scores", len(names), len(scores))
	}

	candidates := make([]Candidate, len(names))
	for i, name := range names {
		candidates[i] = Candidate{Name: name, Score: scores[i], Match: MatchPercent(scores[i])}
	}

	ranked, err := Run(ctx, opts.Logger, Pipeline(opts), candidates)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(ranked))
	for i, c := range ranked {
		results[i] = Result{Rank: i + 1, Candidate: c.Name, Match: c.Match, Score: c.Score}
	}
	return results, nil
}
