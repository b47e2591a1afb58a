// Package tfidf builds term-frequency / inverse-document-frequency matrices
// over a small in-memory corpus.
package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/spigell/ats-scanner/internal/text"
)

var (
	// ErrTooFewDocuments is returned when the corpus has no candidate besides the query.
	ErrTooFewDocuments = errors.New("at least two documents are required")
	// ErrEmptyVocabulary is returned when no term survives tokenization and stop-word removal.
	ErrEmptyVocabulary = errors.New("empty vocabulary; documents are empty or contain only stop words")
)

// Vectorizer fits a vocabulary and idf weights on a corpus. It keeps no
// state between fits.
type Vectorizer struct {
	stop text.StopWords
}

// Option configures a Vectorizer.
type Option func(*Vectorizer)

// WithStopWords replaces the default English stop-word list. A nil set
// disables stop-word removal.
func WithStopWords(stop text.StopWords) Option {
	return func(v *Vectorizer) { v.stop = stop }
}

// New returns a vectorizer that splits documents with text.Terms and drops
// English stop words.
func New(opts ...Option) *Vectorizer {
	v := &Vectorizer{
		stop: text.English(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// FitTransform derives the vocabulary from docs and returns one L2-normalized
// row per document, in input order.
//
// Weights are raw term counts scaled by the smoothed idf
// ln((1+n)/(1+df)) + 1.
func (v *Vectorizer) FitTransform(docs []string) (*Matrix, error) {
	if len(docs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewDocuments, len(docs))
	}

	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tf := make(map[string]int)
		for _, term := range text.Terms(doc, v.stop) {
			tf[term]++
		}
		for term := range tf {
			df[term]++
		}
		counts[i] = tf
	}

	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	index := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	n := float64(len(docs))
	for i, term := range vocab {
		index[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	rows := make([]Vector, len(docs))
	for i, tf := range counts {
		row := Vector{
			Indices: make([]int, 0, len(tf)),
			Values:  make([]float64, 0, len(tf)),
		}
		for term := range tf {
			row.Indices = append(row.Indices, index[term])
		}
		sort.Ints(row.Indices)
		for _, idx := range row.Indices {
			row.Values = append(row.Values, float64(tf[vocab[idx]])*idf[idx])
		}
		row.normalize()
		rows[i] = row
	}

	return &Matrix{vocab: vocab, index: index, idf: idf, rows: rows}, nil
}
