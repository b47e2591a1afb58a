// Package scanner runs resume scans: it loads documents, builds the TF-IDF
// corpus with the job description as query and ranks the resumes.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ats-scanner/internal/extract"
	"github.com/spigell/ats-scanner/internal/logger"
	"github.com/spigell/ats-scanner/internal/metrics"
	"github.com/spigell/ats-scanner/internal/ranking"
	"github.com/spigell/ats-scanner/internal/text"
	"github.com/spigell/ats-scanner/internal/tfidf"
)

// Defaults used by the CLI when no top N or threshold is configured.
const (
	DefaultTopN      = 3
	DefaultThreshold = 15.0
)

// ErrInvalidParameter is returned by TopCandidates for an out-of-range top N or threshold.
var ErrInvalidParameter = ranking.ErrInvalidParameter

// TextExtractor returns the text of a file, or an empty string when the file
// cannot be read.
type TextExtractor interface {
	Extract(ctx context.Context, path string) string
}

// Document is a loaded resume.
type Document struct {
	Name string
	Path string
	Raw  string
	Text string
}

// Session owns the documents of one scan. It is not safe for concurrent use:
// run one operation at a time.
type Session struct {
	logger     *zap.Logger
	extractor  TextExtractor
	vectorizer *tfidf.Vectorizer
	metrics    *metrics.Recorder
	workers    int

	state State
	docs  []Document
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. A nil logger keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExtractor replaces the default PDF/DOCX registry.
func WithExtractor(e TextExtractor) Option {
	return func(s *Session) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithVectorizer replaces the default English TF-IDF vectorizer.
func WithVectorizer(v *tfidf.Vectorizer) Option {
	return func(s *Session) {
		if v != nil {
			s.vectorizer = v
		}
	}
}

// WithMetrics records load and scan metrics on m. A nil recorder disables them.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Session) { s.metrics = m }
}

// WithWorkers sets how many files are extracted concurrently. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// New creates an idle session.
func New(opts ...Option) *Session {
	s := &Session{
		logger:  zap.NewNop(),
		workers: 1,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.extractor == nil {
		s.extractor = extract.Default(s.logger)
	}
	if s.vectorizer == nil {
		s.vectorizer = tfidf.New()
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Len returns the number of loaded documents.
func (s *Session) Len() int { return len(s.docs) }

// Documents returns a copy of the loaded documents in load order.
func (s *Session) Documents() []Document {
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// LoadResumes replaces the loaded documents with the text of paths. Files that
// yield no text are skipped, so later documents shift up. progress, if not nil,
// is called once per file with processed/total and ends at exactly 1.0.
//
// The returned error is reserved for batch failures such as a cancelled context.
func (s *Session) LoadResumes(ctx context.Context, paths []string, progress ProgressObserver) (int, error) {
	s.state = StateLoading
	s.docs = nil

	start := time.Now()
	total := len(paths)
	slots := make([]*Document, total)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fileLogger := logger.WithFields(s.logger, zap.String("path", path))
			raw := s.extractor.Extract(gctx, path)
			normalized := text.Normalize(raw)

			format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			if normalized == "" {
				s.metrics.ObserveFile(format, metrics.FileEmpty)
				fileLogger.Debug("skipping file without text")
			} else {
				s.metrics.ObserveFile(format, metrics.FileLoaded)
				fileLogger.Debug("resume loaded", zap.Int("chars", len(normalized)))
				slots[i] = &Document{
					Name: filepath.Base(path),
					Path: path,
					Raw:  raw,
					Text: normalized,
				}
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			if progress != nil {
				progress.Progress(float64(done) / float64(total))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.state = StateError
		return 0, fmt.Errorf("load resumes: %w", err)
	}

	docs := make([]Document, 0, total)
	for _, d := range slots {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	s.docs = docs

	elapsed := time.Since(start)
	s.metrics.ObserveLoad(elapsed)
	s.logger.Info("resumes loaded",
		zap.Int("files", total),
		zap.Int("loaded", len(docs)),
		zap.Int("skipped", total-len(docs)),
		zap.Int("workers", s.workers),
		zap.Duration("took", elapsed),
	)

	return len(docs), nil
}

// TopCandidates ranks the loaded documents against jobDescription. An empty
// result is a normal outcome: nothing loaded, nothing above the threshold, or
// a corpus without usable terms.
func (s *Session) TopCandidates(ctx context.Context, jobDescription string, topN int, threshold float64) ([]ranking.Result, error) {
	opts := ranking.Options{TopN: topN, Threshold: threshold, Logger: s.logger}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	if len(s.docs) == 0 {
		s.state = StateDone
		s.metrics.ObserveScan(metrics.ScanNoDocuments, time.Since(start), 0, 0, 0)
		s.logger.Info("no documents loaded; nothing to rank")
		return []ranking.Result{}, nil
	}

	s.state = StateVectorizing
	corpus := make([]string, 0, len(s.docs)+1)
	corpus = append(corpus, text.Normalize(jobDescription))
	names := make([]string, 0, len(s.docs))
	for _, d := range s.docs {
		corpus = append(corpus, d.Text)
		names = append(names, d.Name)
	}

	matrix, err := s.vectorizer.FitTransform(corpus)
	if errors.Is(err, tfidf.ErrEmptyVocabulary) || errors.Is(err, tfidf.ErrTooFewDocuments) {
		s.state = StateDone
		s.metrics.ObserveScan(metrics.ScanNoVocabulary, time.Since(start), 0, len(names), 0)
		s.logger.Info("corpus has no usable terms; nothing to rank", zap.Error(err))
		return []ranking.Result{}, nil
	}
	if err != nil {
		s.state = StateError
		s.metrics.ObserveScan(metrics.ScanFailed, time.Since(start), 0, len(names), 0)
		return nil, fmt.Errorf("vectorize corpus: %w", err)
	}
	if err := ctx.Err(); err != nil {
		s.state = StateError
		s.metrics.ObserveScan(metrics.ScanFailed, time.Since(start), len(matrix.Vocabulary()), len(names), 0)
		return nil, err
	}

	s.state = StateRanking
	vocabulary := len(matrix.Vocabulary())
	scores := ranking.Similarities(matrix.Row(0), matrix.Tail(1))

	for _, status := range ranking.Describe(ranking.Pipeline(opts)) {
		s.logger.Debug("ranking pipeline", zap.String("step", status.Name), zap.Any("details", status.Details))
	}

	results, err := ranking.Rank(ctx, names, scores, opts)
	if err != nil {
		s.state = StateError
		s.metrics.ObserveScan(metrics.ScanFailed, time.Since(start), vocabulary, len(names), 0)
		return nil, fmt.Errorf("rank candidates: %w", err)
	}

	s.state = StateDone
	elapsed := time.Since(start)
	s.metrics.ObserveScan(metrics.ScanRanked, elapsed, vocabulary, len(names), len(results))
	s.logger.Info("candidates ranked",
		zap.Int("candidates", len(names)),
		zap.Int("vocabulary", vocabulary),
		zap.Int("results", len(results)),
		zap.Int("top_n", topN),
		zap.Float64("threshold", threshold),
		zap.Duration("took", elapsed),
	)

	return results, nil
}
