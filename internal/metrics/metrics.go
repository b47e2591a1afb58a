// Package metrics records scan statistics with prometheus collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ats_scanner"

// File extraction outcomes.
const (
	FileLoaded = "loaded"
	FileEmpty  = "empty"
)

// Scan outcomes.
const (
	ScanRanked       = "ranked"
	ScanNoDocuments  = "no_documents"
	ScanNoVocabulary = "no_vocabulary"
	ScanFailed       = "failed"
)

// Recorder owns a private registry so several recorders never collide.
type Recorder struct {
	registry *prometheus.Registry

	files          *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	scans          *prometheus.CounterVec
	rankDuration   prometheus.Histogram
	vocabularySize prometheus.Gauge
	candidates     prometheus.Gauge
	results        prometheus.Gauge
}

// New creates a recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Resume files processed, by extraction result",
			},
			[]string{"format", "result"},
		),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent extracting a batch of resumes",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
		scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Ranking runs, by outcome",
			},
			[]string{"outcome"},
		),
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_duration_seconds",
			Help:      "Time spent vectorizing and ranking",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		vocabularySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vocabulary_terms",
			Help:      "Vocabulary size of the last fitted corpus",
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Documents ranked in the last scan",
		}),
		results: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "results",
			Help:      "Results returned by the last scan",
		}),
	}

	r.registry.MustRegister(r.files, r.loadDuration, r.scans, r.rankDuration, r.vocabularySize, r.candidates, r.results)
	return r
}

// Registry exposes the underlying gatherer.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveFile counts one processed file.
func (r *Recorder) ObserveFile(format, result string) {
	if r == nil {
		return
	}
	r.files.WithLabelValues(format, result).Inc()
}

// ObserveLoad records the duration of a load batch.
func (r *Recorder) ObserveLoad(d time.Duration) {
	if r == nil {
		return
	}
	r.loadDuration.Observe(d.Seconds())
}

// ObserveScan records one ranking run.
func (r *Recorder) ObserveScan(outcome string, d time.Duration, vocabulary, candidates, results int) {
	if r == nil {
		return
	}
	r.scans.WithLabelValues(outcome).Inc()
	r.rankDuration.Observe(d.Seconds())
	r.vocabularySize.Set(float64(vocabulary))
	r.candidates.Set(float64(candidates))
	r.results.Set(float64(results))
}

// WriteTextfile dumps the current values in the text exposition format, for
// the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
