package scanner

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/ats-scanner/internal/metrics"
)

type fakeExtractor struct {
	mu    sync.Mutex
	texts map[string]string
	calls []string
}

func (f *fakeExtractor) Extract(_ context.Context, path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	return f.texts[path]
}

type progressRecorder struct {
	values []float64
}

func (p *progressRecorder) Progress(fraction float64) {
	p.values = append(p.values, fraction)
}

func scenarioSession(t *testing.T) *Session {
	t.Helper()

	ext := &fakeExtractor{texts: map[string]string{
		"/cv/python.pdf":   "Senior Python backend\nengineer with   AWS experience",
		"/cv/frontend.pdf": "Junior frontend developer\nHTML CSS",
	}}
	s := New(WithExtractor(ext))
	n, err := s.LoadResumes(context.Background(), []string{"/cv/python.pdf", "/cv/frontend.pdf"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 documents, got %d", n)
	}
	return s
}

func TestTopCandidatesScenario(t *testing.T) {
	t.Parallel()

	s := scenarioSession(t)
	results, err := s.TopCandidates(context.Background(), "looking for python backend engineer", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected both candidates at threshold 0, got %+v", results)
	}
	if results[0].Candidate != "python.pdf" || results[1].Candidate != "frontend.pdf" {
		t.Fatalf("unexpected order: %+v", results)
	}
	if results[0].Match <= results[1].Match {
		t.Fatalf("expected python candidate to score higher: %+v", results)
	}
	if results[0].Match >= 90 {
		t.Fatalf("expected realistic similarity below 90, got %v", results[0].Match)
	}
	if s.State() != StateDone {
		t.Fatalf("expected done state, got %s", s.State())
	}
}

func TestTopCandidatesHighThreshold(t *testing.T) {
	t.Parallel()

	s := scenarioSession(t)
	results, err := s.TopCandidates(context.Background(), "looking for python backend engineer", 2, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestTopCandidatesDefaults(t *testing.T) {
	t.Parallel()

	s := scenarioSession(t)
	results, err := s.TopCandidates(context.Background(), "python backend engineer", DefaultTopN, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Candidate != "python.pdf" || results[0].Rank != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestLoadResumesSkipsCorruptFile(t *testing.T) {
	t.Parallel()

	paths := []string{"1.pdf", "2.docx", "3.pdf", "4.pdf", "5.docx"}
	texts := map[string]string{}
	for i, p := range paths {
		if i == 2 {
			continue
		}
		texts[p] = fmt.Sprintf("resume number %d golang", i+1)
	}

	s := New(WithExtractor(&fakeExtractor{texts: texts}))
	progress := &progressRecorder{}

	n, err := s.LoadResumes(context.Background(), paths, progress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 loaded, got %d", n)
	}

	if len(progress.values) != 5 {
		t.Fatalf("expected 5 progress calls, got %v", progress.values)
	}
	for i := 1; i < len(progress.values); i++ {
		if progress.values[i] <= progress.values[i-1] {
			t.Fatalf("progress not strictly increasing: %v", progress.values)
		}
	}
	if progress.values[0] <= 0 || progress.values[4] != 1.0 {
		t.Fatalf("unexpected progress bounds: %v", progress.values)
	}

	docs := s.Documents()
	expect := []string{"1.pdf", "2.docx", "4.pdf", "5.docx"}
	for i, d := range docs {
		if d.Name != expect[i] {
			t.Fatalf("expected %s at %d, got %s", expect[i], i, d.Name)
		}
	}
}

func TestLoadResumesParallelKeepsOrder(t *testing.T) {
	t.Parallel()

	texts := map[string]string{}
	paths := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		p := fmt.Sprintf("/cv/%02d.pdf", i)
		paths = append(paths, p)
		if i%7 != 0 {
			texts[p] = fmt.Sprintf("candidate %d kubernetes", i)
		}
	}

	var (
		mu     sync.Mutex
		values []float64
	)
	s := New(WithExtractor(&fakeExtractor{texts: texts}), WithWorkers(8))
	n, err := s.LoadResumes(context.Background(), paths, ProgressFunc(func(f float64) {
		mu.Lock()
		defer mu.Unlock()
		values = append(values, f)
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(texts) {
		t.Fatalf("expected %d loaded, got %d", len(texts), n)
	}
	if len(values) != len(paths) || values[len(values)-1] != 1.0 {
		t.Fatalf("unexpected progress: %v", values)
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			t.Fatalf("progress not strictly increasing: %v", values)
		}
	}

	prev := ""
	for _, d := range s.Documents() {
		if d.Path <= prev {
			t.Fatalf("documents out of input order: %s after %s", d.Path, prev)
		}
		prev = d.Path
	}
}

func TestLoadResumesResets(t *testing.T) {
	t.Parallel()

	s := New(WithExtractor(&fakeExtractor{texts: map[string]string{
		"a.pdf": "first batch",
		"b.pdf": "second batch",
	}}))

	if _, err := s.LoadResumes(context.Background(), []string{"a.pdf"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.LoadResumes(context.Background(), []string{"b.pdf"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs := s.Documents()
	if len(docs) != 1 || docs[0].Name != "b.pdf" {
		t.Fatalf("expected only the second batch, got %+v", docs)
	}
	if docs[0].Raw != "second batch" || docs[0].Text != "second batch" {
		t.Fatalf("unexpected document: %+v", docs[0])
	}
}

func TestZeroFilesYieldsEmptyResult(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{}
	s := New(WithExtractor(ext))
	progress := &progressRecorder{}

	n, err := s.LoadResumes(context.Background(), nil, progress)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 loaded without error, got %d, %v", n, err)
	}
	if len(progress.values) != 0 {
		t.Fatalf("expected no progress calls, got %v", progress.values)
	}

	results, err := s.TopCandidates(context.Background(), "python developer", 3, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil results, got %#v", results)
	}
}

func TestTopCandidatesWithoutLoad(t *testing.T) {
	t.Parallel()

	results, err := New().TopCandidates(context.Background(), "python developer", 3, 15)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty results, got %+v, %v", results, err)
	}
}

func TestTopCandidatesEmptyVocabulary(t *testing.T) {
	t.Parallel()

	s := New(WithExtractor(&fakeExtractor{texts: map[string]string{"a.pdf": "the and of"}}))
	if _, err := s.LoadResumes(context.Background(), []string{"a.pdf"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := s.TopCandidates(context.Background(), "a an is", 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %+v", results)
	}
	if s.State() != StateDone {
		t.Fatalf("expected done state, got %s", s.State())
	}
}

func TestTopCandidatesInvalidParameters(t *testing.T) {
	t.Parallel()

	s := scenarioSession(t)
	for _, tc := range []struct {
		topN      int
		threshold float64
	}{
		{0, 15},
		{-2, 15},
		{3, -0.5},
		{3, 101},
	} {
		if _, err := s.TopCandidates(context.Background(), "python", tc.topN, tc.threshold); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("top %d threshold %v: expected ErrInvalidParameter, got %v", tc.topN, tc.threshold, err)
		}
	}
}

func TestLoadResumesCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(WithExtractor(&fakeExtractor{texts: map[string]string{"a.pdf": "text"}}))
	if _, err := s.LoadResumes(ctx, []string{"a.pdf"}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.State() != StateError {
		t.Fatalf("expected error state, got %s", s.State())
	}
}

func TestSessionLogsAndMetrics(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	rec := metrics.New()

	s := New(
		WithLogger(zap.New(core)),
		WithMetrics(rec),
		WithExtractor(&fakeExtractor{texts: map[string]string{"a.pdf": "golang developer"}}),
	)
	if _, err := s.LoadResumes(context.Background(), []string{"a.pdf", "b.docx"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.TopCandidates(context.Background(), "golang", 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded := observed.FilterMessage("resumes loaded").All()
	if len(loaded) != 1 {
		t.Fatalf("expected one load entry, got %d", len(loaded))
	}
	fields := loaded[0].ContextMap()
	if fields["loaded"] != int64(1) || fields["skipped"] != int64(1) {
		t.Fatalf("unexpected load fields: %v", fields)
	}

	if len(observed.FilterMessage("candidates ranked").All()) != 1 {
		t.Fatal("expected ranking entry")
	}

	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected metrics to be gathered")
	}
}

func TestLoadResumesLogsPerFile(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)
	s := New(
		WithLogger(zap.New(core)),
		WithExtractor(&fakeExtractor{texts: map[string]string{"a.pdf": "golang developer"}}),
	)
	if _, err := s.LoadResumes(context.Background(), []string{"a.pdf", "b.docx"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		message string
		path    string
	}{
		{message: "resume loaded", path: "a.pdf"},
		{message: "skipping file without text", path: "b.docx"},
	}
	for _, tt := range tests {
		entries := observed.FilterMessage(tt.message).All()
		if len(entries) != 1 {
			t.Fatalf("expected one %q entry, got %d", tt.message, len(entries))
		}
		if got := entries[0].ContextMap()["path"]; got != tt.path {
			t.Fatalf("%q: expected path %s, got %v", tt.message, tt.path, got)
		}
	}
}

func TestSessionWithDefaultRegistry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeDOCX(t, filepath.Join(dir, "good.docx"), "Python backend engineer, AWS")
	other := writeDOCX(t, filepath.Join(dir, "other.DOCX"), "Graphic designer, Figma")
	broken := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(broken, []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	s := New()
	n, err := s.LoadResumes(context.Background(), []string{good, broken, other}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 loaded, got %d", n)
	}

	results, err := s.TopCandidates(context.Background(), "We need a python backend engineer", 5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Candidate != "good.docx" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func writeDOCX(t *testing.T, path, paragraph string) string {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entries := map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			`<w:p><w:r><w:t>` + paragraph + `</w:t></w:r></w:p></w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}
