// Package extract turns resume files into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for files with an extension no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor reads a single document format.
type Extractor interface {
	// Extract returns the text content of the file at path.
	Extract(ctx context.Context, path string) (string, error)
	// Extensions returns the lowercase file extensions handled, with the leading dot.
	Extensions() []string
}

// Registry dispatches files to extractors by extension.
type Registry struct {
	logger     *zap.Logger
	extractors map[string]Extractor
}

// NewRegistry returns a registry for the given extractors. Later extractors
// win when extensions overlap.
func NewRegistry(logger *zap.Logger, extractors ...Extractor) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		logger:     logger,
		extractors: make(map[string]Extractor),
	}
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			r.extractors[strings.ToLower(ext)] = e
		}
	}
	return r
}

// Default returns a registry handling .pdf and .docx files.
func Default(logger *zap.Logger) *Registry {
	return NewRegistry(logger, NewPDF(), NewDOCX())
}

// Supported reports whether path has an extension handled by the registry.
// The check is case-insensitive.
func (r *Registry) Supported(path string) bool {
	_, ok := r.extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the handled extensions in sorted order.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Read extracts the text of path, returning any failure to the caller.
// Panics raised by the underlying parsers are converted into errors.
func (r *Registry) Read(ctx context.Context, path string) (text string, err error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("parsing %s: %v", filepath.Base(path), rec)
		}
	}()

	return e.Extract(ctx, path)
}

// Extract is Read with failures logged and reported as an empty string, so
// that one unreadable file never aborts a batch.
func (r *Registry) Extract(ctx context.Context, path string) string {
	text, err := r.Read(ctx, path)
	if err != nil {
		r.logger.Warn("text extraction failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return ""
	}
	return text
}
