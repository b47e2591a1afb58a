// Package jobdesc resolves the job description used as the ranking query.
package jobdesc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// MinLength is the shortest job description, in runes, accepted for a scan.
const MinLength = 10

var (
	// ErrMissing is returned when neither inline text nor a file is configured.
	ErrMissing = errors.New("job description is not configured")
	// ErrTooShort is returned for descriptions shorter than MinLength.
	ErrTooShort = errors.New("job description is too short")
)

// Reader extracts text from document formats such as PDF and DOCX.
type Reader interface {
	Supported(path string) bool
	Read(ctx context.Context, path string) (string, error)
}

// Source describes how to load a job description.
type Source struct {
	// Text is an inline description provided via configuration or flags.
	Text string
	// File points to a file containing the description. When set it takes
	// precedence over Text. Documents the Reader supports are extracted with
	// it; anything else is read as plain text.
	File string
}

// Name reports which part of the source is used.
func (s Source) Name() string {
	if strings.TrimSpace(s.File) != "" {
		return "file"
	}
	if strings.TrimSpace(s.Text) != "" {
		return "inline"
	}
	return ""
}

// Load returns the trimmed job description from src.
func Load(ctx context.Context, src Source, reader Reader) (string, error) {
	file := strings.TrimSpace(src.File)
	if file != "" {
		text, err := readFile(ctx, file, reader)
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", fmt.Errorf("job description file %q is empty", file)
		}
		return text, nil
	}

	text := strings.TrimSpace(src.Text)
	if text == "" {
		return "", ErrMissing
	}
	return text, nil
}

// Validate rejects descriptions shorter than MinLength runes.
func Validate(description string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(description)); n < MinLength {
		return fmt.Errorf("%w: %d characters, at least %d required", ErrTooShort, n, MinLength)
	}
	return nil
}

func readFile(ctx context.Context, path string, reader Reader) (string, error) {
	if reader != nil && reader.Supported(path) {
		text, err := reader.Read(ctx, path)
		if err != nil {
			return "", fmt.Errorf("reading job description from %q: %w", path, err)
		}
		return text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading job description from file %q: %w", path, err)
	}
	return string(data), nil
}
