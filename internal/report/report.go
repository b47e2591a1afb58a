// Package report renders ranked scan results.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/spigell/ats-scanner/internal/ranking"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Score bands.
const (
	BandStrong   = "strong"
	BandModerate = "moderate"
	BandWeak     = "weak"
)

// NoResultsHint is shown when nothing passes the threshold.
const NoResultsHint = "No suitable candidates found. Try lowering the minimum match threshold or check a different job description."

// Report is a scan outcome ready for rendering.
type Report struct {
	Files     int              `json:"files" yaml:"files"`
	Loaded    int              `json:"loaded" yaml:"loaded"`
	TopN      int              `json:"top_n" yaml:"top_n"`
	Threshold float64          `json:"threshold" yaml:"threshold"`
	Results   []ranking.Result `json:"results" yaml:"results"`
}

// Band classifies a match percentage: above 70 is strong, above 40 moderate.
func Band(match float64) string {
	switch {
	case match > 70:
		return BandStrong
	case match > 40:
		return BandModerate
	default:
		return BandWeak
	}
}

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatYAML}
}

// ValidFormat reports whether format is supported.
func ValidFormat(format string) bool {
	for _, f := range Formats() {
		if f == format {
			return true
		}
	}
	return false
}

// Render writes r to w in the given format.
func (r *Report) Render(w io.Writer, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatTable, "":
		return r.renderTable(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.normalized())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.normalized()); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q, expected one of %s", format, strings.Join(Formats(), ", "))
	}
}

func (r *Report) renderTable(w io.Writer) error {
	if len(r.Results) == 0 {
		_, err := fmt.Fprintln(w, NoResultsHint)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCANDIDATE\tMATCH\tBAND")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "#%d\t%s\t%.2f%%\t%s\n", res.Rank, res.Candidate, res.Match, Band(res.Match))
	}
	return tw.Flush()
}

// normalized keeps an empty result list encoded as [] instead of null.
func (r *Report) normalized() *Report {
	if r.Results != nil {
		return r
	}
	cp := *r
	cp.Results = []ranking.Result{}
	return &cp
}

// ByBand groups candidate names by score band, keeping rank order.
func (r *Report) ByBand() map[string][]string {
	out := make(map[string][]string)
	for _, res := range r.Results {
		band := Band(res.Match)
		out[band] = append(out[band], res.Candidate)
	}
	return out
}

// DumpToTmpFile writes the report as JSON into a new temporary file and
// returns its name. The file is removed again if writing fails.
func (r *Report) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "ats_results_*.json")
	if err != nil {
		return "", err
	}

	if err := r.Render(file, FormatJSON); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("write %s: %w", file.Name(), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("close %s: %w", file.Name(), err)
	}
	return file.Name(), nil
}
