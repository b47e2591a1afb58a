package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/ats-scanner/internal/report"
	"github.com/spigell/ats-scanner/internal/scanner"
)

const (
	PromptShow         = "Show results"
	PromptThreshold    = "Change minimum match threshold"
	PromptTopN         = "Change number of top candidates"
	PromptReportByBand = "Report by score band"
	PromptResultsFile  = "Dump results to file"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShow, PromptThreshold, PromptTopN, PromptReportByBand, PromptResultsFile, PromptExit},
}

// interact re-ranks the already loaded resumes until the user exits.
func interact(ctx context.Context, logger *zap.Logger, session *scanner.Session, job string, rep *report.Report, out io.Writer) error {
	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		if err := handleAction(ctx, action, logger, session, job, rep, out); err != nil {
			return err
		}
	}
}

func handleAction(ctx context.Context, action string, logger *zap.Logger, session *scanner.Session, job string, rep *report.Report, out io.Writer) error {
	switch action {
	case PromptShow:
		return rep.Render(out, report.FormatTable)
	case PromptThreshold:
		value, err := askNumber("Minimum match (0-100)", strconv.FormatFloat(rep.Threshold, 'f', -1, 64), validateThreshold)
		if err != nil {
			return err
		}
		threshold, err := parseThreshold(value)
		if err != nil {
			return err
		}
		rep.Threshold = threshold
		return rerank(ctx, logger, session, job, rep, out)
	case PromptTopN:
		value, err := askNumber("Top candidates", strconv.Itoa(rep.TopN), validateTopN)
		if err != nil {
			return err
		}
		topN, err := parseTopN(value)
		if err != nil {
			return err
		}
		rep.TopN = topN
		return rerank(ctx, logger, session, job, rep, out)
	case PromptReportByBand:
		pretty, _ := json.MarshalIndent(rep.ByBand(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", len(rep.Results)))
		return nil
	case PromptResultsFile:
		filename, err := rep.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func rerank(ctx context.Context, logger *zap.Logger, session *scanner.Session, job string, rep *report.Report, out io.Writer) error {
	if err := rank(ctx, session, job, rep); err != nil {
		return err
	}
	logger.Info("candidates re-ranked",
		zap.Int("top_n", rep.TopN),
		zap.Float64("threshold", rep.Threshold),
		zap.Int("count", len(rep.Results)),
	)
	return rep.Render(out, report.FormatTable)
}

func askNumber(label, current string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Default:  current,
		Validate: validate,
	}
	value, err := p.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func validateThreshold(input string) error {
	_, err := parseThreshold(input)
	return err
}

func validateTopN(input string) error {
	_, err := parseTopN(input)
	return err
}

// parseThreshold reads a minimum match percentage in [0, 100].
func parseThreshold(input string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if v < 0 || v > 100 {
		return 0, errors.New("must be between 0 and 100")
	}
	return v, nil
}

// parseTopN reads a positive number of candidates.
func parseTopN(input string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, errors.New("not an integer")
	}
	if v < 1 {
		return 0, errors.New("must be at least 1")
	}
	return v, nil
}
