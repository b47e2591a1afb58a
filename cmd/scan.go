package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-scanner/internal/extract"
	"github.com/spigell/ats-scanner/internal/jobdesc"
	"github.com/spigell/ats-scanner/internal/logger"
	"github.com/spigell/ats-scanner/internal/metrics"
	"github.com/spigell/ats-scanner/internal/report"
	"github.com/spigell/ats-scanner/internal/scanner"
	"github.com/spigell/ats-scanner/internal/text"
	"github.com/spigell/ats-scanner/internal/tfidf"
)

const jobPreviewLength = 80

var scanCmd = &cobra.Command{
	Use:   "scan [files or directories...]",
	Short: "Rank resumes against a job description",
	Run: func(cmd *cobra.Command, args []string) {
		scan(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("job", "j", "", "job description text")
	scanCmd.Flags().String("job-file", "", "file with the job description (txt, md, pdf or docx); takes precedence over --job")
	scanCmd.Flags().IntP("top-n", "n", scanner.DefaultTopN, "number of top candidates to show")
	scanCmd.Flags().Float64P("threshold", "t", scanner.DefaultThreshold, "minimum match percentage (0-100)")
	scanCmd.Flags().IntP("workers", "w", 1, "number of files extracted concurrently")
	scanCmd.Flags().StringSlice("stop-words", nil, "extra words ignored when matching, added to the english stop words")
	scanCmd.Flags().StringP("output", "o", report.FormatTable, "output format: table, json or yaml")
	scanCmd.Flags().String("metrics-file", "", "write prometheus metrics to this file after the scan")
	scanCmd.Flags().BoolP("interactive", "i", false, "ask what to do with the results after the scan")

	viper.BindPFlag("job", scanCmd.Flags().Lookup("job"))
	viper.BindPFlag("job-file", scanCmd.Flags().Lookup("job-file"))
	viper.BindPFlag("scan.top-n", scanCmd.Flags().Lookup("top-n"))
	viper.BindPFlag("scan.threshold", scanCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("scan.workers", scanCmd.Flags().Lookup("workers"))
	viper.BindPFlag("scan.stop-words", scanCmd.Flags().Lookup("stop-words"))
	viper.BindPFlag("output.format", scanCmd.Flags().Lookup("output"))
	viper.BindPFlag("metrics-file", scanCmd.Flags().Lookup("metrics-file"))
	viper.BindPFlag("interactive", scanCmd.Flags().Lookup("interactive"))
}

// scan is the main command for the cli.
func scan(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the ats-scanner", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if len(args) > 0 {
		config.Scan.Paths = args
	}

	var recorder *metrics.Recorder
	if config.MetricsFile != "" {
		recorder = metrics.New()
	}

	job, session, rep, err := runScan(ctx, logger, config, recorder, cmd.OutOrStdout())
	if err != nil {
		logger.Fatal("scan failed", zap.Error(err))
	}

	if config.Interactive && session.Len() > 0 {
		if err := interact(ctx, logger, session, job, rep, cmd.OutOrStdout()); err != nil && !errors.Is(err, errExit) {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	if err := recorder.WriteTextfile(config.MetricsFile); err != nil {
		logger.Error("writing metrics", zap.Error(err))
		return
	}
	if recorder != nil {
		logger.Info("metrics written", zap.String("path", config.MetricsFile))
	}
}

// runScan loads the resumes, ranks them and renders the report to out.
func runScan(ctx context.Context, lg *zap.Logger, config *Config, recorder *metrics.Recorder, out io.Writer) (string, *scanner.Session, *report.Report, error) {
	if config == nil || config.Scan == nil || config.Output == nil {
		return "", nil, nil, errors.New("config is required")
	}

	format := strings.ToLower(strings.TrimSpace(config.Output.Format))
	if format == "" {
		format = report.FormatTable
	}
	if !report.ValidFormat(format) {
		return "", nil, nil, fmt.Errorf("unknown output format %q, expected one of %s", config.Output.Format, strings.Join(report.Formats(), ", "))
	}
	config.Output.Format = format

	registry := extract.Default(lg)

	source := jobdesc.Source{Text: config.Job, File: config.JobFile}
	job, err := jobdesc.Load(ctx, source, registry)
	if err != nil {
		return "", nil, nil, fmt.Errorf("loading job description: %w", err)
	}
	if err := jobdesc.Validate(job); err != nil {
		return "", nil, nil, err
	}
	lg.Info("job description loaded", logger.JobFields(source.Name(), job, jobPreviewLength)...)

	files, err := collectFiles(registry, config.Scan.Paths)
	if err != nil {
		return "", nil, nil, err
	}
	if len(files) == 0 {
		return "", nil, nil, fmt.Errorf("no resumes selected; pass files (%s) or directories", strings.Join(registry.Extensions(), ", "))
	}
	lg.Info("resumes selected", zap.Int("count", len(files)), zap.Strings("extensions", registry.Extensions()))

	stop := text.English().With(config.Scan.StopWords...)
	session := scanner.New(
		scanner.WithLogger(lg),
		scanner.WithExtractor(registry),
		scanner.WithVectorizer(tfidf.New(tfidf.WithStopWords(stop))),
		scanner.WithWorkers(config.Scan.Workers),
		scanner.WithMetrics(recorder),
	)

	loaded, err := session.LoadResumes(ctx, files, scanner.ProgressFunc(func(fraction float64) {
		lg.Debug("loading resumes", zap.String("progress", fmt.Sprintf("%.0f%%", fraction*100)))
	}))
	if err != nil {
		return "", nil, nil, err
	}

	rep := &report.Report{
		Files:     len(files),
		Loaded:    loaded,
		TopN:      config.Scan.TopN,
		Threshold: config.Scan.Threshold,
	}
	if err := rank(ctx, session, job, rep); err != nil {
		return "", nil, nil, err
	}

	if err := rep.Render(out, format); err != nil {
		return "", nil, nil, fmt.Errorf("render results: %w", err)
	}

	return job, session, rep, nil
}

// rank refreshes rep.Results using the top N and threshold stored in rep.
func rank(ctx context.Context, session *scanner.Session, job string, rep *report.Report) error {
	results, err := session.TopCandidates(ctx, job, rep.TopN, rep.Threshold)
	if err != nil {
		return fmt.Errorf("ranking candidates: %w", err)
	}
	rep.Results = results
	return nil
}

// collectFiles expands directories into the supported files they contain.
// Files are kept as given, unsupported ones are skipped later during extraction.
func collectFiles(registry *extract.Registry, paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("resume path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		found, err := registry.Discover(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}
