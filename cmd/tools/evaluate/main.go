package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/soltixdb/anomalyeval/internal/analytics"
	"github.com/soltixdb/anomalyeval/internal/analytics/anomaly"
	"github.com/soltixdb/anomalyeval/internal/config"
	"github.com/soltixdb/anomalyeval/internal/dataset"
	"github.com/soltixdb/anomalyeval/internal/evaluation"
	"github.com/soltixdb/anomalyeval/internal/logging"
	"github.com/soltixdb/anomalyeval/internal/queue"
	"github.com/soltixdb/anomalyeval/internal/services"
	"github.com/soltixdb/anomalyeval/internal/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	dataPath := flag.String("data", "", "Labelled series CSV (timestamp,value,label), .sz for snappy")
	detectionsPath := flag.String("detections", "", "Detection CSV (start,end,score); skips the detector when set")
	lag := flag.Int("lag", 0, "Detector lag (default from config)")
	detectorNames := flag.String("detector", "", "Comma separated detector names (default from config)")
	outPath := flag.String("out", "", "Write the loaded series to this path, .sz for snappy")
	full := flag.Bool("full", false, "Include the full ranking in the precision/recall sweep")
	parallel := flag.Bool("parallel", false, "Compute per-threshold AP concurrently")
	publish := flag.Bool("publish", false, "Publish the reports to the configured queue")
	list := flag.Bool("list", false, "List registered detectors and exit")
	flag.Parse()

	if *list {
		for _, name := range anomaly.ListDetectors() {
			fmt.Println(name)
		}
		return
	}

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: evaluate -data series.csv [-detections detections.csv] [-lag N] [-detector a,b] [-out copy.csv.sz]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the report
	if cfg.Logging.OutputPath == "stdout" {
		cfg.Logging.OutputPath = "stderr"
	}
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	if *full {
		cfg.Evaluation.IncludeFullRanking = true
	}
	if *parallel {
		cfg.Evaluation.Parallel = true
	}
	if *lag == 0 {
		*lag = cfg.Detector.Lag
	}
	opts := options{
		dataPath:       *dataPath,
		detectionsPath: *detectionsPath,
		outPath:        *outPath,
		detectors:      parseDetectorNames(*detectorNames, cfg.Detector.Algorithm),
		lag:            *lag,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := run(ctx, logger, cfg, opts)
	if err != nil {
		logger.Fatal("Evaluation failed", "error", err)
	}

	var out interface{} = reports
	if len(reports) == 1 {
		out = reports[0]
	}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode report", "error", err)
	}
	fmt.Println(string(payload))

	if *publish {
		publisher, err := queue.NewPublisher(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to create publisher", "error", err)
		}
		defer func() { _ = publisher.Close() }()

		if err := publishReports(ctx, publisher, cfg.Queue.Subject, reports); err != nil {
			logger.Fatal("Failed to publish reports", "error", err)
		}
		logger.Info("Reports published", "subject", cfg.Queue.Subject, "reports", len(reports))
	}
}

type options struct {
	dataPath       string
	detectionsPath string
	outPath        string
	detectors      []string
	lag            int
}

// parseDetectorNames splits a comma separated list, dropping blanks and
// repeats. An empty list falls back to def.
func parseDetectorNames(list, def string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return []string{def}
	}
	return names
}

// run scores a detections file when one is given, otherwise every named
// detector in turn. Each report gets its own ID.
func run(ctx context.Context, logger *logging.Logger, cfg *config.Config, opts options) ([]*evaluation.Report, error) {
	layout := cfg.Evaluation.TimeLayout

	series, err := dataset.LoadSeries(opts.dataPath, layout)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded series",
		"path", opts.dataPath,
		"points", series.Len(),
		"anomalous", analytics.LabelSeries(series.Labels).Anomalous())

	if opts.outPath != "" {
		if err := exportSeries(opts.outPath, series, layout); err != nil {
			return nil, err
		}
		logger.Info("Wrote series", "path", opts.outPath)
	}

	evalCfg := services.EvaluationConfig(cfg.Evaluation)

	if opts.detectionsPath != "" {
		detections, err := dataset.LoadDetections(opts.detectionsPath, layout)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded detections", "path", opts.detectionsPath, "detections", len(detections))

		evaluator, err := evaluation.NewEvaluator(evalCfg, nil, logger)
		if err != nil {
			return nil, err
		}
		report, err := evaluator.Score(ctx, detections, series.Labels)
		if err != nil {
			return nil, err
		}
		report.ID = uuid.NewString()
		return []*evaluation.Report{report}, nil
	}

	reports := make([]*evaluation.Report, 0, len(opts.detectors))
	for _, name := range opts.detectors {
		detector, err := anomaly.GetDetector(name)
		if err != nil {
			return nil, err
		}
		evaluator, err := evaluation.NewEvaluator(evalCfg, detector, logger)
		if err != nil {
			return nil, err
		}
		report, err := evaluator.MeanAveragePrecision(ctx, series.Points, series.Labels, opts.lag)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		report.ID = uuid.NewString()
		reports = append(reports, report)
	}
	return reports, nil
}

func exportSeries(path string, series *dataset.Series, layout string) error {
	w, err := dataset.Create(path)
	if err != nil {
		return err
	}
	if err := dataset.WriteSeries(w, series, layout); err != nil {
		_ = w.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return w.Close()
}

// publishReports sends all reports in one batch
func publishReports(ctx context.Context, publisher queue.Publisher, subject string, reports []*evaluation.Report) error {
	messages := make([]queue.BatchMessage, 0, len(reports))
	for _, report := range reports {
		data, err := json.Marshal(report)
		if err != nil {
			return err
		}
		messages = append(messages, queue.BatchMessage{Subject: subject, Data: data})
	}

	ctx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()

	sent, err := publisher.PublishBatch(ctx, messages)
	if err != nil {
		return fmt.Errorf("published %d of %d reports: %w", sent, len(messages), err)
	}
	return nil
}
