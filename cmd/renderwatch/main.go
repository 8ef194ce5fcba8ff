package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/renderwatch/renderwatch/internal/config"
	"github.com/renderwatch/renderwatch/internal/observability"
	"github.com/renderwatch/renderwatch/internal/results"
	"github.com/renderwatch/renderwatch/internal/session"
)

var version = "0.1.0"

func main() {
	var (
		runDir      string
		configPath  string
		jsonSummary bool
	)

	rootCmd := &cobra.Command{
		Use:     "renderwatch",
		Short:   "Visual regression results analysis and reporting",
		Version: version,
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Load a run and generate its comparison report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(runDir, configPath, jsonSummary)
		},
	}
	reportCmd.Flags().StringVar(&runDir, "run", "", "Run directory containing results.json")
	reportCmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	reportCmd.Flags().BoolVar(&jsonSummary, "json", false, "Output summary as JSON")
	_ = reportCmd.MarkFlagRequired("run")

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load a run and print its header",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(runDir, configPath)
		},
	}
	loadCmd.Flags().StringVar(&runDir, "run", "", "Run directory containing results.json")
	loadCmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	_ = loadCmd.MarkFlagRequired("run")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run's results.json against the document schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(runDir)
		},
	}
	validateCmd.Flags().StringVar(&runDir, "run", "", "Run directory containing results.json")
	_ = validateCmd.MarkFlagRequired("run")

	rootCmd.AddCommand(reportCmd, loadCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, wires logging, and initializes tracing.
func setup(configPath string) (*config.Config, *observability.TracerProvider, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	for _, warning := range cfg.Validate() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))

	tp, err := observability.InitTracing(context.Background(), &observability.TracingConfig{
		ServiceName:    "renderwatch",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, tp, nil
}

func runReport(runDir, configPath string, jsonSummary bool) error {
	cfg, tp, err := setup(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() { _ = tp.Shutdown(ctx) }()

	sess := session.New(cfg)
	if _, err := sess.Load(ctx, runDir); err != nil {
		return err
	}
	rep, err := sess.GenerateReport(ctx)
	if err != nil {
		return err
	}

	if jsonSummary {
		data, err := rep.Report.Summary.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	rep.Report.Summary.PrintSummary(os.Stdout)
	fmt.Printf("Table written to %s\n", rep.ExportPath)
	return nil
}

func runLoad(runDir, configPath string) error {
	cfg, tp, err := setup(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() { _ = tp.Shutdown(ctx) }()

	run, err := session.New(cfg).Load(ctx, runDir)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", run.Header.Title)
	fmt.Printf("  Result version: %s\n", run.Header.ResultVersion)
	fmt.Printf("  Tests:          %d (%d failed)\n", run.Header.TotalTests, run.Header.FailedTests)
	fmt.Printf("  Loaded:         %d tests, %d samples\n", len(run.Tests), run.SampleCount())
	fmt.Printf("  Duration:       %s\n", run.Header.Duration)
	return nil
}

func runValidate(runDir string) error {
	path := filepath.Join(runDir, session.ResultsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read results document: %w", err)
	}
	if err := results.ValidateDocument(data); err != nil {
		return err
	}
	fmt.Printf("%s: OK\n", path)
	return nil
}
