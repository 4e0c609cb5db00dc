// cmd/dataprep/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	pipelineFile := flag.String("config", "", "pipeline definition file (overrides PIPELINE_FILE)")
	dataset := flag.String("dataset", "", "prepare only the named dataset")
	dryRun := flag.Bool("dry-run", false, "scrub and verify without writing output")
	maxFailures := flag.Int("max-failures", 0, "abort after this many failed datasets (0 = never)")
	flag.Parse()

	// A missing .env file is fine; environment variables still apply
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if *pipelineFile != "" {
		cfg.PipelineFile = *pipelineFile
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	spec, err := config.LoadPipelineSpec(cfg.PipelineFile)
	if err != nil {
		logger.Error("Failed to load pipeline definition", zap.Error(err))
		return 1
	}

	runner, err := pipeline.NewRunner(cfg, spec, logger)
	if err != nil {
		logger.Error("Failed to initialize pipeline", zap.Error(err))
		return 1
	}
	runner.WithDryRun(*dryRun).WithMaxFailures(*maxFailures)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := runner.Run(ctx, *dataset)

	if summary != nil {
		fmt.Print(runner.GenerateReport())
	}

	if runErr != nil {
		logger.Error("Pipeline run failed", zap.Error(runErr))
		return 1
	}

	logger.Info("Pipeline run succeeded", zap.String("summary", summary.String()))
	return 0
}

// buildLogger constructs the zap logger from the configured level and
// format (json or console)
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
