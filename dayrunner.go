package dayrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-dayrunner/discover"
	"github.com/ethereum-optimism/infra/op-dayrunner/logging"
	"github.com/ethereum-optimism/infra/op-dayrunner/metrics"
	"github.com/ethereum-optimism/infra/op-dayrunner/reporting"
	"github.com/ethereum-optimism/infra/op-dayrunner/runner"
	"github.com/ethereum-optimism/infra/op-dayrunner/types"
	"github.com/ethereum-optimism/optimism/op-service/httputil"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

// DayRunner discovers the day directories of a base directory and runs the test command in each of them.
type DayRunner struct {
	config  *Config
	version string
	stdout  io.Writer
	stderr  io.Writer

	metricsServer *httputil.HTTPServer
}

// Option customises a DayRunner
type Option func(*DayRunner)

// WithOutput replaces the process stdout and stderr the commands inherit
func WithOutput(stdout, stderr io.Writer) Option {
	return func(d *DayRunner) {
		d.stdout = stdout
		d.stderr = stderr
	}
}

func New(config *Config, version string, opts ...Option) (*DayRunner, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Log == nil {
		return nil, errors.New("config logger is required")
	}

	config.Log.Debug("Creating day runner with config",
		"baseDir", config.BaseDir,
		"command", config.Command,
		"args", config.Args,
		"timeout", config.Timeout,
		"logDir", config.LogDir)

	d := &DayRunner{
		config:  config,
		version: version,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run performs a single run. It returns a RuntimeError when the run could not be
// performed and an ItemFailureError when a day's test command failed.
func (d *DayRunner) Run(ctx context.Context) (*types.RunResult, error) {
	log := d.config.Log
	log.Debug("Starting run", "version", d.version)

	if err := d.startMetrics(); err != nil {
		return nil, NewRuntimeError(err)
	}
	defer d.stopMetrics(ctx)

	items, err := discover.Discover(d.config.BaseDir)
	if err != nil {
		metrics.RecordErrorDetails("discover", err)
		return nil, NewRuntimeError(err)
	}
	log.Debug("Discovered days", "count", len(items), "baseDir", d.config.BaseDir)

	runID := uuid.New().String()

	var fileLogger *logging.FileLogger
	if d.config.LogDir != "" {
		fileLogger, err = logging.NewFileLogger(d.config.LogDir, runID)
		if err != nil {
			return nil, NewRuntimeError(fmt.Errorf("failed to create file logger: %w", err))
		}
		defer func() {
			if err := fileLogger.Close(); err != nil {
				log.Warn("Failed to close file logger", "err", err)
			}
		}()
		log.Debug("Storing day output", "dir", fileLogger.LogDir())
	}

	executor, err := runner.NewCommandExecutor(d.config.Command, d.config.Args, d.config.Timeout, nil, log)
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to create executor: %w", err))
	}

	workRunner, err := runner.NewRunner(runner.Config{
		Executor:   executor,
		Stdout:     d.stdout,
		Stderr:     d.stderr,
		FileLogger: fileLogger,
		Log:        log,
		RunID:      runID,
	})
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to create runner: %w", err))
	}

	result, runErr := workRunner.Run(ctx, items)
	if result != nil {
		d.report(result)
	}
	if runErr != nil {
		return result, NewRuntimeError(runErr)
	}

	if failed := result.FirstFailure(); failed != nil {
		return result, NewItemFailureError(failed.Item.Label, failed.ExitCode)
	}
	return result, nil
}

// report emits the optional summary table and YAML report. Failures here never change the run outcome.
func (d *DayRunner) report(result *types.RunResult) {
	if d.config.Summary {
		reporting.WriteSummaryTable(d.stderr, result)
	}
	if d.config.ReportPath != "" {
		if err := reporting.WriteReport(d.config.ReportPath, result); err != nil {
			d.config.Log.Warn("Failed to write run report", "path", d.config.ReportPath, "err", err)
			metrics.RecordErrorDetails("report", err)
		}
	}
}

func (d *DayRunner) startMetrics() error {
	cfg := d.config.MetricsConfig
	if !cfg.Enabled {
		return nil
	}
	d.config.Log.Info("Starting metrics server", "addr", cfg.ListenAddr, "port", cfg.ListenPort)
	server, err := opmetrics.StartServer(metrics.Registry, cfg.ListenAddr, cfg.ListenPort)
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	d.config.Log.Info("Started metrics server", "endpoint", server.Addr())
	d.metricsServer = server
	return nil
}

func (d *DayRunner) stopMetrics(ctx context.Context) {
	if d.metricsServer == nil {
		return
	}
	if err := d.metricsServer.Stop(context.WithoutCancel(ctx)); err != nil {
		d.config.Log.Warn("Failed to stop metrics server", "err", err)
	}
	d.metricsServer = nil
}
