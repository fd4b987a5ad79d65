package dayrunner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-dayrunner/flags"
	"github.com/ethereum/go-ethereum/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

// Config holds the application configuration
type Config struct {
	BaseDir       string        // Directory in which day directories are discovered
	Command       string        // Binary of the per-day test command
	Args          []string      // Arguments of the per-day test command
	Timeout       time.Duration // Timeout for each day's command, 0 means none
	LogDir        string        // Directory to store per-day output in, empty disables it
	Summary       bool          // Print a results table to stderr after the run
	ReportPath    string        // Path of the YAML run report, empty disables it
	MetricsConfig opmetrics.CLIConfig
	Log           log.Logger
}

// executablePath is swapped in tests.
var executablePath = os.Executable

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	baseDir := ctx.String(flags.BaseDir.Name)
	if baseDir == "" {
		var err error
		baseDir, err = defaultBaseDir()
		if err != nil {
			return nil, err
		}
	}
	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for base directory '%s': %w", baseDir, err)
	}

	command, args, err := flags.SplitCommand(ctx.String(flags.Command.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	timeout := ctx.Duration(flags.Timeout.Name)
	if timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", timeout)
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir != "" {
		logDir, err = filepath.Abs(logDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
		}
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if err := metricsCfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	return &Config{
		BaseDir:       absBaseDir,
		Command:       command,
		Args:          args,
		Timeout:       timeout,
		LogDir:        logDir,
		Summary:       ctx.Bool(flags.Summary.Name),
		ReportPath:    ctx.String(flags.Report.Name),
		MetricsConfig: metricsCfg,
		Log:           log,
	}, nil
}

// defaultBaseDir returns the directory containing the running binary, with symlinks resolved.
func defaultBaseDir() (string, error) {
	exe, err := executablePath()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
