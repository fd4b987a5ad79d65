package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-dayrunner/logging"
	"github.com/ethereum-optimism/infra/op-dayrunner/metrics"
	"github.com/ethereum-optimism/infra/op-dayrunner/types"
)

// WorkRunner defines the interface for running the test command over a set of work items
type WorkRunner interface {
	// Run processes items in order and stops at the first failing item.
	// The returned result lists every item, un-attempted ones as skipped.
	Run(ctx context.Context, items []types.WorkItem) (*types.RunResult, error)
}

// runner implements WorkRunner
type runner struct {
	executor   ItemExecutor
	stdout     io.Writer
	stderr     io.Writer
	fileLogger *logging.FileLogger
	log        log.Logger
	runID      string
	tracer     trace.Tracer
}

// Config holds configuration for creating a new runner
type Config struct {
	Executor   ItemExecutor
	Stdout     io.Writer           // Receives banners and the commands' stdout, defaults to os.Stdout
	Stderr     io.Writer           // Receives the commands' stderr, defaults to os.Stderr
	FileLogger *logging.FileLogger // Optional copy of every item's output on disk
	Log        log.Logger
	RunID      string // Generated when empty
}

// NewRunner creates a new runner instance
func NewRunner(cfg Config) (WorkRunner, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}

	return &runner{
		executor:   cfg.Executor,
		stdout:     cfg.Stdout,
		stderr:     cfg.Stderr,
		fileLogger: cfg.FileLogger,
		log:        cfg.Log,
		runID:      cfg.RunID,
		tracer:     otel.Tracer(TracerName),
	}, nil
}

// Run implements the WorkRunner interface
func (r *runner) Run(ctx context.Context, items []types.WorkItem) (*types.RunResult, error) {
	ctx, span := r.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("run_id", r.runID),
		attribute.Int("items", len(items)),
	))
	defer span.End()

	start := time.Now()
	r.log.Debug("Running work items", "run_id", r.runID, "count", len(items))

	result := &types.RunResult{
		RunID:  r.runID,
		Status: types.ItemStatusPass,
		Stats:  types.RunStats{Total: len(items), StartTime: start},
		Items:  make([]*types.ItemResult, 0, len(items)),
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			result.Status = types.ItemStatusFail
			r.skipRemaining(result, items[i:])
			r.finish(result, start, span)
			return result, fmt.Errorf("run interrupted before %s: %w", item.Label, err)
		}

		itemResult, err := r.runItem(ctx, item)
		if err != nil {
			result.Status = types.ItemStatusFail
			r.skipRemaining(result, items[i:])
			r.finish(result, start, span)
			return result, fmt.Errorf("running %s: %w", item.Label, err)
		}
		result.Items = append(result.Items, itemResult)

		if !itemResult.Passed() {
			result.Status = types.ItemStatusFail
			r.log.Debug("Stopping run at first failure",
				"item", item.Label,
				"exitCode", itemResult.ExitCode,
				"remaining", len(items)-i-1)
			r.skipRemaining(result, items[i+1:])
			break
		}
	}

	r.finish(result, start, span)
	r.log.Debug("Run completed", "result", result.String())
	return result, nil
}

// runItem prints the banner for item and runs its command
func (r *runner) runItem(ctx context.Context, item types.WorkItem) (*types.ItemResult, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("item %s", item.Label), trace.WithAttributes(
		attribute.String("path", item.Path),
	))
	defer span.End()

	if _, err := fmt.Fprintf(r.stdout, BannerFormat, item.Label); err != nil {
		return nil, fmt.Errorf("failed to write banner: %w", err)
	}

	stdout, stderr := r.stdout, r.stderr
	if r.fileLogger != nil {
		itemLog, err := r.fileLogger.ItemWriter(item.Label)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := itemLog.Close(); err != nil {
				r.log.Warn("Failed to close item log", "item", item.Label, "err", err)
				metrics.RecordErrorDetails("item_log", err)
			}
		}()
		stdout = io.MultiWriter(stdout, itemLog)
		stderr = io.MultiWriter(stderr, itemLog)
	}

	itemResult, err := r.executor.Execute(ctx, item, stdout, stderr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("status", string(itemResult.Status)),
		attribute.Int("exit_code", itemResult.ExitCode),
	)
	if itemResult.Error != nil {
		span.SetStatus(codes.Error, itemResult.Error.Error())
	}
	metrics.RecordItem(r.runID, item.Label, itemResult.Status, itemResult.ExitCode, itemResult.Duration)
	return itemResult, nil
}

// skipRemaining records items that will not be attempted
func (r *runner) skipRemaining(result *types.RunResult, items []types.WorkItem) {
	for _, item := range items {
		result.Items = append(result.Items, &types.ItemResult{
			Item:   item,
			Status: types.ItemStatusSkip,
		})
		metrics.RecordItem(r.runID, item.Label, types.ItemStatusSkip, 0, 0)
	}
}

func (r *runner) finish(result *types.RunResult, start time.Time, span trace.Span) {
	for _, item := range result.Items {
		switch item.Status {
		case types.ItemStatusPass:
			result.Stats.Passed++
		case types.ItemStatusFail:
			result.Stats.Failed++
		case types.ItemStatusSkip:
			result.Stats.Skipped++
		}
	}
	if result.Stats.Failed > 0 {
		result.Status = types.ItemStatusFail
	}
	result.Duration = time.Since(start)
	result.Stats.EndTime = time.Now()

	span.SetAttributes(attribute.String("status", string(result.Status)))
	if result.Status == types.ItemStatusFail {
		span.SetStatus(codes.Error, "run failed")
	}
	metrics.RecordRun(r.runID, result.Status, result.Duration)
}
