package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	dayrunner "github.com/ethereum-optimism/infra/op-dayrunner"
	"github.com/ethereum-optimism/infra/op-dayrunner/exitcodes"
	"github.com/ethereum-optimism/infra/op-dayrunner/flags"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

// otlpEndpointEnvVar enables trace export when set
const otlpEndpointEnvVar = "OTEL_EXPORTER_OTLP_ENDPOINT"

func main() {
	os.Exit(runMain(os.Args))
}

// runMain returns the process exit code so deferred telemetry shutdown runs before exiting.
func runMain(args []string) int {
	app := newApp()

	ctx := context.Background()
	if os.Getenv(otlpEndpointEnvVar) != "" {
		otelCtx, shutdown, err := telemetry.SetupOpenTelemetry(
			ctx,
			otelconfig.WithServiceName(app.Name),
			otelconfig.WithServiceVersion(app.Version),
		)
		if err != nil {
			log.Crit("Failed to setup open telemetry", "message", err)
		}
		defer shutdown()
		ctx = otelCtx
	}

	// SIGINT/SIGTERM cancel the run, which kills the running command.
	ctx = ctxinterrupt.WithCancelOnInterrupt(ctxinterrupt.WithSignalWaiterMain(ctx))
	return exitCode(app.ErrWriter, app.RunContext(ctx, args))
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-dayrunner"
	app.Usage = "Run the tests of every 'Day <N>' directory"
	app.Description = "op-dayrunner runs a test command in each 'Day <N>' directory next to it, in order, and stops at the first failure"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = run
	return app
}

// exitCode maps the result of the app to a process exit code. Nothing is printed for
// day failures since the failing command already reported them.
func exitCode(errWriter io.Writer, err error) int {
	if err == nil {
		return exitcodes.Success
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(errWriter, msg)
		}
		return exitErr.ExitCode()
	}
	if !dayrunner.IsItemFailureError(err) {
		fmt.Fprintln(errWriter, err)
	}
	return dayrunner.ExitCode(err)
}

func run(ctx *cli.Context) error {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(ctx.App.ErrWriter, logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	if ctx.NArg() > 0 {
		return dayrunner.NewRuntimeError(fmt.Errorf("unexpected arguments: %v", ctx.Args().Slice()))
	}

	cfg, err := dayrunner.NewConfig(ctx, log)
	if err != nil {
		return dayrunner.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	runner, err := dayrunner.New(cfg, Version, dayrunner.WithOutput(ctx.App.Writer, ctx.App.ErrWriter))
	if err != nil {
		return dayrunner.NewRuntimeError(fmt.Errorf("failed to create day runner: %w", err))
	}

	_, err = runner.Run(ctx.Context)
	return err
}
