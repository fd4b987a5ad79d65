package flags

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_DAYRUNNER"

// DefaultCommand is the test command run inside every day directory.
const DefaultCommand = "cargo test --verbose"

var (
	BaseDir = &cli.StringFlag{
		Name:    "basedir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BASEDIR"),
		Usage:   "Directory to discover 'Day <N>' directories in. Defaults to the directory containing the op-dayrunner binary",
	}
	Command = &cli.StringFlag{
		Name:    "command",
		Value:   DefaultCommand,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "COMMAND"),
		Usage:   "Test command to run in each day directory, split on whitespace",
		Action: func(_ *cli.Context, v string) error {
			return validateCommand(v)
		},
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMEOUT"),
		Usage:   "Timeout for each day's test command (e.g. '10m'). Set to 0 or omit for no timeout.",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to additionally store each day's test output in. Disabled when empty.",
	}
	Summary = &cli.BoolFlag{
		Name:    "summary",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUMMARY"),
		Usage:   "Print a results table to stderr once the run finishes",
	}
	Report = &cli.StringFlag{
		Name:    "report",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT"),
		Usage:   "Path of a YAML report describing the run. Disabled when empty.",
	}
)

var optionalFlags = []cli.Flag{
	BaseDir,
	Command,
	Timeout,
	LogDir,
	Summary,
	Report,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = optionalFlags
}

// SplitCommand splits a command line into the binary and its arguments
func SplitCommand(command string) (string, []string, error) {
	if err := validateCommand(command); err != nil {
		return "", nil, err
	}
	fields := strings.Fields(command)
	return fields[0], fields[1:], nil
}

func validateCommand(v string) error {
	if len(strings.Fields(v)) == 0 {
		return fmt.Errorf("command must not be empty")
	}
	return nil
}
