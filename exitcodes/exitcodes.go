// Package exitcodes defines the exit codes produced by op-dayrunner itself.
package exitcodes

// When a day's test command fails, op-dayrunner exits with that command's
// exit code instead, so only the codes below originate from the runner:
//
// * Success (0): every discovered day passed, or no day was discovered
// * GenericFailure (1): a command could not be started, e.g. its directory is unreadable
// * RuntimeErr (2): the runner could not start, e.g. the base directory is unreadable
// * CommandNotExecutable (126): the test command exists but cannot be executed
// * CommandNotFound (127): the test command binary does not exist
// * SignalBase (128): added to the signal number when a command is killed by a signal
const (
	Success              = 0
	GenericFailure       = 1
	RuntimeErr           = 2
	CommandNotExecutable = 126
	CommandNotFound      = 127
	SignalBase           = 128
)
