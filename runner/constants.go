package runner

import "time"

const (
	// Banner format printed to stdout before each item's command runs
	BannerFormat = "===> %s\n"

	// DefaultWaitDelay bounds how long Wait blocks on output pipes after the command exited
	// or was killed, e.g. when a grandchild process still holds them open.
	DefaultWaitDelay = 5 * time.Second

	// TracerName is the OpenTelemetry tracer used for run and item spans
	TracerName = "day runner"
)
