package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-dayrunner/types"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const (
	MetricsNamespace = "dayrunner"
)

var (
	validResults         = []types.ItemStatus{types.ItemStatusPass, types.ItemStatusFail, types.ItemStatusSkip}
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

	// Registry holds every op-dayrunner collector; it is what the metrics server exposes.
	Registry = opmetrics.NewRegistry()
	factory  = promauto.With(Registry)

	errorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	itemsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "items_total",
		Help:      "Count of work items by result",
	}, []string{
		"run_id",
		"result",
	})

	itemDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "item_duration_seconds",
		Help:      "Duration of the test command for a work item",
	}, []string{
		"run_id",
		"label",
	})

	itemExitCode = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "item_exit_code",
		Help:      "Exit code of the test command for a work item",
	}, []string{
		"run_id",
		"label",
	})

	runsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of runs by result",
	}, []string{
		"result",
	})

	runDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a complete run",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	log.Debug("metric inc",
		"m", "errors_total",
		"error", error,
	)
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordItem(runID string, label string, result types.ItemStatus, exitCode int, duration time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordItem - invalid result", "result", result)
		return
	}
	log.Debug("metric inc",
		"m", "items_total",
		"run_id", runID,
		"label", label,
		"result", result)
	itemsTotal.WithLabelValues(runID, string(result)).Inc()
	if result == types.ItemStatusSkip {
		return
	}
	itemDuration.WithLabelValues(runID, label).Set(duration.Seconds())
	itemExitCode.WithLabelValues(runID, label).Set(float64(exitCode))
}

func RecordRun(runID string, result types.ItemStatus, duration time.Duration) {
	runsTotal.WithLabelValues(string(result)).Inc()
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result types.ItemStatus) bool {
	return slices.Contains(validResults, result)
}
