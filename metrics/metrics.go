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

	"github.com/ethereum-optimism/infra/ui-acceptor/types"
)

const (
	MetricsNamespace = "ui_acceptor"
)

var (
	Debug                bool = true
	validResults              = []types.TestStatus{types.TestStatusPass, types.TestStatusFail}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "verdicts_total",
		Help:      "Count of case verdicts",
	}, []string{
		"target",
		"suite",
		"category",
		"result",
		"error_kind",
	})

	settleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "settle_latency_seconds",
		Help:      "Time from the end of typing until output first appeared",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
	}, []string{
		"target",
		"suite",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of the latest run",
	}, []string{
		"target",
		"run_id",
		"result",
	})

	runCasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_cases_total",
		Help:      "Total number of executed cases",
	}, []string{
		"target",
	})

	runCasesPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_cases_passed",
		Help:      "Number of passed cases",
	}, []string{
		"target",
	})

	runCasesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_cases_failed",
		Help:      "Number of failed cases",
	}, []string{
		"target",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of the latest run",
	}, []string{
		"target",
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
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
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

// RecordVerdict counts a single case verdict and observes its settle latency.
func RecordVerdict(target string, v *types.Verdict) {
	result := v.Status()
	if !isValidResult(result) {
		log.Error("RecordVerdict - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "verdicts_total",
			"target", target,
			"case", v.CaseID,
			"suite", v.Suite,
			"result", result,
			"error_kind", v.Kind)
	}
	verdictsTotal.WithLabelValues(target, string(v.Suite), string(v.Category), string(result), string(v.Kind)).Inc()
	if v.Latency > 0 {
		settleLatency.WithLabelValues(target, string(v.Suite)).Observe(v.Latency.Seconds())
	}
}

func RecordRun(
	target string,
	runID string,
	result types.TestStatus,
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	runResults.WithLabelValues(target, runID, string(result)).Set(1)
	runCasesTotal.WithLabelValues(target).Add(float64(total))
	runCasesPassed.WithLabelValues(target).Add(float64(passed))
	runCasesFailed.WithLabelValues(target).Add(float64(failed))
	runDuration.WithLabelValues(target).Set(duration.Seconds())
}

func isValidResult(result types.TestStatus) bool {
	return slices.Contains(validResults, result)
}
