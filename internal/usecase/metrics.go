package usecase

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rigsync/backend/internal/domain"
)

type importMetrics struct {
	rowsStaged       *prometheus.CounterVec
	candidatesFound  *prometheus.CounterVec
	confirmOutcomes  *prometheus.CounterVec
	duplicatesFound  prometheus.Counter
	analyzeDurations prometheus.Histogram
}

var metricsSingleton = sync.OnceValue(func() *importMetrics {
	return &importMetrics{
		rowsStaged: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rigsync",
			Subsystem: "import",
			Name:      "rows_staged_total",
			Help:      "Rows staged from uploaded files by resulting status.",
		}, []string{"status"}),
		candidatesFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rigsync",
			Subsystem: "import",
			Name:      "match_candidates_total",
			Help:      "Match candidates persisted during analysis by match type.",
		}, []string{"match_type"}),
		confirmOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rigsync",
			Subsystem: "import",
			Name:      "confirm_rows_total",
			Help:      "Confirm outcomes per row by action and result.",
		}, []string{"action", "result"}),
		duplicatesFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "rigsync",
			Subsystem: "import",
			Name:      "duplicate_conflicts_total",
			Help:      "Create actions refused because a near-duplicate product exists.",
		}),
		analyzeDurations: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rigsync",
			Subsystem: "import",
			Name:      "analyze_duration_seconds",
			Help:      "Time spent analyzing one session.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
})

func getMetrics() *importMetrics {
	return metricsSingleton()
}

func recordRowStaged(status domain.RowStatus) {
	getMetrics().rowsStaged.WithLabelValues(string(status)).Inc()
}

func recordCandidates(candidates []domain.MatchCandidate) {
	m := getMetrics()
	for _, c := range candidates {
		m.candidatesFound.WithLabelValues(string(c.MatchType)).Inc()
	}
}

func recordConfirmOutcome(action domain.RowAction, result string) {
	getMetrics().confirmOutcomes.WithLabelValues(string(action), result).Inc()
}

func recordDuplicate() {
	getMetrics().duplicatesFound.Inc()
}

func recordAnalyzeDuration(start time.Time) {
	getMetrics().analyzeDurations.Observe(time.Since(start).Seconds())
}
