package metrics

import (
	"strconv"
	"time"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BracketsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bracket_generated_total",
		Help: "Brackets seeded for a category.",
	})

	AdvanceOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bracket_advance_total",
		Help: "Phase advance calls by outcome.",
	}, []string{"outcome"})

	MatchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bracket_matches_created_total",
		Help: "Elimination matches created, split into byes and playable pairings.",
	}, []string{"kind"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

func ObserveMatches(matches []bracket.Match) {
	for i := range matches {
		if matches[i].IsBye {
			MatchesCreated.WithLabelValues("bye").Inc()
		} else {
			MatchesCreated.WithLabelValues("pending").Inc()
		}
	}
}

func ObserveRequest(method string, status int, elapsed time.Duration) {
	RequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
