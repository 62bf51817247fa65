package checker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plagiarism_checks_total",
		Help: "Completed plagiarism checks by terminal status.",
	}, []string{"status"})

	checkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "plagiarism_check_duration_seconds",
		Help:    "Wall-clock duration of a full check.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	candidatesPerCheck = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "plagiarism_check_candidates",
		Help:    "LSH candidates retained per check after pruning.",
		Buckets: prometheus.LinearBuckets(0, 5, 11),
	})

	corpusSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plagiarism_corpus_skipped_total",
		Help: "Corpus entries skipped because their text was unreadable.",
	})
)
