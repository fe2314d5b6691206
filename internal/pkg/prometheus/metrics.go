package prometheus

import "github.com/prometheus/client_golang/prometheus"

const namespace = "eternal"

var (
	MissionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mission",
		Name:      "outcomes_total",
		Help:      "Missions that left the queue, by terminal state.",
	}, []string{"state"})

	MissionSteps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mission",
		Name:      "steps_total",
		Help:      "State machine steps executed by the worker loop.",
	})

	MissionPassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "mission",
		Name:      "pass_duration_seconds",
		Help:      "Wall time of one queue drain pass.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	MissionQueueLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "mission",
		Name:      "queue_length",
		Help:      "Missions waiting for the next pass.",
	})

	InferenceAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inference",
		Name:      "attempts_total",
		Help:      "Completion attempts against model backends, by result.",
	}, []string{"backend", "result"})

	InferenceCacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "inference",
		Name:      "cache_entries",
		Help:      "Receipts currently held in the result cache.",
	})

	ChatSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "sessions",
		Help:      "Live interactive sessions.",
	})

	ChatCompletions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "completions_total",
		Help:      "Interactive completions, by result.",
	}, []string{"result"})
)
