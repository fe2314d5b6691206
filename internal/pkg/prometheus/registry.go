package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MissionOutcomes,
		MissionSteps,
		MissionPassDuration,
		MissionQueueLength,
		InferenceAttempts,
		InferenceCacheSize,
		ChatSessions,
		ChatCompletions,
	)
}

func GetRegistry() *prometheus.Registry {
	return registry
}
