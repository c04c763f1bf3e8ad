package llmchain

import "github.com/prometheus/client_golang/prometheus"

// providerCallsTotal records successful provider calls, labeled by
// provider tag. Exposed at /metrics alongside the rest of the domain
// stack's Prometheus surface (SPEC_FULL.md §6.2).
var providerCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nyan_pipeline_provider_calls_total",
		Help: "Successful LLM provider calls, by provider tag.",
	},
	[]string{"provider"},
)

func init() {
	prometheus.MustRegister(providerCallsTotal)
}

func recordProviderSuccess(tag ProviderTag) {
	providerCallsTotal.WithLabelValues(string(tag)).Inc()
}
