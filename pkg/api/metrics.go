package api

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Request counters for the playground surface, exposed both at /metrics
// (Prometheus text exposition, via promhttp.Handler in server.go) and as
// JSON at /api/playground/usage per spec.md §6.
var (
	playgroundRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyan_pipeline_playground_requests_total",
		Help: "Total POST /api/playground requests.",
	})
	playgroundStreamRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyan_pipeline_playground_stream_requests_total",
		Help: "Total GET /api/playground/stream requests.",
	})
	playgroundNukeRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nyan_pipeline_playground_nuke_requests_total",
		Help: "Total POST /api/playground/nuke requests.",
	})
)

func init() {
	prometheus.MustRegister(playgroundRequestsTotal, playgroundStreamRequestsTotal, playgroundNukeRequestsTotal)
}

// gatherCounterValue returns the current value of a label-less counter.
// prometheus.Counter exposes no public getter, so reading it back requires
// collecting its metric descriptor through the standard Collect channel.
func gatherCounterValue(c prometheus.Collector) float64 {
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	close(ch)
	var m dto.Metric
	for metric := range ch {
		if err := metric.Write(&m); err == nil && m.Counter != nil {
			return m.Counter.GetValue()
		}
	}
	return 0
}

// gatherProviderCallTotals reads pkg/llmchain's provider-call counter
// family straight off prometheus.DefaultGatherer, since that collector
// lives in another package and isn't directly addressable here.
func gatherProviderCallTotals() map[string]float64 {
	out := make(map[string]float64)
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		if mf.GetName() != "nyan_pipeline_provider_calls_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			provider := "unknown"
			for _, lbl := range m.GetLabel() {
				if lbl.GetName() == "provider" {
					provider = lbl.GetValue()
				}
			}
			out[provider] = m.GetCounter().GetValue()
		}
	}
	return out
}
