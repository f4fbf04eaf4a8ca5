// Package metrics exposes Prometheus counters for outbound API traffic,
// token refreshes and job polling. All methods are safe on a nil *Metrics,
// which is what callers get when metrics are not wired.
package metrics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "draped_client"

// Refresh outcomes.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	RefreshReused  = "reused"
)

// ErrorLabel marks a request or poll that failed before any HTTP status.
const ErrorLabel = "error"

type Metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	polls     *prometheus.CounterVec
	terminal  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Outbound API requests by method and HTTP status code (\"error\" for transport failures).",
		}, []string{"method", "code"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_polls_total",
			Help:      "Job status polls by observed status (\"error\" for failed queries).",
		}, []string{"status"}),
		terminal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_terminal_total",
			Help:      "Jobs that reached a terminal status while watched.",
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveRequest(method string, code int) {
	if m == nil {
		return
	}
	label := ErrorLabel
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(method, label).Inc()
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePoll(status string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveTerminal(status string) {
	if m == nil {
		return
	}
	m.terminal.WithLabelValues(status).Inc()
}

// Sample is one counter value flattened for display.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Snapshot gathers every counter in g, sorted by name and labels.
func Snapshot(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			pairs := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
			}
			out = append(out, Sample{
				Name:   mf.GetName(),
				Labels: strings.Join(pairs, ","),
				Value:  m.GetCounter().GetValue(),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}
