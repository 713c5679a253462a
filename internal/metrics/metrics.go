package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hue"

var (
	CharacteristicUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "characteristic_updates_total",
			Help:      "Characteristic values published, by entity kind.",
		},
		[]string{"kind"},
	)
	ButtonEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "button_events_total",
			Help:      "Button presses published, by action.",
		},
		[]string{"action"},
	)
	BridgeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_requests_total",
			Help:      "Requests to the bridge, by operation and result.",
		},
		[]string{"op", "result"},
	)
	HistoryCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_commits_total",
			Help:      "History entries committed, by category.",
		},
		[]string{"category"},
	)
	Accessories = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accessories",
			Help:      "Accessories currently tracked.",
		},
	)
)

func init() {
	prometheus.MustRegister(CharacteristicUpdates, ButtonEvents, BridgeRequests, HistoryCommits, Accessories)
}

// Result is the result label of an operation.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
