package hivehome

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the platform does with the remote session
type Metrics struct {
	polls       *prometheus.CounterVec
	writes      *prometheus.CounterVec
	discoveries *prometheus.CounterVec
	bound       prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hivebridge_polls_total",
			Help: "Accessory state fetches by result",
		}, []string{"kind", "result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hivebridge_writes_total",
			Help: "Host requested writes by service and result",
		}, []string{"service", "result"}),
		discoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hivebridge_discoveries_total",
			Help: "Discovery attempts by outcome",
		}, []string{"result"}),
		bound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hivebridge_accessories_bound",
			Help: "Accessories with a running synchronizer",
		}),
	}
}

// Collectors returns everything to register with a prometheus registry
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.polls, m.writes, m.discoveries, m.bound}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
