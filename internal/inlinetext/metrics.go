package inlinetext

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "inlinetext"

type metrics struct {
	sanitized *prometheus.CounterVec
	commands  *prometheus.CounterVec
	saved     *prometheus.CounterVec
	bootTime  prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		sanitized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sanitize_total",
			Help:      "Sanitized fragments by field",
		}, []string{"field"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "format_commands_total",
			Help:      "Applied format commands by format",
		}, []string{"format"}),
		saved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "values_saved_total",
			Help:      "Saved field values by field and mode",
		}, []string{"field", "mode"}),
		bootTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "boot_time",
			Help:      "Server startup time",
		}),
	}
	m.bootTime.Set(float64(time.Now().UnixMilli()))

	for _, c := range []prometheus.Collector{m.sanitized, m.commands, m.saved, m.bootTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
