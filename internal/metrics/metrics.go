// Package metrics holds the Prometheus instruments wpconfig exposes.  All
// collectors are registered with the global registry, so serving
// promhttp.Handler() is enough to publish them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes used as the "result" label.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

var (
	ConfigLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpconfig_load_total",
			Help: "Configuration load attempts by result.",
		}, []string{"result"})

	ConfigIssuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpconfig_issues_total",
			Help: "Validation issues reported, by code and severity.",
		}, []string{"code", "severity"})

	DefaultedFields = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wpconfig_defaulted_fields",
			Help: "Fields in the current configuration that fell back to a default.",
		})

	ConfigValid = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wpconfig_valid",
			Help: "1 when the most recent load produced a usable configuration.",
		})

	LastReloadTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wpconfig_last_reload_timestamp_seconds",
			Help: "Unix time of the most recent successful load.",
		})
)

func init() {
	prometheus.MustRegister(
		ConfigLoadTotal,
		ConfigIssuesTotal,
		DefaultedFields,
		ConfigValid,
		LastReloadTimestamp,
	)
}

// ObserveIssue counts one validation issue.
func ObserveIssue(code, severity string) {
	ConfigIssuesTotal.WithLabelValues(code, severity).Inc()
}

// ObserveLoad records a load outcome.  defaulted is ignored unless the load
// succeeded.
func ObserveLoad(result string, defaulted int) {
	ConfigLoadTotal.WithLabelValues(result).Inc()
	if result != ResultOK {
		ConfigValid.Set(0)
		return
	}
	ConfigValid.Set(1)
	DefaultedFields.Set(float64(defaulted))
	LastReloadTimestamp.SetToCurrentTime()
}
