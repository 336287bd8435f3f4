// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for xbench.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// ConfigValidationsTotal counts normalization runs by configuration unit and outcome.
	ConfigValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xbench_config_validations_total",
		Help: "Total number of configuration normalizations, by unit and result.",
	}, []string{"unit", "result"})

	// ConfigDeprecationsTotal counts uses of deprecated configuration fields.
	ConfigDeprecationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xbench_config_deprecations_total",
		Help: "Total number of deprecated configuration fields encountered, by field.",
	}, []string{"field"})

	// ConfigReloadsTotal counts hot reloads of the experiment file.
	ConfigReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xbench_config_reloads_total",
		Help: "Total number of experiment file reloads, by result.",
	}, []string{"result"})
)

// RecordValidation increments the validation counter for unit.
func RecordValidation(unit string, err error) {
	result := ResultValid
	if err != nil {
		result = ResultInvalid
	}
	ConfigValidationsTotal.WithLabelValues(unit, result).Inc()
}

// RecordDeprecation increments the deprecation counter for field.
func RecordDeprecation(field string) {
	ConfigDeprecationsTotal.WithLabelValues(field).Inc()
}

// RecordReload increments the reload counter.
func RecordReload(err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	ConfigReloadsTotal.WithLabelValues(result).Inc()
}
