// SPDX-License-Identifier: MIT

package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ManuGH/xbench/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordValidation(t *testing.T) {
	valid := metrics.ConfigValidationsTotal.WithLabelValues("pytorch", metrics.ResultValid)
	invalid := metrics.ConfigValidationsTotal.WithLabelValues("pytorch", metrics.ResultInvalid)
	beforeValid := testutil.ToFloat64(valid)
	beforeInvalid := testutil.ToFloat64(invalid)

	metrics.RecordValidation("pytorch", nil)
	metrics.RecordValidation("pytorch", errors.New("bad"))
	metrics.RecordValidation("pytorch", errors.New("bad"))

	assert.Equal(t, beforeValid+1, testutil.ToFloat64(valid))
	assert.Equal(t, beforeInvalid+2, testutil.ToFloat64(invalid))
}

func TestRecordDeprecationAndReload(t *testing.T) {
	dep := metrics.ConfigDeprecationsTotal.WithLabelValues("new_tokens")
	before := testutil.ToFloat64(dep)
	metrics.RecordDeprecation("new_tokens")
	assert.Equal(t, before+1, testutil.ToFloat64(dep))

	fail := metrics.ConfigReloadsTotal.WithLabelValues(metrics.ResultFailure)
	beforeFail := testutil.ToFloat64(fail)
	metrics.RecordReload(errors.New("boom"))
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(fail))
}

func TestMetricsExposed(t *testing.T) {
	metrics.RecordReload(nil)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	promhttp.Handler().ServeHTTP(recorder, req)

	body := recorder.Body.String()
	assert.True(t, strings.Contains(body, "xbench_config_reloads_total"), "reload counter missing from exposition")
}
