// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/ManuGH/xbench/internal/config"
	"github.com/ManuGH/xbench/internal/log"
	"github.com/ManuGH/xbench/internal/system"
)

type handlers struct {
	source ExperimentSource
	probe  system.Probe
}

type healthResponse struct {
	Status     string `json:"status"`
	Experiment string `json:"experiment"`
	GPUVendor  string `json:"gpu_vendor"`
	ROCm       bool   `json:"rocm"`
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Experiment: h.source.Get().Name,
		GPUVendor:  string(h.probe.Vendor()),
		ROCm:       h.probe.IsROCm(),
	})
}

// config serves the effective experiment with secrets masked, JSON unless
// ?format=yaml.
func (h *handlers) config(w http.ResponseWriter, r *http.Request) {
	format := config.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := config.ParseFormat(q)
		if err != nil {
			writeError(w, err)
			return
		}
		format = f
	}

	data, err := config.Marshal(config.Redacted(h.source.Get()), format)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.encode_failed").
			Msg("encode effective experiment")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encode experiment"})
		return
	}

	contentType := "application/json"
	if format == config.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
