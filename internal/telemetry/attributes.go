// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by xbench spans.
const (
	ExperimentNameKey = "xbench.experiment"
	BackendKey        = "xbench.backend"
	BenchmarkKey      = "xbench.benchmark"
	DeviceKey         = "xbench.device"
	GPUVendorKey      = "xbench.gpu_vendor"
	ReloadIDKey       = "xbench.reload_id"
	ConfigPathKey     = "xbench.config_path"
)

// ExperimentAttributes describes a loaded experiment.
func ExperimentAttributes(name, backend, benchmark, device string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if name != "" {
		attrs = append(attrs, attribute.String(ExperimentNameKey, name))
	}
	if backend != "" {
		attrs = append(attrs, attribute.String(BackendKey, backend))
	}
	if benchmark != "" {
		attrs = append(attrs, attribute.String(BenchmarkKey, benchmark))
	}
	if device != "" {
		attrs = append(attrs, attribute.String(DeviceKey, device))
	}
	return attrs
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
