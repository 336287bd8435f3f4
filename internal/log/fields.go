// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldEvent     = "event"

	// Configuration fields
	FieldUnit      = "unit"
	FieldField     = "field"
	FieldPath      = "path"
	FieldReloadID  = "reload_id"
	FieldGPUVendor = "gpu_vendor"

	// HTTP fields
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
)
