// SPDX-License-Identifier: MIT

package config

import (
	"errors"

	"github.com/ManuGH/xbench/internal/validate"
)

var (
	// ErrInvalidConfig is matched by every validation failure of a backend,
	// benchmark or experiment configuration.
	ErrInvalidConfig = validate.ErrInvalid

	// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
	// Use errors.Is(err, ErrUnknownConfigField) instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")
)
