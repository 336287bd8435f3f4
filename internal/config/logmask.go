// SPDX-License-Identifier: MIT

package config

import "strings"

// MaskedValue replaces secrets in redacted output.
const MaskedValue = "***"

// sensitiveSuffixes mark a key segment as secret when the segment ends with
// one of them. Plural counts such as max_new_tokens do not match.
var sensitiveSuffixes = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"apikey",
	"credential",
	"credentials",
	"authorization",
}

// MaskSecrets returns a copy of o with sensitive values masked, descending
// into nested maps and slices. o itself is not modified.
func MaskSecrets(o Options) Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		if isSensitiveKey(k) && v != nil {
			out[k] = MaskedValue
			continue
		}
		out[k] = maskValue(v)
	}
	return out
}

func maskValue(v any) any {
	switch t := v.(type) {
	case Options:
		return MaskSecrets(t)
	case map[string]any:
		return map[string]any(MaskSecrets(Options(t)))
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = maskValue(t[i])
		}
		return out
	default:
		return v
	}
}

// isSensitiveKey reports whether any underscore, dash or dot separated
// segment of key names a secret. "api_key" and "auth" are matched as whole
// segments.
func isSensitiveKey(key string) bool {
	segments := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, seg := range segments {
		if seg == "auth" {
			return true
		}
		if seg == "key" && i > 0 && segments[i-1] == "api" {
			return true
		}
		for _, suffix := range sensitiveSuffixes {
			if strings.HasSuffix(seg, suffix) {
				return true
			}
		}
	}
	return false
}

// Redacted returns a copy of exp whose option maps have secrets masked,
// suitable for serving or logging. Hub tokens usually live in hub_kwargs.
func Redacted(exp Experiment) Experiment {
	b := &exp.Backend
	b.ModelKwargs = MaskSecrets(b.ModelKwargs)
	b.ProcessorKwargs = MaskSecrets(b.ProcessorKwargs)
	b.HubKwargs = MaskSecrets(b.HubKwargs)
	b.TorchCompileConfig = MaskSecrets(b.TorchCompileConfig)
	b.QuantizationConfig = MaskSecrets(b.QuantizationConfig)
	b.DeepSpeedInferenceConfig = MaskSecrets(b.DeepSpeedInferenceConfig)
	b.PEFTConfig = MaskSecrets(b.PEFTConfig)

	bench := &exp.Benchmark
	bench.InputShapes = MaskSecrets(bench.InputShapes)
	bench.ForwardKwargs = MaskSecrets(bench.ForwardKwargs)
	bench.GenerateKwargs = MaskSecrets(bench.GenerateKwargs)
	bench.CallKwargs = MaskSecrets(bench.CallKwargs)
	return exp
}
