// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"sort"
	"strings"

	"github.com/ManuGH/xbench/internal/log"
	"github.com/ManuGH/xbench/internal/system"
)

// envPrefix marks the variables xbench owns.
const envPrefix = "XBENCH_"

// knownRuntimeEnvKeys are XBENCH_* variables read outside the loader.
var knownRuntimeEnvKeys = []string{
	system.EnvGPUVendor,
}

// UnknownEnvKeys returns the XBENCH_* variables set in the environment that
// neither the loader nor the runtime reads, sorted. Call it after Load.
func (l *Loader) UnknownEnvKeys() []string {
	known := make(map[string]struct{}, len(knownRuntimeEnvKeys))
	for _, key := range knownRuntimeEnvKeys {
		known[key] = struct{}{}
	}

	unknown := make([]string, 0)
	for _, pair := range os.Environ() {
		key, _, _ := strings.Cut(pair, "=")
		if !strings.HasPrefix(key, envPrefix) {
			continue
		}
		if _, ok := known[key]; ok {
			continue
		}
		if _, consumed := l.ConsumedEnvKeys[key]; consumed {
			continue
		}
		unknown = append(unknown, key)
	}
	sort.Strings(unknown)
	return unknown
}

// warnUnknownEnv logs every unknown XBENCH_* variable (dead flag or typo).
func (l *Loader) warnUnknownEnv() {
	unknown := l.UnknownEnvKeys()
	if len(unknown) == 0 {
		return
	}
	logger := log.WithComponent("config")
	for _, key := range unknown {
		logger.Warn().
			Str("key", key).
			Msg("unknown XBENCH env key detected (dead flag or typo)")
	}
}
