// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../../internal/config/testdata/"

// syncBuffer is a bytes.Buffer safe for the concurrent writes of watch mode.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut syncBuffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantExit   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "valid minimal",
			args:       []string{"validate", "-f", testdata + "valid-minimal.yaml", "--gpu-vendor", "none"},
			wantExit:   exitOK,
			wantStdout: "is valid",
		},
		{
			name:       "valid full on nvidia with env",
			args:       []string{"validate", "-f", testdata + "valid-full.yaml", "--gpu-vendor", "nvidia", "--show-env"},
			wantExit:   exitOK,
			wantStdout: "CUDA_VISIBLE_DEVICES=0,1",
		},
		{
			name:       "bnb refused on rocm",
			args:       []string{"validate", "-f", testdata + "valid-full.yaml", "--gpu-vendor", "amd"},
			wantExit:   exitInvalid,
			wantStderr: "BitsAndBytes is not supported on ROCm GPUs",
		},
		{
			name:       "unknown key",
			args:       []string{"validate", "-f", testdata + "invalid-unknown-key.yaml", "--gpu-vendor", "none"},
			wantExit:   exitInvalid,
			wantStderr: "Configuration error",
		},
		{
			name:       "invalid values",
			args:       []string{"validate", "--file", testdata + "invalid-values.yaml", "--gpu-vendor", "none"},
			wantExit:   exitInvalid,
			wantStderr: "device_map",
		},
		{
			name:       "missing file flag",
			args:       []string{"validate"},
			wantExit:   exitUsage,
			wantStderr: "--file is required",
		},
		{
			name:     "unknown flag",
			args:     []string{"validate", "--nope"},
			wantExit: exitUsage,
		},
		{
			name:       "bad gpu vendor",
			args:       []string{"validate", "-f", testdata + "valid-minimal.yaml", "--gpu-vendor", "tpu"},
			wantExit:   exitUsage,
			wantStderr: "invalid --gpu-vendor",
		},
		{
			name:     "unknown command",
			args:     []string{"benchmark"},
			wantExit: exitUsage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, tt.wantExit, code, "stdout=%s stderr=%s", stdout, stderr)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr, tt.wantStderr)
			}
		})
	}
}

func TestDumpCommand(t *testing.T) {
	code, stdout, stderr := runCLI(t, "dump", "-f", testdata+"valid-minimal.yaml", "--gpu-vendor", "none", "--format", "json")
	require.Equal(t, exitOK, code, stderr)

	var exp map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &exp))
	assert.Equal(t, "gpt2-inference", exp["name"])
	benchmark := exp["benchmark"].(map[string]any)
	assert.Equal(t, float64(2), benchmark["input_shapes"].(map[string]any)["batch_size"])
}

func TestDumpCommand_ToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "effective.yaml")
	code, stdout, stderr := runCLI(t, "dump", "-f", testdata+"valid-minimal.yaml", "--gpu-vendor", "none", "--out", out)
	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)

	// the dump is itself a valid experiment
	code, _, stderr = runCLI(t, "validate", "-f", out, "--gpu-vendor", "none")
	assert.Equal(t, exitOK, code, stderr)
}

func TestDumpCommand_BadFormat(t *testing.T) {
	code, _, stderr := runCLI(t, "dump", "-f", testdata+"valid-minimal.yaml", "--format", "toml")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "unsupported format")
}

func writeSysfsDevice(t *testing.T, root, addr, vendor, device, class string) {
	t.Helper()
	dir := filepath.Join(root, addr)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, v := range map[string]string{"vendor": vendor, "device": device, "class": class} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(v+"\n"), 0o600))
	}
}

func TestSystemCommand(t *testing.T) {
	root := t.TempDir()
	writeSysfsDevice(t, root, "0000:01:00.0", "0x10de", "0x2684", "0x030000")
	writeSysfsDevice(t, root, "0000:00:1f.3", "0x8086", "0x51c8", "0x040300")
	t.Setenv("CUDA_VISIBLE_DEVICES", "1")

	code, stdout, stderr := runCLI(t, "system", "--sysfs-root", root, "--gpu-vendor", "nvidia")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "gpu vendor: nvidia")
	assert.Contains(t, stdout, "CUDA_VISIBLE_DEVICES=1")
	assert.Contains(t, stdout, "0000:01:00.0")
	assert.NotContains(t, stdout, "0000:00:1f.3", "audio devices are not GPUs")
}

func TestSystemCommand_NoPCI(t *testing.T) {
	code, stdout, _ := runCLI(t, "system", "--sysfs-root", filepath.Join(t.TempDir(), "missing"), "--gpu-vendor", "none")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "pci scan unavailable")
}

func TestVersionAndDeprecations(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "xbench "))

	code, stdout, _ = runCLI(t, "deprecations")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "new_tokens")
}

var servingLine = regexp.MustCompile(`serving .* on (http://\S+)`)

func TestWatchCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: first\nbackend:\n  model: gpt2\n  device: cpu\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"watch", "-f", path, "--listen", "127.0.0.1:0", "--debounce", "20ms", "--gpu-vendor", "none"}, &stdout, &stderr)
	}()

	var base string
	require.Eventually(t, func() bool {
		m := servingLine.FindStringSubmatch(stdout.String())
		if m == nil {
			return false
		}
		base = m[1]
		return true
	}, 5*time.Second, 10*time.Millisecond, "stderr: %s", stderr.String())

	// experimentName runs inside Eventually, so it reports failures as "".
	experimentName := func() string {
		req, err := http.NewRequest(http.MethodGet, base+"/config", nil)
		if err != nil {
			return ""
		}
		req.Close = true
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return ""
		}
		defer resp.Body.Close()
		var exp map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&exp); err != nil {
			return ""
		}
		name, _ := exp["name"].(string)
		return name
	}
	assert.Equal(t, "first", experimentName())

	require.NoError(t, os.WriteFile(path, []byte("name: second\nbackend:\n  model: gpt2\n  device: cpu\n"), 0o600))
	assert.Eventually(t, func() bool { return experimentName() == "second" }, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, exitOK, code, stderr.String())
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchCommand_InvalidInitial(t *testing.T) {
	code, _, stderr := runCLI(t, "watch", "-f", testdata+"invalid-values.yaml", "--listen", "127.0.0.1:0", "--gpu-vendor", "none")
	assert.Equal(t, exitInvalid, code)
	assert.Contains(t, stderr, "Configuration error")
}
