// Package testutil provides fixtures for exercising addonprov against
// throwaway package roots.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/codec"
	"github.com/ZebulonRouseFrantzich/addonprov/internal/platform"
)

// EnvPrefix is the prefix of every environment variable addonprov reads.
const EnvPrefix = "ADDONPROV_"

// SetupTestEnv blanks any ADDONPROV_* variables inherited from the
// developer's shell and returns a fresh package root containing a minimal
// package.json. Cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix) {
			t.Setenv(key, "")
		}
	}

	return NewPackageRoot(t, "@min-html/core", "0.8.5")
}

// NewPackageRoot creates a temp package root with a package.json.
func NewPackageRoot(t *testing.T, name, version string) string {
	t.Helper()

	root := t.TempDir()
	manifest := `{
  "name": "` + name + `",
  "version": "` + version + `",
  "main": "index.js"
}
`
	WriteFile(t, filepath.Join(root, "package.json"), []byte(manifest))
	return root
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Compress encodes payload with c.
func Compress(t *testing.T, c codec.Codec, payload []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := c.NewWriter(&buf)
	if err != nil {
		t.Fatalf("create %s writer: %v", c.Name(), err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("compress with %s: %v", c.Name(), err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s writer: %v", c.Name(), err)
	}
	return buf.Bytes()
}

// WriteBundle places a compressed artifact at binaries/<name> under root
// and returns its path.
func WriteBundle(t *testing.T, root, name string, compressed []byte) string {
	t.Helper()

	path := filepath.Join(root, "binaries", name)
	WriteFile(t, path, compressed)
	return path
}

// StaticDetector is a platform.Detector returning fixed values.
type StaticDetector struct {
	Info *platform.Info
	Err  error
}

// Detect returns the configured info and error.
func (d StaticDetector) Detect(ctx context.Context) (*platform.Info, error) {
	return d.Info, d.Err
}

// LinuxX64 is a detector for a glibc x64 Linux host.
func LinuxX64() StaticDetector {
	return StaticDetector{Info: &platform.Info{
		OS:       "linux",
		Arch:     "x64",
		GOOS:     "linux",
		GOARCH:   "amd64",
		Platform: "ubuntu",
		Family:   platform.FamilyDebian,
		Version:  "24.04",
	}}
}
