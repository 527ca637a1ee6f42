package provision

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/codec"
	"github.com/ZebulonRouseFrantzich/addonprov/internal/testutil"
)

func TestInstallArtifact(t *testing.T) {
	payload := bytes.Repeat([]byte("\x7fELF native addon "), 512)

	for _, c := range codec.All {
		t.Run(c.Name(), func(t *testing.T) {
			dir := t.TempDir()
			dst := filepath.Join(dir, "index.node")

			written, err := installArtifact(c, testutil.Compress(t, c, payload), dst)
			if err != nil {
				t.Fatalf("installArtifact() error = %v", err)
			}
			if written != int64(len(payload)) {
				t.Errorf("written = %d, want %d", written, len(payload))
			}

			got, err := os.ReadFile(dst)
			if err != nil {
				t.Fatalf("read installed file: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Error("installed bytes do not match payload")
			}

			info, err := os.Stat(dst)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if info.Mode().Perm() != 0o644 {
				t.Errorf("mode = %v, want 0644", info.Mode().Perm())
			}
			assertNoTempFiles(t, dir)
		})
	}
}

func TestInstallArtifact_DecodeErrors(t *testing.T) {
	payload := bytes.Repeat([]byte("payload "), 4096)
	valid := testutil.Compress(t, codec.Gzip, payload)

	tests := []struct {
		name       string
		compressed []byte
	}{
		{name: "truncated", compressed: valid[:len(valid)/2]},
		{name: "garbage", compressed: []byte("this is not gzip at all")},
		{name: "empty_input", compressed: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			dst := filepath.Join(dir, "index.node")

			_, err := installArtifact(codec.Gzip, tt.compressed, dst)
			if KindOf(err) != KindDecodeError {
				t.Fatalf("error kind = %v, want decode error (err = %v)", KindOf(err), err)
			}
			assertNotExists(t, dst)
			assertNoTempFiles(t, dir)
		})
	}
}

func TestInstallArtifact_EmptyPayload(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "index.node")

	written, err := installArtifact(codec.Gzip, testutil.Compress(t, codec.Gzip, []byte{}), dst)
	if err != nil {
		t.Fatalf("installArtifact() error = %v", err)
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
	assertNoTempFiles(t, dir)
}

func TestInstallArtifact_DestinationAppeared(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "index.node")
	testutil.WriteFile(t, dst, []byte("existing"))

	_, err := installArtifact(codec.Gzip, testutil.Compress(t, codec.Gzip, []byte("new")), dst)
	if !errors.Is(err, ErrInstalledExists) {
		t.Fatalf("expected ErrInstalledExists, got %v", err)
	}
	if KindOf(err) != KindWriteError {
		t.Errorf("error kind = %v, want write error", KindOf(err))
	}

	got, _ := os.ReadFile(dst)
	if string(got) != "existing" {
		t.Errorf("existing file was modified: %q", got)
	}
	assertNoTempFiles(t, dir)
}

func TestInstallArtifact_MissingDirectory(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "missing", "index.node")

	_, err := installArtifact(codec.Gzip, testutil.Compress(t, codec.Gzip, []byte("x")), dst)
	if KindOf(err) != KindWriteError {
		t.Fatalf("error kind = %v, want write error (err = %v)", KindOf(err), err)
	}
}

func TestTempGlobMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "index.node")

	f, err := os.CreateTemp(dir, tempPattern(dst))
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.Close()

	matches, err := filepath.Glob(tempGlob(dst))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) != 1 || matches[0] != f.Name() {
		t.Errorf("matches = %v, want [%s]", matches, f.Name())
	}
}

func TestSyncDir(t *testing.T) {
	dir := t.TempDir()
	syncDir(dir)
	syncDir(filepath.Join(dir, "missing"))

	// the handle is released, so the directory can be removed
	if err := os.Remove(dir); err != nil {
		t.Errorf("remove synced dir: %v", err)
	}
}
