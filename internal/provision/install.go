package provision

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/codec"
)

// ErrInstalledExists is returned when the destination appeared while the
// artifact was being decoded.
var ErrInstalledExists = errors.New("installed binary already exists")

// tempPattern returns the os.CreateTemp pattern used for a destination.
// Leftovers from interrupted runs match tempGlob and are swept on cleanup.
func tempPattern(dst string) string {
	return "." + filepath.Base(dst) + "-*.tmp"
}

func tempGlob(dst string) string {
	return filepath.Join(filepath.Dir(dst), tempPattern(dst))
}

// readTracker remembers the first non-EOF read error so decode failures
// can be told apart from write failures after io.Copy.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

// installArtifact decodes compressed with c and atomically places the
// result at dst. dst is never observable in a partial state: bytes go to a
// temp file in the same directory which is synced and renamed into place
// only after the whole stream decoded cleanly.
func installArtifact(c codec.Codec, compressed []byte, dst string) (int64, error) {
	dir := filepath.Dir(dst)

	tmp, err := os.CreateTemp(dir, tempPattern(dst))
	if err != nil {
		return 0, newError(KindWriteError, "create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		tmp.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	zr, err := c.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return 0, newError(KindDecodeError, "open %s stream: %w", c.Name(), err)
	}
	defer zr.Close()

	src := &readTracker{r: zr}
	written, err := io.Copy(tmp, src)
	if err != nil {
		if src.err != nil {
			return 0, newError(KindDecodeError, "decompress %s: %w", c.Name(), src.err)
		}
		return 0, newError(KindWriteError, "write %s: %w", tmpPath, err)
	}

	if err := tmp.Sync(); err != nil {
		return 0, newError(KindWriteError, "sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, newError(KindWriteError, "close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return 0, newError(KindWriteError, "chmod temp file: %w", err)
	}

	if _, err := os.Lstat(dst); err == nil {
		return 0, &Error{Kind: KindWriteError, Err: fmt.Errorf("%w: %s", ErrInstalledExists, dst)}
	} else if !os.IsNotExist(err) {
		return 0, newError(KindWriteError, "stat destination: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, newError(KindWriteError, "rename temp file: %w", err)
	}
	renamed = true

	syncDir(dir)
	return written, nil
}

// syncDir flushes a directory entry after a rename. Not all platforms allow
// syncing directories, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
