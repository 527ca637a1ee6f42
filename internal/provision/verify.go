package provision

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// ErrChecksumMissing is returned when a checksum file exists but has no
// entry for the artifact.
var ErrChecksumMissing = errors.New("no checksum entry for artifact")

// Verifier checks artifact integrity before it is decoded.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier loads the keyring at keyringPath. An empty path yields a
// Verifier that performs checksum verification only.
func NewVerifier(keyringPath string) (*Verifier, error) {
	if keyringPath == "" {
		return &Verifier{}, nil
	}

	keyring, err := loadKeyring(keyringPath)
	if err != nil {
		return nil, err
	}
	return &Verifier{keyring: keyring}, nil
}

// RequiresSignature reports whether artifacts must carry a detached signature.
func (v *Verifier) RequiresSignature() bool {
	return len(v.keyring) > 0
}

// VerifySignature checks a detached signature (armored or binary) over data.
func (v *Verifier) VerifySignature(data, signature []byte) error {
	if !v.RequiresSignature() {
		return nil
	}
	if len(signature) == 0 {
		return fmt.Errorf("signature is empty")
	}

	_, err := openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	if err != nil {
		// Try non-armored signature
		_, err = openpgp.CheckDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

// VerifyChecksum compares the SHA256 of data with the entry for name in a
// sha256sum-format file. A missing checksum file is not an error; a file
// without an entry for name is.
func (v *Verifier) VerifyChecksum(data []byte, checksumPath, name string) (bool, error) {
	expected, err := findChecksum(checksumPath, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	sum := sha256.Sum256(data)
	actual := hex.EncodeToString(sum[:])
	if !strings.EqualFold(actual, expected) {
		return false, fmt.Errorf("checksum mismatch for %s: actual %s, expected %s", name, actual, expected)
	}
	return true, nil
}

// loadKeyring reads an armored or binary OpenPGP public keyring.
func loadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		// Try reading as non-armored keyring
		if _, err := keyringFile.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind keyring: %w", err)
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring %s is empty", path)
	}
	return keyring, nil
}

// findChecksum finds the checksum for a file name in a checksum file.
// Format: "abc123def456  linux__x64.node.gz" (a leading '*' marks binary mode)
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || filepath.Base(name) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("%w: %s", ErrChecksumMissing, filename)
}
