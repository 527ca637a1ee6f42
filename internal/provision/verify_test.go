package provision

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"       //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/addonprov/internal/testutil"
)

// newSigningKey generates a throwaway key pair and writes its public half
// to an armored keyring file under dir.
func newSigningKey(t *testing.T, dir string) (*openpgp.Entity, string) {
	t.Helper()

	entity, err := openpgp.NewEntity("Release Signing", "test", "release@example.com", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("serialize public key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close armor writer: %v", err)
	}

	path := filepath.Join(dir, "release.asc")
	testutil.WriteFile(t, path, buf.Bytes())
	return entity, path
}

func armoredSignature(t *testing.T, signer *openpgp.Entity, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&buf, signer, bytes.NewReader(data), nil); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return buf.Bytes()
}

func binarySignature(t *testing.T, signer *openpgp.Entity, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := openpgp.DetachSign(&buf, signer, bytes.NewReader(data), nil); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("compressed artifact")
	name := "linux__x64.node.gz"

	tests := []struct {
		name        string
		contents    string // empty means no checksum file
		wantChecked bool
		wantErr     bool
		wantMissing bool
	}{
		{
			name:     "no_checksum_file",
			contents: "",
		},
		{
			name:        "matching_entry",
			contents:    fmt.Sprintf("%s  darwin__arm64.node.gz\n%s  %s\n", sha256Hex([]byte("other")), sha256Hex(data), name),
			wantChecked: true,
		},
		{
			name:        "binary_mode_marker",
			contents:    fmt.Sprintf("%s *%s\n", sha256Hex(data), name),
			wantChecked: true,
		},
		{
			name:        "uppercase_digest",
			contents:    fmt.Sprintf("%s  %s\n", strings.ToUpper(sha256Hex(data)), name),
			wantChecked: true,
		},
		{
			name:     "mismatch",
			contents: fmt.Sprintf("%s  %s\n", sha256Hex([]byte("tampered")), name),
			wantErr:  true,
		},
		{
			name:        "missing_entry",
			contents:    fmt.Sprintf("%s  darwin__arm64.node.gz\n", sha256Hex(data)),
			wantErr:     true,
			wantMissing: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "SHA256SUMS")
			if tt.contents != "" {
				testutil.WriteFile(t, path, []byte(tt.contents))
			}

			v, err := NewVerifier("")
			if err != nil {
				t.Fatalf("NewVerifier() error = %v", err)
			}

			checked, err := v.VerifyChecksum(data, path, name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VerifyChecksum() error = %v, wantErr %v", err, tt.wantErr)
			}
			if checked != tt.wantChecked {
				t.Errorf("checked = %v, want %v", checked, tt.wantChecked)
			}
			if errors.Is(err, ErrChecksumMissing) != tt.wantMissing {
				t.Errorf("ErrChecksumMissing = %v, want %v", errors.Is(err, ErrChecksumMissing), tt.wantMissing)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	dir := t.TempDir()
	signer, keyringPath := newSigningKey(t, dir)
	data := []byte("compressed artifact")

	v, err := NewVerifier(keyringPath)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	if !v.RequiresSignature() {
		t.Fatal("verifier with keyring should require signatures")
	}

	t.Run("armored", func(t *testing.T) {
		if err := v.VerifySignature(data, armoredSignature(t, signer, data)); err != nil {
			t.Errorf("VerifySignature() error = %v", err)
		}
	})

	t.Run("binary", func(t *testing.T) {
		if err := v.VerifySignature(data, binarySignature(t, signer, data)); err != nil {
			t.Errorf("VerifySignature() error = %v", err)
		}
	})

	t.Run("tampered_data", func(t *testing.T) {
		sig := armoredSignature(t, signer, data)
		if err := v.VerifySignature([]byte("tampered"), sig); err == nil {
			t.Error("expected verification failure for tampered data")
		}
	})

	t.Run("unknown_signer", func(t *testing.T) {
		other, _ := newSigningKey(t, t.TempDir())
		if err := v.VerifySignature(data, armoredSignature(t, other, data)); err == nil {
			t.Error("expected verification failure for unknown signer")
		}
	})

	t.Run("empty_signature", func(t *testing.T) {
		if err := v.VerifySignature(data, nil); err == nil {
			t.Error("expected error for empty signature")
		}
	})
}

func TestNewVerifier_BinaryKeyring(t *testing.T) {
	entity, err := openpgp.NewEntity("Release Signing", "binary", "release@example.com", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var buf bytes.Buffer
	if err := entity.Serialize(&buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	path := filepath.Join(t.TempDir(), "release.gpg")
	testutil.WriteFile(t, path, buf.Bytes())

	v, err := NewVerifier(path)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	data := []byte("artifact")
	if err := v.VerifySignature(data, binarySignature(t, entity, data)); err != nil {
		t.Errorf("VerifySignature() error = %v", err)
	}
}

func TestNewVerifier_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewVerifier(filepath.Join(dir, "missing.asc")); err == nil {
		t.Error("expected error for missing keyring")
	}

	garbage := filepath.Join(dir, "garbage.asc")
	testutil.WriteFile(t, garbage, []byte("not a keyring"))
	if _, err := NewVerifier(garbage); err == nil {
		t.Error("expected error for unreadable keyring")
	}
}

func TestVerifierWithoutKeyring(t *testing.T) {
	v, err := NewVerifier("")
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	if v.RequiresSignature() {
		t.Error("verifier without keyring should not require signatures")
	}
	if err := v.VerifySignature([]byte("data"), nil); err != nil {
		t.Errorf("VerifySignature() without keyring error = %v", err)
	}
}
