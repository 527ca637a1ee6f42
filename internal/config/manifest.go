package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// Manifest is the subset of package.json addonprov reads.
type Manifest struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	NativeAddon *ManifestAddon `json:"nativeAddon,omitempty"`
}

// ManifestAddon is the optional "nativeAddon" object in package.json.
type ManifestAddon struct {
	RemoteBaseURL string `json:"remoteBaseUrl,omitempty"`
	MaxAttempts   int    `json:"maxAttempts,omitempty"`
	Compression   string `json:"compression,omitempty"`
}

// ParseManifest strips JSONC comments and trailing commas from data and
// unmarshals the result.
func ParseManifest(data []byte) (*Manifest, error) {
	stripped := jsonc.ToJSON(data)

	var m Manifest
	if err := json.Unmarshal(stripped, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestName, err)
	}
	return &m, nil
}

// ReadManifest reads root/package.json. A missing manifest returns
// (nil, nil); the package then runs unnamed on defaults.
func ReadManifest(root string) (*Manifest, error) {
	path := filepath.Join(root, ManifestName)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > MaxManifestSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, MaxManifestSize)
	}

	return ParseManifest(data)
}

// apply overlays the manifest onto s.
func (m *Manifest) apply(s *Settings) {
	s.PackageName = m.Name
	s.PackageVersion = m.Version

	addon := m.NativeAddon
	if addon == nil {
		return
	}
	if addon.RemoteBaseURL != "" {
		s.RemoteBaseURL = addon.RemoteBaseURL
		s.markSource(luaFieldRemoteBaseURL, SourceManifest)
	}
	if addon.MaxAttempts != 0 {
		s.MaxAttempts = addon.MaxAttempts
		s.markSource(luaFieldMaxAttempts, SourceManifest)
	}
	if addon.Compression != "" {
		s.Compression = addon.Compression
		s.markSource(luaFieldCompression, SourceManifest)
	}
}
