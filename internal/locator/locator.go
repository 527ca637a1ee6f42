// Package locator maps the running host to the addon variant it needs and
// computes where that variant's artifacts live. Every function here is a
// pure computation over the package root and the variant key; nothing
// touches the filesystem.
package locator

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/platform"
)

// Fixed layout relative to the package root.
const (
	InstalledName  = "index.node"
	StagingDirName = "binaries"
	MarkerName     = ".no-postinstall"
	ChecksumName   = "SHA256SUMS"
	SignatureExt   = ".sig"

	// Separator joins the platform and architecture tokens of a Key.
	Separator = "__"
	// artifactExt precedes the compression extension: linux__x64.node.gz
	artifactExt = ".node"
)

// ErrUnsupportedPlatform is returned when the host's OS or architecture has
// no published variant.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platforms is the vocabulary of platform tokens variants are published for.
var Platforms = []string{"linux", "darwin", "win32", "freebsd", "openbsd", "netbsd", "sunos", "aix", "android"}

// Architectures is the vocabulary of architecture tokens.
var Architectures = []string{"x64", "ia32", "arm", "arm64", "ppc64", "s390x", "riscv64", "loong64", "mips", "mipsel"}

// Key identifies one prebuilt variant.
type Key struct {
	Platform string
	Arch     string
}

// String returns the combined lookup key, e.g. "linux__x64".
func (k Key) String() string {
	return k.Platform + Separator + k.Arch
}

// ResolveKey validates detected platform info and returns its variant key.
func ResolveKey(info *platform.Info) (Key, error) {
	if info == nil {
		return Key{}, fmt.Errorf("platform info is required")
	}
	return newKey(info.OS, info.Arch)
}

// ResolveKeyFor maps raw GOOS/GOARCH values to a variant key.
func ResolveKeyFor(goos, goarch string) (Key, error) {
	return newKey(platform.OSToken(goos), platform.ArchToken(goarch))
}

func newKey(os, arch string) (Key, error) {
	if !slices.Contains(Platforms, os) {
		return Key{}, fmt.Errorf("%w: platform %q", ErrUnsupportedPlatform, os)
	}
	if !slices.Contains(Architectures, arch) {
		return Key{}, fmt.Errorf("%w: architecture %q", ErrUnsupportedPlatform, arch)
	}
	return Key{Platform: os, Arch: arch}, nil
}

// Locator computes artifact paths under a package root for one compression
// extension.
type Locator struct {
	root string
	ext  string
}

// New creates a locator for the package rooted at root. ext is the
// compression extension including its dot (".gz").
func New(root, ext string) *Locator {
	return &Locator{root: filepath.Clean(root), ext: ext}
}

// Root returns the package root.
func (l *Locator) Root() string {
	return l.root
}

// InstalledPath returns the path the decompressed addon is loaded from.
func (l *Locator) InstalledPath() string {
	return filepath.Join(l.root, InstalledName)
}

// MarkerPath returns the path of the install-disable marker.
func (l *Locator) MarkerPath() string {
	return filepath.Join(l.root, MarkerName)
}

// StagingDir returns the directory holding bundled compressed variants.
func (l *Locator) StagingDir() string {
	return filepath.Join(l.root, StagingDirName)
}

// ArtifactName returns the file name of a variant's compressed artifact.
func (l *Locator) ArtifactName(key Key) string {
	return key.String() + artifactExt + l.ext
}

// StagingPath returns the bundled artifact path for key.
func (l *Locator) StagingPath(key Key) string {
	return filepath.Join(l.StagingDir(), l.ArtifactName(key))
}

// ChecksumPath returns the bundled sha256sum-format checksum file.
func (l *Locator) ChecksumPath() string {
	return filepath.Join(l.StagingDir(), ChecksumName)
}

// URLVars carries template values that do not come from the key.
type URLVars struct {
	Version string
	Name    string // artifact file name
}

// RemoteURL expands a remote base into the per-variant artifact URL.
//
// The base may contain {platform}, {arch}, {key}, {version} and {name}
// placeholders. A base without any placeholder gets the artifact name
// appended as a final path segment.
func RemoteURL(base string, key Key, vars URLVars) (string, error) {
	if base == "" {
		return "", fmt.Errorf("remote base URL is empty")
	}
	if vars.Name == "" {
		return "", fmt.Errorf("artifact name is required")
	}

	var expanded string
	if strings.Contains(base, "{") {
		if strings.Contains(base, "{version}") && vars.Version == "" {
			return "", fmt.Errorf("remote URL template %q needs a package version", base)
		}
		expanded = strings.NewReplacer(
			"{platform}", url.PathEscape(key.Platform),
			"{arch}", url.PathEscape(key.Arch),
			"{key}", url.PathEscape(key.String()),
			"{version}", url.PathEscape(vars.Version),
			"{name}", url.PathEscape(vars.Name),
		).Replace(base)
	} else {
		joined, err := url.JoinPath(base, vars.Name)
		if err != nil {
			return "", fmt.Errorf("join remote URL: %w", err)
		}
		expanded = joined
	}

	u, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("parse remote URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("remote URL %q must use http or https", expanded)
	}
	if u.Host == "" {
		return "", fmt.Errorf("remote URL %q has no host", expanded)
	}
	if strings.ContainsAny(u.Path, "{}") {
		return "", fmt.Errorf("remote URL template %q has unknown placeholders", base)
	}

	return u.String(), nil
}

// SignatureURL returns the detached signature URL for an artifact URL. The
// extension goes on the path so query parameters are kept intact.
func SignatureURL(artifactURL string) (string, error) {
	u, err := url.Parse(artifactURL)
	if err != nil {
		return "", fmt.Errorf("parse artifact URL: %w", err)
	}
	u.Path += SignatureExt
	if u.RawPath != "" {
		u.RawPath += SignatureExt
	}
	return u.String(), nil
}
