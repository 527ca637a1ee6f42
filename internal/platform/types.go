// Package platform detects the host operating system and CPU architecture
// and reports them in the token vocabulary native addons are published
// under ("linux", "darwin", "win32"; "x64", "arm64", "ia32").
//
// On Linux it additionally uses gopsutil to identify the distribution, which
// is surfaced in diagnostics and in the read-only Lua platform table that
// provision.lua scripts can inspect. Distribution detection is best effort:
// failures fall back to OS/arch only.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux (musl)
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // addon platform token, e.g. "linux", "darwin", "win32"
	Arch     string // addon architecture token, e.g. "x64", "arm64"
	GOOS     string // raw runtime.GOOS
	GOARCH   string // raw runtime.GOARCH
	Platform string // distro ID (Linux only, e.g., "ubuntu", "alpine")
	Family   string // canonical family (e.g., "debian", "alpine")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if !i.IsLinux() || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "win32"
}

// IsX64 returns true if the architecture is 64-bit x86.
func (i *Info) IsX64() bool {
	return i.Arch == "x64"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + arm64).
func (i *Info) IsAppleSilicon() bool {
	return i.IsMacOS() && i.IsARM64()
}

// IsAlpine returns true on Alpine Linux, whose musl libc cannot load
// glibc-linked addons.
func (i *Info) IsAlpine() bool {
	return i.IsLinux() && i.Family == FamilyAlpine
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
