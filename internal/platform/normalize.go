package platform

import (
	"strings"
)

// osTokens maps GOOS values to the platform tokens addons are published under.
var osTokens = map[string]string{
	"linux":   "linux",
	"darwin":  "darwin",
	"windows": "win32",
	"freebsd": "freebsd",
	"openbsd": "openbsd",
	"netbsd":  "netbsd",
	"solaris": "sunos",
	"illumos": "sunos",
	"aix":     "aix",
	"android": "android",
}

// archTokens maps GOARCH values (and common uname spellings) to
// architecture tokens.
var archTokens = map[string]string{
	"amd64":   "x64",
	"x86_64":  "x64",
	"386":     "ia32",
	"arm":     "arm",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"ppc64":   "ppc64",
	"ppc64le": "ppc64",
	"s390x":   "s390x",
	"riscv64": "riscv64",
	"loong64": "loong64",
	"mips":    "mips",
	"mipsle":  "mipsel",
}

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// OSToken converts a GOOS value to its addon platform token. Values without
// a mapping are returned lower-cased so callers can report them.
func OSToken(goos string) string {
	normalized := normalizePlatform(goos)
	if token, ok := osTokens[normalized]; ok {
		return token
	}
	return normalized
}

// ArchToken converts a GOARCH value to its addon architecture token. Values
// without a mapping are returned lower-cased.
func ArchToken(goarch string) string {
	normalized := normalizePlatform(goarch)
	if token, ok := archTokens[normalized]; ok {
		return token
	}
	return normalized
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := normalizePlatform(family)
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
