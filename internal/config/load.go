package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/platform"
)

// Loader resolves Settings for a package root.
type Loader struct {
	detector platform.Detector
	getenv   func(string) string
	logger   *slog.Logger
}

// NewLoader creates a loader. detector feeds the provision.lua platform
// table; nil uses the real host.
func NewLoader(detector platform.Detector) *Loader {
	if detector == nil {
		detector = platform.NewDetector()
	}
	return &Loader{detector: detector}
}

// WithEnv replaces the environment lookup, mainly for tests.
func (l *Loader) WithEnv(getenv func(string) string) *Loader {
	l.getenv = getenv
	return l
}

// WithLogger sets the logger credential findings are reported to.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	l.logger = logger
	return l
}

// Load layers defaults, package.json, provision.lua and the environment.
// The result is not validated; callers apply flags and then call Validate.
func (l *Loader) Load(ctx context.Context, root string) (*Settings, error) {
	if root == "" {
		return nil, &ValidationError{Field: "root", Message: "package root cannot be empty"}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve package root: %w", err)
	}

	s := Defaults(root)

	manifest, err := ReadManifest(root)
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		manifest.apply(s)
	}

	script, err := NewParser(l.detector).ParseFile(ctx, filepath.Join(root, ScriptName))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ScriptName, err)
	}
	if script != nil {
		script.apply(s)
		s.Findings = append(s.Findings, script.Findings...)
	}

	if err := applyEnv(s, l.getenv); err != nil {
		return nil, err
	}

	s.resolveKeyring()
	s.Findings = append(s.Findings, DetectURLCredentials(s.RemoteBaseURL)...)

	if l.logger != nil {
		for _, f := range s.Findings {
			l.logger.Warn(f.Description, "pattern", f.PatternName, "line", f.Line, "preview", f.Preview)
		}
	}
	return s, nil
}

// Load is shorthand for NewLoader(detector).Load(ctx, root).
func Load(ctx context.Context, root string, detector platform.Detector) (*Settings, error) {
	return NewLoader(detector).Load(ctx, root)
}

// resolveKeyring makes a relative keyring path relative to the package root.
func (s *Settings) resolveKeyring() {
	if s.KeyringPath != "" && !filepath.IsAbs(s.KeyringPath) {
		s.KeyringPath = filepath.Join(s.Root, s.KeyringPath)
	}
}
