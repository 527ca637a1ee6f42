package config

import (
	"fmt"
	"time"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/codec"
	"github.com/ZebulonRouseFrantzich/addonprov/internal/locator"
	"github.com/ZebulonRouseFrantzich/addonprov/internal/provision"
)

// Settings is the resolved configuration for one package root.
type Settings struct {
	Root           string
	PackageName    string
	PackageVersion string

	RemoteBaseURL  string
	MaxAttempts    int
	AttemptTimeout time.Duration
	Compression    string
	KeyringPath    string
	UserAgent      string

	// Findings lists credentials spotted in provision.lua or the remote
	// base URL. They are warnings, not errors.
	Findings []SensitiveDataFinding

	// Sources records which layer last set each field, keyed by the
	// field's Lua name. Fields left at their default are absent.
	Sources map[string]string
}

// Layer names recorded in Settings.Sources.
const (
	SourceManifest = "package.json"
	SourceScript   = "provision.lua"
	SourceEnv      = "environment"
	SourceFlag     = "flag"
)

// Defaults returns the settings used when nothing is configured.
func Defaults(root string) *Settings {
	return &Settings{
		Root:           root,
		MaxAttempts:    provision.DefaultMaxAttempts,
		AttemptTimeout: provision.DefaultAttemptTimeout,
		Compression:    codec.Gzip.Name(),
		UserAgent:      provision.DefaultUserAgent,
		Sources:        map[string]string{},
	}
}

func (s *Settings) markSource(field, source string) {
	if s.Sources == nil {
		s.Sources = map[string]string{}
	}
	s.Sources[field] = source
}

// Validate checks every field that can be set by a user.
func (s *Settings) Validate() error {
	if s.Root == "" {
		return &ValidationError{Field: "root", Message: "package root cannot be empty"}
	}

	if s.MaxAttempts < 1 || s.MaxAttempts > MaxAttemptsLimit {
		return &ValidationError{
			Field:   luaFieldMaxAttempts,
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxAttemptsLimit, s.MaxAttempts),
		}
	}

	if s.AttemptTimeout <= 0 || s.AttemptTimeout > MaxAttemptTimeout {
		return &ValidationError{
			Field:   luaFieldTimeout,
			Message: fmt.Sprintf("must be positive and at most %s, got %s", MaxAttemptTimeout, s.AttemptTimeout),
		}
	}

	c, err := codec.Parse(s.Compression)
	if err != nil {
		return &ValidationError{Field: luaFieldCompression, Message: err.Error()}
	}

	if s.RemoteBaseURL != "" {
		// Expand against a fixed variant so template errors surface here,
		// not midway through an install
		sample := locator.Key{Platform: "linux", Arch: "x64"}
		vars := locator.URLVars{Version: s.PackageVersion, Name: sample.String() + ".node" + c.Ext()}
		if _, err := locator.RemoteURL(s.RemoteBaseURL, sample, vars); err != nil {
			return &ValidationError{Field: luaFieldRemoteBaseURL, Message: err.Error()}
		}
	}

	if s.UserAgent == "" {
		return &ValidationError{Field: luaFieldUserAgent, Message: "cannot be empty"}
	}

	return nil
}

// ProvisionConfig converts validated settings to a provision.Config. The
// caller supplies the logger and any test doubles.
func (s *Settings) ProvisionConfig() (provision.Config, error) {
	if err := s.Validate(); err != nil {
		return provision.Config{}, err
	}

	c, err := codec.Parse(s.Compression)
	if err != nil {
		return provision.Config{}, err
	}

	return provision.Config{
		Root:           s.Root,
		PackageName:    s.PackageName,
		PackageVersion: s.PackageVersion,
		Codec:          c,
		RemoteBaseURL:  s.RemoteBaseURL,
		MaxAttempts:    s.MaxAttempts,
		AttemptTimeout: s.AttemptTimeout,
		UserAgent:      s.UserAgent,
		KeyringPath:    s.KeyringPath,
	}, nil
}

// ValidationError represents a settings validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "invalid " + e.Field + ": " + e.Message
	}
	return "invalid settings: " + e.Message
}
