package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overlays ADDONPROV_* variables onto s. Empty variables are
// ignored so a blank export does not clear a configured value.
func applyEnv(s *Settings, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := strings.TrimSpace(getenv(EnvRemoteBaseURL)); v != "" {
		s.RemoteBaseURL = v
		s.markSource(luaFieldRemoteBaseURL, SourceEnv)
	}

	if v := strings.TrimSpace(getenv(EnvMaxAttempts)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: EnvMaxAttempts, Message: fmt.Sprintf("not an integer: %q", v)}
		}
		s.MaxAttempts = n
		s.markSource(luaFieldMaxAttempts, SourceEnv)
	}

	if v := strings.TrimSpace(getenv(EnvAttemptTimeout)); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return &ValidationError{Field: EnvAttemptTimeout, Message: err.Error()}
		}
		s.AttemptTimeout = d
		s.markSource(luaFieldTimeout, SourceEnv)
	}

	if v := strings.TrimSpace(getenv(EnvCompression)); v != "" {
		s.Compression = v
		s.markSource(luaFieldCompression, SourceEnv)
	}

	if v := strings.TrimSpace(getenv(EnvKeyring)); v != "" {
		s.KeyringPath = v
		s.markSource(luaFieldKeyring, SourceEnv)
	}

	if v := strings.TrimSpace(getenv(EnvUserAgent)); v != "" {
		s.UserAgent = v
		s.markSource(luaFieldUserAgent, SourceEnv)
	}

	return nil
}

// parseDuration accepts Go duration syntax or a bare number of seconds.
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if seconds, err := strconv.ParseFloat(v, 64); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %q", v)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", v)
	}
	return d, nil
}
