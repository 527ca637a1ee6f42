package config

import "time"

// File names read from the package root.
const (
	ManifestName = "package.json"
	ScriptName   = "provision.lua"
)

// Environment variables, applied after the manifest and script.
const (
	EnvRemoteBaseURL  = "ADDONPROV_REMOTE_BASE_URL"
	EnvMaxAttempts    = "ADDONPROV_MAX_ATTEMPTS"
	EnvAttemptTimeout = "ADDONPROV_ATTEMPT_TIMEOUT"
	EnvCompression    = "ADDONPROV_COMPRESSION"
	EnvKeyring        = "ADDONPROV_KEYRING"
	EnvUserAgent      = "ADDONPROV_USER_AGENT"
)

// Lua schema field names and globals
const (
	luaGlobalProvision    = "provision"
	luaFieldRemoteBaseURL = "remote_base_url"
	luaFieldMaxAttempts   = "max_attempts"
	luaFieldTimeout       = "attempt_timeout"
	luaFieldCompression   = "compression"
	luaFieldKeyring       = "keyring"
	luaFieldUserAgent     = "user_agent"
)

// Limits on user-supplied values.
const (
	MaxAttemptsLimit  = 20
	MaxScriptSize     = 1 << 20
	MaxManifestSize   = 10 << 20
	MaxAttemptTimeout = 30 * time.Minute

	defaultScriptTimeout = 5 * time.Second
)
