// Package config resolves provisioning settings for a package root.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. Built-in defaults (4 attempts, 60s per attempt, gzip, no remote).
//  2. package.json: name, version and an optional "nativeAddon" object.
//     The manifest is read as JSONC so comments and trailing commas are
//     tolerated.
//  3. provision.lua: an optional script in the package root, run in a
//     sandboxed gopher-lua VM with a read-only platform table.
//  4. ADDONPROV_* environment variables.
//  5. Command-line flags, applied by the caller.
//
// # provision.lua
//
// The script assigns a global "provision" table:
//
//	provision = {
//	  remote_base_url = "https://cdn.example.com/addons/{version}/{key}.node.gz",
//	  max_attempts = 6,
//	  attempt_timeout = "30s",   -- or a number of seconds
//	  compression = platform.is_alpine and "zstd" or "gzip",
//	  keyring = "keys/release.asc",
//	}
//
// The sandbox removes os, io, debug and every code loading function, so
// the script can only compute values. Execution is bounded by the caller's
// context and, when it carries no deadline, by a five second timeout.
//
// Relative keyring paths are resolved against the package root.
package config
