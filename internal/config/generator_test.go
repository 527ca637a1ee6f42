package config

import (
	"context"
	"strings"
	"testing"
	"time"
)

func fixedGenerator() *Generator {
	g := NewGenerator()
	g.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return g
}

func TestGenerator_Generate(t *testing.T) {
	s := Defaults("/srv/pkg")
	s.PackageName = "@min-html/core"
	s.PackageVersion = "0.8.5"
	s.RemoteBaseURL = "https://cdn.example.com/{version}/{key}.node.gz"
	s.KeyringPath = "/srv/pkg/keys/release.asc"
	s.markSource(luaFieldRemoteBaseURL, SourceManifest)

	got := fixedGenerator().Generate(s)

	want := `-- provision.lua for @min-html/core@0.8.5
-- Generated: 2026-03-01T12:00:00Z

provision = {
  remote_base_url = "https://cdn.example.com/{version}/{key}.node.gz", -- from package.json
  max_attempts = 4,
  attempt_timeout = "1m0s",
  compression = "gzip",
  keyring = "keys/release.asc",
  user_agent = "addonprov/1.0",
}
`
	if got != want {
		t.Errorf("Generate() =\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerator_RoundTrip(t *testing.T) {
	s := Defaults("/srv/pkg")
	s.RemoteBaseURL = `https://cdn.example.com/"quoted"\path`
	s.MaxAttempts = 9
	s.AttemptTimeout = 90 * time.Second
	s.Compression = "zstd"
	s.KeyringPath = "/etc/keys/release.asc"
	s.UserAgent = "installer\t2"

	script, err := NewParser(nil).ParseString(context.Background(), fixedGenerator().Generate(s))
	if err != nil {
		t.Fatalf("generated script does not parse: %v", err)
	}

	if script.RemoteBaseURL != s.RemoteBaseURL {
		t.Errorf("RemoteBaseURL = %q, want %q", script.RemoteBaseURL, s.RemoteBaseURL)
	}
	if script.MaxAttempts != 9 || script.AttemptTimeout != 90*time.Second || script.Compression != "zstd" {
		t.Errorf("script = %+v", *script)
	}
	if script.Keyring != "/etc/keys/release.asc" {
		t.Errorf("Keyring = %q, keyrings outside the root stay absolute", script.Keyring)
	}
	if script.UserAgent != "installer\t2" {
		t.Errorf("UserAgent = %q", script.UserAgent)
	}
}

func TestGenerator_UnnamedPackage(t *testing.T) {
	got := fixedGenerator().Generate(Defaults("/srv/pkg"))
	if !strings.HasPrefix(got, "-- provision.lua\n") {
		t.Errorf("header = %q", strings.SplitN(got, "\n", 2)[0])
	}
	if strings.Contains(got, "remote_base_url") || strings.Contains(got, "keyring") {
		t.Errorf("unset optional fields should be omitted:\n%s", got)
	}
}
