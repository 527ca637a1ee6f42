package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/codec"
	"github.com/ZebulonRouseFrantzich/addonprov/internal/platform"
)

const (
	// DefaultMaxAttempts is the default ceiling on fetch attempts per artifact
	DefaultMaxAttempts = 4
	// DefaultAttemptTimeout bounds a single fetch attempt, body included
	DefaultAttemptTimeout = 60 * time.Second
	// DefaultBackoffBase is the wait before the second attempt; it doubles after
	DefaultBackoffBase = 500 * time.Millisecond
	// DefaultBackoffMax caps the wait between attempts
	DefaultBackoffMax = 8 * time.Second
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "addonprov/1.0"
)

// Config configures a Provisioner. Only Root is required.
type Config struct {
	// Root is the package root holding index.node and binaries/.
	Root string
	// PackageName and PackageVersion come from package.json and are used
	// in messages and remote URL templates.
	PackageName    string
	PackageVersion string

	// Codec is the compression of staged artifacts (default gzip).
	Codec codec.Codec

	// RemoteBaseURL enables fetching when no bundled artifact exists.
	// Empty disables remote fetch.
	RemoteBaseURL  string
	MaxAttempts    int
	AttemptTimeout time.Duration
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	UserAgent      string

	// KeyringPath, when set, requires a detached OpenPGP signature for the
	// artifact signed by a key in this keyring.
	KeyringPath string

	Detector   platform.Detector
	HTTPClient *http.Client
	Sleeper    Sleeper
	Logger     *slog.Logger
}

// withDefaults fills zero values and validates the rest.
func (c Config) withDefaults() (Config, error) {
	if c.Root == "" {
		return c, fmt.Errorf("Root is required")
	}
	if c.MaxAttempts < 0 {
		return c, fmt.Errorf("MaxAttempts must not be negative, got %d", c.MaxAttempts)
	}
	if c.AttemptTimeout < 0 || c.BackoffBase < 0 || c.BackoffMax < 0 {
		return c, fmt.Errorf("timeouts and backoff must not be negative")
	}

	if c.Codec == nil {
		c.Codec = codec.Gzip
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.BackoffMax < c.BackoffBase {
		c.BackoffMax = c.BackoffBase
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Detector == nil {
		c.Detector = platform.NewDetector()
	}
	if c.HTTPClient == nil {
		c.HTTPClient = newHTTPClient()
	}
	if c.Sleeper == nil {
		c.Sleeper = TimerSleeper{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return c, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Release hosts redirect to storage buckets; allow a handful
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// Sleeper waits between fetch attempts. It must return early with the
// context's error when ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper implements Sleeper with a real timer.
type TimerSleeper struct{}

// Sleep blocks for d or until ctx is done.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
