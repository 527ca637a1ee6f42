package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/config"
	"github.com/ZebulonRouseFrantzich/addonprov/internal/platform"
	"github.com/ZebulonRouseFrantzich/addonprov/internal/provision"
)

// app holds the command's streams and the seams tests replace.
type app struct {
	stdout io.Writer
	stderr io.Writer

	detector   platform.Detector
	httpClient *http.Client
	sleeper    provision.Sleeper
	getenv     func(string) string

	flags flags
}

// flags are the persistent command-line options.
type flags struct {
	root           string
	remoteBaseURL  string
	maxAttempts    int
	attemptTimeout time.Duration
	compression    string
	keyring        string
	userAgent      string
	verbose        bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		detector: platform.NewDetector(),
		getenv:   os.Getenv,
	}
}

// newRootCmd builds the command tree. Running the root with no subcommand
// installs, so a bare "addonprov" works as a postinstall hook.
func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addonprov",
		Short: "Install the prebuilt native addon for this platform",
		Long: `addonprov places the prebuilt native addon matching the host's platform
and architecture at <root>/index.node.

It prefers the compressed variant bundled under <root>/binaries/ and,
when a remote base URL is configured, fetches it with bounded retry
otherwise. A .no-postinstall file in the package root disables it.`,
		Args:          cobra.NoArgs,
		RunE:          a.runInstall,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.root, "root", ".", "package root containing package.json")
	pf.StringVar(&a.flags.remoteBaseURL, "remote-base-url", "", "remote origin for artifacts; may use {platform} {arch} {key} {version} {name}")
	pf.IntVar(&a.flags.maxAttempts, "max-attempts", provision.DefaultMaxAttempts, "fetch attempts before giving up")
	pf.DurationVar(&a.flags.attemptTimeout, "attempt-timeout", provision.DefaultAttemptTimeout, "timeout for a single fetch attempt")
	pf.StringVar(&a.flags.compression, "compression", "gzip", "artifact compression: gzip, zstd or lz4")
	pf.StringVar(&a.flags.keyring, "keyring", "", "OpenPGP public keyring; requires signed artifacts when set")
	pf.StringVar(&a.flags.userAgent, "user-agent", provision.DefaultUserAgent, "User-Agent header for remote fetches")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(a.newInstallCmd())
	cmd.AddCommand(a.newVariantCmd())
	cmd.AddCommand(a.newConfigCmd())
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// execute runs the command tree with args.
func (a *app) execute(ctx context.Context, args []string) error {
	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	return cmd.ExecuteContext(ctx)
}

// logger returns a text logger on stderr; --verbose lowers it to debug.
func (a *app) logger() *slog.Logger {
	level := slog.LevelInfo
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

// settings loads layered settings and applies explicitly set flags last.
func (a *app) settings(cmd *cobra.Command) (*config.Settings, error) {
	s, err := config.NewLoader(a.detector).
		WithEnv(a.getenv).
		WithLogger(a.logger()).
		Load(cmd.Context(), a.flags.root)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("remote-base-url") {
		s.RemoteBaseURL = a.flags.remoteBaseURL
		s.Sources["remote_base_url"] = config.SourceFlag
	}
	if flags.Changed("max-attempts") {
		s.MaxAttempts = a.flags.maxAttempts
		s.Sources["max_attempts"] = config.SourceFlag
	}
	if flags.Changed("attempt-timeout") {
		s.AttemptTimeout = a.flags.attemptTimeout
		s.Sources["attempt_timeout"] = config.SourceFlag
	}
	if flags.Changed("compression") {
		s.Compression = a.flags.compression
		s.Sources["compression"] = config.SourceFlag
	}
	if flags.Changed("keyring") {
		keyring, err := filepath.Abs(a.flags.keyring)
		if err != nil {
			return nil, fmt.Errorf("resolve keyring path: %w", err)
		}
		s.KeyringPath = keyring
		s.Sources["keyring"] = config.SourceFlag
	}
	if flags.Changed("user-agent") {
		s.UserAgent = a.flags.userAgent
		s.Sources["user_agent"] = config.SourceFlag
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// provisioner builds a Provisioner from resolved settings.
func (a *app) provisioner(s *config.Settings) (*provision.Provisioner, error) {
	cfg, err := s.ProvisionConfig()
	if err != nil {
		return nil, err
	}
	cfg.Detector = a.detector
	cfg.HTTPClient = a.httpClient
	cfg.Sleeper = a.sleeper
	cfg.Logger = a.logger()
	return provision.New(cfg)
}
