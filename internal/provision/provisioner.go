package provision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/locator"
)

// Provisioner installs the native addon for one package root.
type Provisioner struct {
	cfg     Config
	loc     *locator.Locator
	fetcher *Fetcher
	logger  *slog.Logger

	// removeAll deletes the staging directory; swapped in tests.
	removeAll func(path string) error
}

// New creates a provisioner. It touches nothing on disk; the keyring is
// loaded by Run once the skip checks have passed.
func New(cfg Config) (*Provisioner, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	return &Provisioner{
		cfg:       cfg,
		loc:       locator.New(cfg.Root, cfg.Codec.Ext()),
		fetcher:   newFetcher(cfg),
		logger:    cfg.Logger,
		removeAll: os.RemoveAll,
	}, nil
}

// CheckSkip reports why a run for the package at loc would do nothing, or
// SkipNone. The disable marker wins over an installed binary. Only the two
// paths are examined, so callers can check before loading any settings.
func CheckSkip(loc *locator.Locator) SkipReason {
	if exists(loc.MarkerPath()) {
		return SkipDisabled
	}
	if exists(loc.InstalledPath()) {
		return SkipInstalled
	}
	return SkipNone
}

// Locator returns the path layout the provisioner works with.
func (p *Provisioner) Locator() *locator.Locator {
	return p.loc
}

// ResolveVariant detects the host and returns its variant key.
func (p *Provisioner) ResolveVariant(ctx context.Context) (locator.Key, error) {
	info, err := p.cfg.Detector.Detect(ctx)
	if err != nil {
		return locator.Key{}, &Error{Kind: KindUnsupportedPlatform, Err: fmt.Errorf("detect platform: %w", err)}
	}

	key, err := locator.ResolveKey(info)
	if err != nil {
		return locator.Key{}, &Error{Kind: KindUnsupportedPlatform, Err: err}
	}

	if distro := info.GetDistro(); distro != nil {
		p.logger.Debug("detected platform", "variant", key.String(), "distro", distro.ID, "family", distro.Family, "version", distro.Version)
	} else {
		p.logger.Debug("detected platform", "variant", key.String())
	}
	return key, nil
}

// RemoteURL returns the fetch URL for key, or "" when remote fetch is off.
func (p *Provisioner) RemoteURL(key locator.Key) (string, error) {
	if p.cfg.RemoteBaseURL == "" {
		return "", nil
	}
	return locator.RemoteURL(p.cfg.RemoteBaseURL, key, locator.URLVars{
		Version: p.cfg.PackageVersion,
		Name:    p.loc.ArtifactName(key),
	})
}

// Run performs one provisioning invocation. The returned Result is always
// non-nil; err is non-nil exactly when Result.Outcome is OutcomeFailed.
func (p *Provisioner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{
		Package: p.cfg.PackageName,
		Path:    p.loc.InstalledPath(),
	}
	logger := p.logger.With("install_id", uuid.NewString(), "package", p.cfg.PackageName)

	finish := func(outcome Outcome, err error) (*Result, error) {
		result.Outcome = outcome
		result.Duration = time.Since(start)
		if err != nil {
			var pe *Error
			if errors.As(err, &pe) && pe.Variant == "" && result.Variant != (locator.Key{}) {
				pe.Variant = result.Variant.String()
			}
			result.Err = err
			logger.Error("provisioning failed", "kind", KindOf(err).String(), "error", err)
		}
		return result, err
	}

	switch reason := CheckSkip(p.loc); reason {
	case SkipDisabled:
		logger.Info("install disabled by marker", "marker", p.loc.MarkerPath())
		result.SkipReason = reason
		return finish(OutcomeSkipped, nil)
	case SkipInstalled:
		logger.Debug("native addon already installed", "path", p.loc.InstalledPath())
		result.SkipReason = reason
		return finish(OutcomeSkipped, nil)
	}

	key, err := p.ResolveVariant(ctx)
	if err != nil {
		return finish(OutcomeFailed, err)
	}
	result.Variant = key
	logger = logger.With("variant", key.String())

	verifier, err := NewVerifier(p.cfg.KeyringPath)
	if err != nil {
		return finish(OutcomeFailed, newError(KindIntegrityError, "load keyring: %w", err))
	}

	data, source, err := p.acquire(ctx, key, result, logger)
	if err != nil {
		return finish(OutcomeFailed, err)
	}
	result.Source = source

	if err := p.verify(ctx, verifier, key, data, source, logger); err != nil {
		return finish(OutcomeFailed, err)
	}

	written, err := installArtifact(p.cfg.Codec, data, p.loc.InstalledPath())
	if err != nil {
		return finish(OutcomeFailed, err)
	}
	result.BytesWritten = written

	if err := p.cleanup(source); err != nil {
		result.CleanupErr = err
		logger.Warn("cleanup failed", "error", err)
	}

	logger.Info("installed native addon",
		"source", source.String(),
		"path", p.loc.InstalledPath(),
		"bytes", written,
		"duration", time.Since(start),
	)
	return finish(OutcomeSucceeded, nil)
}

// acquire reads the bundled artifact or, failing that, fetches it.
func (p *Provisioner) acquire(ctx context.Context, key locator.Key, result *Result, logger *slog.Logger) ([]byte, Source, error) {
	stagingPath := p.loc.StagingPath(key)

	data, err := os.ReadFile(stagingPath)
	if err == nil {
		logger.Debug("using bundled artifact", "path", stagingPath, "bytes", len(data))
		return data, SourceBundle, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, SourceNone, newError(KindArtifactNotFound, "read bundled artifact: %w", err)
	}

	url, err := p.RemoteURL(key)
	if err != nil {
		return nil, SourceNone, newError(KindArtifactNotFound, "build remote URL: %w", err)
	}
	if url == "" {
		return nil, SourceNone, newError(KindArtifactNotFound, "no bundled artifact %s and no remote base URL configured", p.loc.ArtifactName(key))
	}

	logger.Info("fetching artifact", "url", url, "max_attempts", p.cfg.MaxAttempts)
	data, attempts, err := p.fetcher.Fetch(ctx, url)
	result.Attempts = attempts
	if err != nil {
		return nil, SourceNone, err
	}
	return data, SourceRemote, nil
}

// verify runs the checksum and signature checks that apply to source.
func (p *Provisioner) verify(ctx context.Context, v *Verifier, key locator.Key, data []byte, source Source, logger *slog.Logger) error {
	name := p.loc.ArtifactName(key)

	if source == SourceBundle {
		checked, err := v.VerifyChecksum(data, p.loc.ChecksumPath(), name)
		if err != nil {
			return &Error{Kind: KindIntegrityError, Err: err}
		}
		if checked {
			logger.Debug("checksum verified", "file", p.loc.ChecksumPath())
		}
	}

	if !v.RequiresSignature() {
		return nil
	}

	signature, err := p.signature(ctx, key, source)
	if err != nil {
		return &Error{Kind: KindIntegrityError, Err: fmt.Errorf("load signature: %w", err)}
	}
	if err := v.VerifySignature(data, signature); err != nil {
		return &Error{Kind: KindIntegrityError, Err: err}
	}
	logger.Debug("signature verified")
	return nil
}

// signature loads the detached signature from wherever the artifact came from.
func (p *Provisioner) signature(ctx context.Context, key locator.Key, source Source) ([]byte, error) {
	if source == SourceBundle {
		return os.ReadFile(p.loc.StagingPath(key) + locator.SignatureExt)
	}

	artifactURL, err := p.RemoteURL(key)
	if err != nil {
		return nil, err
	}
	sigURL, err := locator.SignatureURL(artifactURL)
	if err != nil {
		return nil, err
	}
	data, _, err := p.fetcher.Fetch(ctx, sigURL)
	return data, err
}

// cleanup removes the staging directory after a bundle install and sweeps
// temp files left by interrupted runs.
func (p *Provisioner) cleanup(source Source) error {
	var errs []error

	if source == SourceBundle {
		if err := p.removeAll(p.loc.StagingDir()); err != nil {
			errs = append(errs, fmt.Errorf("remove staging dir: %w", err))
		}
	}

	stale, err := filepath.Glob(tempGlob(p.loc.InstalledPath()))
	if err != nil {
		errs = append(errs, fmt.Errorf("find stale temp files: %w", err))
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove stale temp file: %w", err))
		}
	}

	return errors.Join(errs...)
}

// exists reports whether anything is present at path.
func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
