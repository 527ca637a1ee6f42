package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/config"
	"github.com/ZebulonRouseFrantzich/addonprov/internal/locator"
	"github.com/ZebulonRouseFrantzich/addonprov/internal/provision"
)

func (a *app) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the native addon (the default action)",
		Args:  cobra.NoArgs,
		RunE:  a.runInstall,
	}
}

// installFailure carries a failed run to main, which prints its message
// and exits with its code.
type installFailure struct {
	result *provision.Result
}

func (f *installFailure) Error() string {
	return f.result.Message()
}

func (f *installFailure) ExitCode() int {
	return f.result.ExitCode()
}

func (f *installFailure) Unwrap() error {
	return f.result.Err
}

func (a *app) runInstall(cmd *cobra.Command, args []string) error {
	if a.skipInstall() {
		return nil
	}

	s, err := a.settings(cmd)
	if err != nil {
		return fmt.Errorf("Failed to download native addon: %s", config.FormatError(err, a.flags.verbose))
	}

	p, err := a.provisioner(s)
	if err != nil {
		return fmt.Errorf("Failed to download %s: %w", packageLabel(s), err)
	}

	result, err := p.Run(cmd.Context())
	if err != nil {
		return &installFailure{result: result}
	}

	switch result.Outcome {
	case provision.OutcomeSucceeded:
		fmt.Fprintln(a.stdout, result.Message())
	case provision.OutcomeSkipped:
		if a.flags.verbose {
			fmt.Fprintln(a.stdout, result.Message())
		}
	}
	return nil
}

// skipInstall reports whether the marker or an installed binary ends the
// run. It runs before settings are loaded, so a broken package.json,
// provision.lua, environment or keyring never fails a skipped install.
func (a *app) skipInstall() bool {
	loc := locator.New(a.flags.root, "")
	reason := provision.CheckSkip(loc)
	if reason == provision.SkipNone {
		return false
	}

	logger := a.logger()
	if reason == provision.SkipDisabled {
		logger.Info("install disabled by marker", "marker", loc.MarkerPath())
	} else {
		logger.Debug("native addon already installed", "path", loc.InstalledPath())
	}

	if a.flags.verbose {
		result := &provision.Result{
			Outcome:    provision.OutcomeSkipped,
			SkipReason: reason,
			Package:    manifestName(loc.Root()),
		}
		fmt.Fprintln(a.stdout, result.Message())
	}
	return true
}

// manifestName returns the package name for messages, or "" when
// package.json is missing or unreadable.
func manifestName(root string) string {
	m, err := config.ReadManifest(root)
	if err != nil || m == nil {
		return ""
	}
	return m.Name
}

func packageLabel(s *config.Settings) string {
	if s.PackageName == "" {
		return "native addon"
	}
	return s.PackageName
}
