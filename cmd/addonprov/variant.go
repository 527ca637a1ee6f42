package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) newVariantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variant",
		Short: "Show the variant this host resolves to and where it is looked up",
		Args:  cobra.NoArgs,
		RunE:  a.runVariant,
	}
}

func (a *app) runVariant(cmd *cobra.Command, args []string) error {
	s, err := a.settings(cmd)
	if err != nil {
		return err
	}
	p, err := a.provisioner(s)
	if err != nil {
		return err
	}

	key, err := p.ResolveVariant(cmd.Context())
	if err != nil {
		return err
	}
	loc := p.Locator()

	remote, err := p.RemoteURL(key)
	if err != nil {
		return err
	}
	if remote == "" {
		remote = "(not configured)"
	}

	state := "not installed"
	switch {
	case fileExists(loc.MarkerPath()):
		state = "disabled"
	case fileExists(loc.InstalledPath()):
		state = "installed"
	}

	bundled := "missing"
	if fileExists(loc.StagingPath(key)) {
		bundled = "present"
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "variant:\t%s\n", key)
	fmt.Fprintf(w, "artifact:\t%s\n", loc.ArtifactName(key))
	fmt.Fprintf(w, "bundled:\t%s (%s)\n", loc.StagingPath(key), bundled)
	fmt.Fprintf(w, "remote:\t%s\n", remote)
	fmt.Fprintf(w, "installed:\t%s (%s)\n", loc.InstalledPath(), state)
	return w.Flush()
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
