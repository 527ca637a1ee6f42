package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/locator"
)

func newVersionCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asJSON {
				_, err := fmt.Fprintf(a.stdout, "addonprov %s\n", Version)
				return err
			}

			host := ""
			if key, err := locator.ResolveKeyFor(runtime.GOOS, runtime.GOARCH); err == nil {
				host = key.String()
			}
			out := map[string]any{
				"version": Version,
				"go":      runtime.Version(),
				"go_os":   runtime.GOOS,
				"go_arch": runtime.GOARCH,
				"variant": host,
			}
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version details as JSON")

	return cmd
}
