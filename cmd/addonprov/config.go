package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/addonprov/internal/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as a provision.lua script",
		Long: `config resolves settings exactly as install would (package.json,
provision.lua, ADDONPROV_* environment variables, then flags) and prints
them as a provision.lua script. Values not at their default are annotated
with the layer that set them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings(cmd)
			if err != nil {
				return fmt.Errorf("%s", config.FormatError(err, a.flags.verbose))
			}
			_, err = fmt.Fprint(a.stdout, config.NewGenerator().Generate(s))
			return err
		},
	}
}
