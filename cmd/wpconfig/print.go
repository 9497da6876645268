package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AdeptTravel/wpenv/internal/config"
)

func newPrintCmd(g *globals) *cobra.Command {
	var format string
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print every resolved field with its origin",
		Long: `Print the resolved value and origin (explicit, defaulted, missing) of
every field, followed by any issues.  Keys, salts, and credentials are
masked unless --show-secrets is given.  Printing never fails on an invalid
configuration; use check for that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := g.loader(cmd.Context(), false)
			if err != nil {
				return err
			}
			res, err := l.Load(cmd.Context())
			if err != nil {
				return err
			}
			rep := config.NewReport(res, true, showSecrets)

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(rep)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return fmt.Errorf("--format %q: want yaml or json", format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "yaml", "output format: yaml or json")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print keys, salts, and credentials in clear")
	return cmd
}
