package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ember/internal/target"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List known target triples",
	Long:  "List the target triples generation can be asked for, including ember.toml overrides. The default is marked with *.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		manifest, err := target.LoadManifest(configPath)
		if err != nil {
			return err
		}
		registry := target.NewRegistry()
		manifest.Apply(registry)

		def := registry.Default().Triple
		for _, triple := range registry.Triples() {
			t, rerr := registry.Resolve(triple)
			if rerr != nil {
				return rerr
			}
			marker := " "
			if triple == def {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-24s ptr=%d word=%d f64align=%d\n",
				marker, triple, t.PtrSize, t.WordSize, t.F64Align)
		}
		return nil
	},
}

func init() {
	targetsCmd.Flags().String("config", "ember.toml", "manifest path")
}
