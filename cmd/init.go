package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kizuruki/historybowlreview/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or migrate the graph store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := DiscoverDB(true)
		if err != nil {
			return err
		}
		d, err := db.OpenDB(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer d.Close()

		version, err := d.SchemaVersionOf(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s ready at %s (schema v%d)\n", db.StoreName, path, version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
