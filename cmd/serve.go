package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Kizuruki/historybowlreview/internal/api"
	"github.com/Kizuruki/historybowlreview/internal/logger"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the graph and progress over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()

		ctx, stop := notifyContext(cmd.Context())
		defer stop()

		d, err := OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		log := logger.Get()
		router := api.NewRouter(d, log, c.Log.Env == "production")
		return api.Serve(ctx, c.Server.Listen, router, log)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config, 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}
