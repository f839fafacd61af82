package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matsen/oalex/internal/api"
	"github.com/matsen/oalex/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the corpus over HTTP for remote-mode clients",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError(exitConfig, "%v", err)
		}
		path, err := cfg.ResolveDatabase(true)
		if err != nil {
			exitWithError(exitConfig, "%v", err)
		}

		log := newLogger()
		client, err := api.OpenLocal(path, cfg.Window, log)
		if err != nil {
			exitWithError(exitError, "%v", err)
		}
		defer client.Close()

		addr := flagListen
		if addr == "" {
			addr = cfg.ListenAddr
		}

		srv := server.New(client, log)
		log.Info().Str("addr", addr).Str("database", path).Msg("serving corpus")
		if err := http.ListenAndServe(addr, srv.Router()); err != nil {
			exitWithError(exitError, "%v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (default :8765)")
}
