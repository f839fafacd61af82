// Command oalex builds and queries a local OpenAlex corpus: snapshot
// ingestion, full-text indexing, citation graph construction, Impact-Factor
// analytics, and an HTTP relay for remote access.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/oalex/internal/config"
)

var (
	flagConfig      string
	flagDB          string
	flagMode        string
	flagRemoteURL   string
	flagSnapshotDir string
	flagWindow      int
	flagHuman       bool
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "oalex",
	Short:         "Local OpenAlex corpus: ingest, index, and query scholarly works",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file path")
	pf.StringVar(&flagDB, "db", "", "corpus database path")
	pf.StringVar(&flagMode, "mode", "", "client mode: local or remote")
	pf.StringVar(&flagRemoteURL, "remote-url", "", "relay server URL for remote mode")
	pf.IntVar(&flagWindow, "window", 0, "impact factor window in years (2 or 5)")
	pf.BoolVar(&flagHuman, "human", false, "human-readable output instead of JSON")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "verbose progress logging")

	rootCmd.AddCommand(
		ingestCmd,
		indexCmd,
		citationsCmd,
		impactCmd,
		searchCmd,
		countCmd,
		getCmd,
		existsCmd,
		statusCmd,
		serveCmd,
	)
}

// loadConfig resolves configuration once, from the persistent flags down.
func loadConfig() (*config.Config, error) {
	return config.Load(config.Flags{
		ConfigPath:   flagConfig,
		Mode:         flagMode,
		DatabasePath: flagDB,
		RemoteURL:    flagRemoteURL,
		SnapshotDir:  flagSnapshotDir,
		Window:       flagWindow,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}
