package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/oalex/internal/api"
	"github.com/matsen/oalex/internal/config"
)

var flagCitation string

var getCmd = &cobra.Command{
	Use:   "get <id-or-doi>...",
	Short: "Fetch works by OpenAlex ID or DOI",
	Long: `Fetch one or more works by bare OpenAlex ID (W2741809807) or DOI
(10.7717/peerj.4375). With several identifiers the lookup is a batch:
missing works are reported, found works are returned.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustOpenClient()
		defer client.Close()

		if len(args) == 1 {
			work, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				exitWithError(exitError, "%v", err)
			}
			if work == nil {
				exitWithError(exitData, "work %s not found", args[0])
			}
			switch flagCitation {
			case "":
				outputJSON(work)
			case "apa":
				fmt.Println(work.CitationAPA())
			case "bibtex":
				fmt.Println(work.CitationBibTeX())
			default:
				exitWithError(exitConfig, "unknown citation style %q (want apa or bibtex)", flagCitation)
			}
			return
		}

		works, err := client.GetMany(cmd.Context(), args)
		if err != nil {
			exitWithError(exitError, "%v", err)
		}
		outputJSON(map[string]any{
			"requested": len(args),
			"found":     len(works),
			"results":   works,
		})
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists <id-or-doi>",
	Short: "Check whether a work is in the corpus",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustOpenClient()
		defer client.Close()

		ok, err := client.Exists(cmd.Context(), args[0])
		if err != nil {
			exitWithError(exitError, "%v", err)
		}
		if flagHuman {
			fmt.Println(ok)
		} else {
			outputJSON(map[string]bool{"exists": ok})
		}
		if !ok {
			// Scripted callers branch on the exit code.
			os.Exit(exitData)
		}
	},
}

func init() {
	getCmd.Flags().StringVar(&flagCitation, "citation", "",
		"format a single work as a citation: apa or bibtex")
}

// mustOpenClient builds the configured Client: embedded store in local mode,
// HTTP relay in remote mode.
func mustOpenClient() api.Client {
	cfg, err := loadConfig()
	if err != nil {
		exitWithError(exitConfig, "%v", err)
	}

	if cfg.Mode == config.ModeRemote {
		return api.NewRemote(cfg.RemoteURL)
	}

	path, err := cfg.ResolveDatabase(true)
	if err != nil {
		exitWithError(exitConfig, "%v", err)
	}
	client, err := api.OpenLocal(path, cfg.Window, newLogger())
	if err != nil {
		exitWithError(exitError, "%v", err)
	}
	return client
}
