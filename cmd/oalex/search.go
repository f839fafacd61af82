package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagLimit  int
	flagOffset int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Full-text search over titles, abstracts, and authors",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustOpenClient()
		defer client.Close()

		query := strings.Join(args, " ")
		result, err := client.Search(cmd.Context(), query, flagLimit, flagOffset)
		if err != nil {
			exitWithError(exitError, "%v", err)
		}

		if !flagHuman {
			outputJSON(result)
			return
		}
		fmt.Printf("%d matches for %q (%.1f ms)\n", result.Total, result.Query, result.ElapsedMS)
		for i, w := range result.Works {
			line := w.Title
			if w.Year > 0 {
				line = fmt.Sprintf("%s (%d)", line, w.Year)
			}
			if w.Source != "" {
				line += " — " + w.Source
			}
			fmt.Printf("%3d. [%s] %s\n", flagOffset+i+1, w.OpenAlexID, line)
		}
	},
}

var countCmd = &cobra.Command{
	Use:   "count <query>...",
	Short: "Count full-text matches without fetching them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustOpenClient()
		defer client.Close()

		query := strings.Join(args, " ")
		n, err := client.Count(cmd.Context(), query)
		if err != nil {
			exitWithError(exitError, "%v", err)
		}

		if flagHuman {
			fmt.Println(n)
			return
		}
		outputJSON(map[string]any{"query": query, "count": n})
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagLimit, "limit", 10, "results per page")
	searchCmd.Flags().IntVar(&flagOffset, "offset", 0, "pagination offset")
}
