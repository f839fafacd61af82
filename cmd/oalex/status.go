package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the corpus: totals for works, citations, and the FTS index",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustOpenClient()
		defer client.Close()

		st, err := client.Status(cmd.Context())
		if err != nil {
			exitWithError(exitError, "%v", err)
		}

		if !flagHuman {
			outputJSON(st)
			return
		}
		if st.RemoteURL != "" {
			fmt.Printf("remote:    %s\n", st.RemoteURL)
		} else {
			fmt.Printf("database:  %s\n", st.DatabasePath)
		}
		fmt.Printf("works:     %d\n", st.TotalWorks)
		fmt.Printf("citations: %d\n", st.TotalCitations)
		fmt.Printf("indexed:   %d\n", st.FTSIndexed)
	},
}
