package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/oalex/internal/citegraph"
)

var citationsCmd = &cobra.Command{
	Use:   "citations",
	Short: "Maintain the citation graph",
}

var citationsBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build citation edges from stored reference lists (resumable)",
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenDatabase()
		defer st.Close()
		log := newLogger()

		// ref_count must be populated before the Impact-Factor queries can
		// filter citable items; doing it here keeps the pipeline two-step.
		updated, err := st.PopulateRefCounts(0)
		if err != nil {
			exitWithError(exitError, "%v", err)
		}
		log.Info().Int64("updated", updated).Msg("ref counts populated")
		if err := st.CreateRefCountIndexes(); err != nil {
			exitWithError(exitError, "%v", err)
		}

		b := citegraph.New(st, log)
		res, err := b.Build(cmd.Context())
		if err != nil {
			exitWithError(exitError, "%v", err)
		}
		if err := b.CreateIndexes(); err != nil {
			exitWithError(exitError, "%v", err)
		}

		if flagHuman {
			fmt.Printf("scanned %d works, %d citation edges\n", res.WorksScanned, res.Edges)
			return
		}
		outputJSON(res)
	},
}

func init() {
	citationsCmd.AddCommand(citationsBuildCmd)
}
