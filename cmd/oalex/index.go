package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/oalex/internal/fts"
	"github.com/matsen/oalex/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the full-text search index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the FTS index from the works table",
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenDatabase()
		defer st.Close()

		idx := fts.New(st, newLogger())
		if err := idx.Create(); err != nil {
			exitWithError(exitError, "%v", err)
		}
		n, err := idx.Populate(0)
		if err != nil {
			exitWithError(exitError, "%v", err)
		}

		if flagHuman {
			fmt.Printf("indexed %d works\n", n)
			return
		}
		outputJSON(map[string]int64{"indexed": n})
	},
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)
}

// mustOpenDatabase opens an existing corpus database or exits.
func mustOpenDatabase() *store.Store {
	cfg, err := loadConfig()
	if err != nil {
		exitWithError(exitConfig, "%v", err)
	}
	path, err := cfg.ResolveDatabase(true)
	if err != nil {
		exitWithError(exitConfig, "%v", err)
	}
	st, err := store.Open(path)
	if err != nil {
		exitWithError(exitError, "%v", err)
	}
	return st
}
