package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/oalex/internal/ingest"
	"github.com/matsen/oalex/internal/store"
)

var flagBatchSize int

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load snapshot shards into the corpus database",
}

var ingestWorksCmd = &cobra.Command{
	Use:   "works [snapshot-dir]",
	Short: "Load the works shards (resumable)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, dir := mustOpenForIngest(args, "works")
		defer st.Close()

		res, err := ingest.Works(cmd.Context(), st, dir, ingest.Options{
			BatchSize: flagBatchSize,
			Logger:    newLogger(),
		})
		if err != nil {
			exitWithError(exitError, "ingesting works: %v", err)
		}
		printIngestResult("works", res)
	},
}

var ingestSourcesCmd = &cobra.Command{
	Use:   "sources [snapshot-dir]",
	Short: "Load the sources shards, newest first (resumable)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, dir := mustOpenForIngest(args, "sources")
		defer st.Close()

		res, err := ingest.Sources(cmd.Context(), st, dir, ingest.Options{
			BatchSize: flagBatchSize,
			Logger:    newLogger(),
		})
		if err != nil {
			exitWithError(exitError, "ingesting sources: %v", err)
		}
		printIngestResult("sources", res)
	},
}

func init() {
	ingestCmd.PersistentFlags().IntVar(&flagBatchSize, "batch-size", 5000,
		"records per transaction")
	ingestCmd.PersistentFlags().StringVar(&flagSnapshotDir, "snapshot-dir", "",
		"snapshot root directory")
	ingestCmd.AddCommand(ingestWorksCmd, ingestSourcesCmd)
}

// mustOpenForIngest resolves the shard directory and opens the database for
// writing, creating it if absent.
func mustOpenForIngest(args []string, entity string) (*store.Store, string) {
	cfg, err := loadConfig()
	if err != nil {
		exitWithError(exitConfig, "%v", err)
	}

	dir := ""
	if len(args) > 0 {
		dir = args[0]
	} else if cfg.SnapshotDir != "" {
		dir = filepath.Join(cfg.SnapshotDir, entity)
	}
	if dir == "" {
		exitWithError(exitConfig, "no snapshot directory given; pass it as an argument or set OALEX_SNAPSHOT_DIR")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		exitWithError(exitData, "snapshot directory %s is not readable", dir)
	}

	path, err := cfg.ResolveDatabase(false)
	if err != nil {
		exitWithError(exitConfig, "%v", err)
	}
	st, err := store.Open(path)
	if err != nil {
		exitWithError(exitError, "%v", err)
	}
	return st, dir
}

func printIngestResult(entity string, res *ingest.Result) {
	if !flagHuman {
		outputJSON(res)
		return
	}
	fmt.Printf("%s: %d shards (%d loaded, %d already done), %d records, %d inserted, %d malformed\n",
		entity, res.ShardsTotal, res.ShardsLoaded, res.ShardsSkipped,
		res.Records, res.Inserted, res.Malformed)
}
