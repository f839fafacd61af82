// Package ingest drives the resumable batch load of snapshot shards into the
// corpus store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/matsen/oalex/internal/corpus"
	"github.com/matsen/oalex/internal/snapshot"
	"github.com/matsen/oalex/internal/store"
)

// Options tunes a load run.
type Options struct {
	BatchSize int // records per transaction; default 5000
	Logger    zerolog.Logger
}

func (o *Options) batchSize() int {
	if o.BatchSize <= 0 {
		return 5000
	}
	return o.BatchSize
}

// Result summarizes one load run.
type Result struct {
	ShardsTotal   int `json:"shards_total"`
	ShardsSkipped int `json:"shards_skipped"` // already completed in a prior run
	ShardsLoaded  int `json:"shards_loaded"`
	Records       int `json:"records"`
	Inserted      int `json:"inserted"`
	Malformed     int `json:"malformed"`
}

// progress throttles the periodic rate/ETA log lines so telemetry stays a
// few lines per second no matter how fast records flow.
type progress struct {
	log     zerolog.Logger
	limiter *rate.Limiter
	started time.Time
	total   int
}

func newProgress(log zerolog.Logger, totalShards int) *progress {
	return &progress{
		log:     log,
		limiter: rate.NewLimiter(rate.Every(5*time.Second), 1),
		started: time.Now(),
		total:   totalShards,
	}
}

func (p *progress) record(shardsDone, records int) {
	if !p.limiter.Allow() {
		return
	}
	elapsed := time.Since(p.started).Seconds()
	perSec := 0.0
	if elapsed > 0 {
		perSec = float64(records) / elapsed
	}
	ev := p.log.Info().
		Int("shards_done", shardsDone).
		Int("shards_total", p.total).
		Int("records", records).
		Float64("records_per_sec", perSec)
	if shardsDone > 0 && p.total > shardsDone {
		perShard := time.Since(p.started) / time.Duration(shardsDone)
		ev = ev.Dur("eta", perShard*time.Duration(p.total-shardsDone))
	}
	ev.Msg("loading")
}

// Works loads the works shards under dir. Completed shards are skipped via
// the checkpoint table; within a shard, records accumulate into batches and
// each batch commits as one transaction. A shard is checkpointed only after
// its final batch commits. Malformed lines are counted and skipped; store
// errors abort the run.
func Works(ctx context.Context, st *store.Store, dir string, opts Options) (*Result, error) {
	shards, err := snapshot.ListShards(dir, false)
	if err != nil {
		return nil, err
	}
	done, err := st.CompletedShards(store.WorksShards)
	if err != nil {
		return nil, err
	}

	res := &Result{ShardsTotal: len(shards)}
	prog := newProgress(opts.Logger, len(shards))

	for _, shard := range shards {
		if done[shard] {
			res.ShardsSkipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		batch := make([]corpus.Work, 0, opts.batchSize())
		flush := func() error {
			n, err := st.InsertWorks(batch)
			if err != nil {
				return err
			}
			res.Inserted += n
			batch = batch[:0]
			return nil
		}

		// A flush error aborts the shard scan at once: a store-level write
		// failure is fatal for the run, and re-invoking the coordinator is
		// the retry mechanism.
		stats, err := snapshot.EachLine(shard, func(line []byte) (bool, error) {
			var rec snapshot.WorkRecord
			if err := json.Unmarshal(line, &rec); err != nil || rec.ID == "" {
				return false, nil
			}
			batch = append(batch, snapshot.NormalizeWork(&rec))
			if len(batch) >= opts.batchSize() {
				if err := flush(); err != nil {
					return true, err
				}
			}
			return true, nil
		})
		if err != nil {
			return res, err
		}
		if err := flush(); err != nil {
			return res, err
		}
		if err := st.MarkShardDone(store.WorksShards, shard, stats.Lines); err != nil {
			return res, err
		}

		res.ShardsLoaded++
		res.Records += stats.Lines
		res.Malformed += stats.Skipped
		opts.Logger.Debug().Str("shard", filepath.Base(shard)).
			Int("lines", stats.Lines).Int("malformed", stats.Skipped).
			Msg("shard complete")
		prog.record(res.ShardsSkipped+res.ShardsLoaded, res.Records)
	}

	if res.ShardsSkipped+res.ShardsLoaded == res.ShardsTotal && res.ShardsTotal > 0 {
		max, err := st.MaxWorkRowID()
		if err != nil {
			return res, err
		}
		if err := st.SetMeta("total_works", fmt.Sprintf("%d", max)); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Sources loads the sources shards under dir, newest dated directory first
// so the freshest record for each source wins. Structure mirrors Works with
// its own checkpoint table.
func Sources(ctx context.Context, st *store.Store, dir string, opts Options) (*Result, error) {
	shards, err := snapshot.ListShards(dir, true)
	if err != nil {
		return nil, err
	}
	done, err := st.CompletedShards(store.SourcesShards)
	if err != nil {
		return nil, err
	}

	res := &Result{ShardsTotal: len(shards)}
	prog := newProgress(opts.Logger, len(shards))

	for _, shard := range shards {
		if done[shard] {
			res.ShardsSkipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		batch := make([]corpus.Source, 0, opts.batchSize())
		flush := func() error {
			n, err := st.UpsertSources(batch)
			if err != nil {
				return err
			}
			res.Inserted += n
			batch = batch[:0]
			return nil
		}

		stats, err := snapshot.EachLine(shard, func(line []byte) (bool, error) {
			var rec snapshot.SourceRecord
			if err := json.Unmarshal(line, &rec); err != nil || rec.ID == "" {
				return false, nil
			}
			batch = append(batch, snapshot.NormalizeSource(&rec))
			if len(batch) >= opts.batchSize() {
				if err := flush(); err != nil {
					return true, err
				}
			}
			return true, nil
		})
		if err != nil {
			return res, err
		}
		if err := flush(); err != nil {
			return res, err
		}
		if err := st.MarkShardDone(store.SourcesShards, shard, stats.Lines); err != nil {
			return res, err
		}

		res.ShardsLoaded++
		res.Records += stats.Lines
		res.Malformed += stats.Skipped
		prog.record(res.ShardsSkipped+res.ShardsLoaded, res.Records)
	}

	if res.ShardsLoaded > 0 {
		n, err := st.RebuildISSNLookup()
		if err != nil {
			return res, err
		}
		opts.Logger.Info().Int("issns", n).Msg("issn lookup rebuilt")
	}
	return res, nil
}
