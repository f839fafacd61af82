package snapshot

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// dateDirPrefix matches the dated subdirectories of a snapshot root.
	dateDirPrefix = "updated_date="

	// maxLineBytes bounds the scanner buffer. Works with very long reference
	// lists produce multi-megabyte lines.
	maxLineBytes = 64 * 1024 * 1024
)

// ListShards returns the gzipped shard files under a snapshot root, grouped
// by dated subdirectory. With newestFirst the dated directories are walked in
// reverse order so later snapshots win on replace-style upserts (sources);
// works use insert-if-absent semantics and take any stable order.
func ListShards(root string, newestFirst bool) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot directory: %w", err)
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), dateDirPrefix) {
			dates = append(dates, e.Name())
		}
	}
	sort.Strings(dates)
	if newestFirst {
		for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
			dates[i], dates[j] = dates[j], dates[i]
		}
	}

	var shards []string
	for _, d := range dates {
		matches, err := filepath.Glob(filepath.Join(root, d, "*.gz"))
		if err != nil {
			return nil, fmt.Errorf("globbing shards in %s: %w", d, err)
		}
		sort.Strings(matches)
		shards = append(shards, matches...)
	}
	return shards, nil
}

// ShardStats reports what happened while scanning one shard.
type ShardStats struct {
	Lines   int // non-empty lines seen
	Skipped int // lines the callback rejected as malformed
}

// EachLine decompresses a shard and invokes fn for each non-empty line. The
// callback returns ok=false to count the line as skipped (malformed);
// scanning continues, so a bad line never aborts the shard. A non-nil error
// from the callback stops the scan immediately and is returned as-is, so a
// store failure aborts the shard instead of being retried line by line.
//
// The sequence is restartable only from the first line: callers re-reading a
// partially processed shard rely on idempotent upserts downstream.
func EachLine(path string, fn func(line []byte) (ok bool, err error)) (ShardStats, error) {
	var stats ShardStats

	f, err := os.Open(path)
	if err != nil {
		return stats, fmt.Errorf("opening shard: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return stats, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 1024*1024), maxLineBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Lines++
		ok, err := fn(line)
		if err != nil {
			return stats, err
		}
		if !ok {
			stats.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scanning %s: %w", path, err)
	}
	return stats, nil
}
