package snapshot

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeShard writes lines into a gzipped shard under dir/updated_date=<date>.
func writeShard(t *testing.T, root, date, name string, lines []string) string {
	t.Helper()

	dir := filepath.Join(root, dateDirPrefix+date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListShardsOrdering(t *testing.T) {
	root := t.TempDir()
	writeShard(t, root, "2024-03-15", "part_000.gz", []string{"{}"})
	writeShard(t, root, "2024-01-10", "part_000.gz", []string{"{}"})
	writeShard(t, root, "2024-01-10", "part_001.gz", []string{"{}"})

	oldest, err := ListShards(root, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(oldest) != 3 {
		t.Fatalf("got %d shards, want 3", len(oldest))
	}
	if !strings.Contains(oldest[0], "2024-01-10") {
		t.Errorf("oldest-first: first shard %s", oldest[0])
	}

	newest, err := ListShards(root, true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(newest[0], "2024-03-15") {
		t.Errorf("newest-first: first shard %s", newest[0])
	}
	// Within a dated directory the shard order stays lexical.
	if !strings.HasSuffix(newest[1], "part_000.gz") || !strings.HasSuffix(newest[2], "part_001.gz") {
		t.Errorf("in-directory order: %v", newest[1:])
	}
}

func TestEachLineSkipsMalformed(t *testing.T) {
	root := t.TempDir()
	path := writeShard(t, root, "2024-01-01", "part_000.gz", []string{
		`{"id": "W1"}`,
		"",
		"   ",
		"not json",
		`{"id": "W2"}`,
	})

	var ids []string
	stats, err := EachLine(path, func(line []byte) (bool, error) {
		if !strings.HasPrefix(string(line), "{") {
			return false, nil
		}
		ids = append(ids, string(line))
		return true, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Lines != 3 {
		t.Errorf("Lines = %d, want 3 (blank lines excluded)", stats.Lines)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
	if len(ids) != 2 {
		t.Errorf("accepted %d lines, want 2", len(ids))
	}
}

func TestEachLineMissingFile(t *testing.T) {
	if _, err := EachLine(filepath.Join(t.TempDir(), "absent.gz"), nil); err == nil {
		t.Error("expected error for missing shard")
	}
}

func TestEachLineStopsOnCallbackError(t *testing.T) {
	root := t.TempDir()
	path := writeShard(t, root, "2024-01-01", "part_000.gz", []string{
		`{"id": "W1"}`,
		`{"id": "W2"}`,
		`{"id": "W3"}`,
	})

	boom := errors.New("write failed")
	var seen int
	stats, err := EachLine(path, func(line []byte) (bool, error) {
		seen++
		if seen == 2 {
			return true, boom
		}
		return true, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want the callback error surfaced unwrapped", err)
	}
	if seen != 2 {
		t.Errorf("callback invoked %d times, want scan to stop at the failure", seen)
	}
	if stats.Lines != 2 {
		t.Errorf("Lines = %d, want 2", stats.Lines)
	}
}
