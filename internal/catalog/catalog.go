// Package catalog discovers the BAM input queue and fixes the
// array-index to file mapping.
package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/me/ichorgen/pkg/model"
)

// Extension is the alignment-file suffix eligible for discovery.
// Index companions (.bai) are produced per task and never enqueued.
const Extension = ".bam"

// Entry is one input file with its fixed array index. Entries are
// created once at generation time and never mutated.
type Entry struct {
	Index  int
	Path   string // absolute
	Sample string // base name without the extension
	Size   int64
}

// Build discovers all eligible files directly under inputDir, orders
// them lexicographically by path and assigns indexes 0..n-1. The
// ordering is a pure function of directory contents, so re-running
// against an unchanged directory yields the identical index-to-file
// mapping. Discovery is non-recursive: nested subdirectories (archive
// folders, tmp or output trees placed under the input dir) never
// leak into the queue, and flat discovery also guarantees sample
// names are unique, since they derive from file names within a
// single directory.
//
// Admission control is a hard gate: zero files or more than maxQueue
// files fail with a CATALOG_ERROR, never a truncated queue.
func Build(inputDir string, maxQueue int, logger *slog.Logger) ([]Entry, error) {
	log := logger.With("component", "catalog")

	absDir, err := filepath.Abs(inputDir)
	if err != nil {
		return nil, model.NewCatalogError("resolve input dir %s: %v", inputDir, err)
	}

	dirEntries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, model.NewCatalogError("read input dir %s: %v", absDir, err)
	}

	var entries []Entry
	var totalSize int64
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), Extension) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, model.NewCatalogError("stat %s: %v", de.Name(), err)
		}
		entries = append(entries, Entry{
			Path:   filepath.Join(absDir, de.Name()),
			Sample: strings.TrimSuffix(de.Name(), Extension),
			Size:   info.Size(),
		})
		totalSize += info.Size()
	}

	if len(entries) == 0 {
		return nil, model.NewCatalogError("no %s files found in %s", Extension, absDir)
	}
	if len(entries) > maxQueue {
		return nil, model.NewCatalogError(
			"discovered %d files in %s, exceeding max_queue of %d", len(entries), absDir, maxQueue)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	for i := range entries {
		entries[i].Index = i
	}

	log.Info("discovered input files",
		"dir", absDir,
		"count", len(entries),
		"total_size", humanize.Bytes(uint64(totalSize)))

	return entries, nil
}
