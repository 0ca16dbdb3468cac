// Package importer loads workout history from export files on disk.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/storage"
)

// Source identifies Alpha Progression imports in the import log.
const Source = "alpha_csv"

// Ingester turns one export stream into stored workouts.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, dryRun bool) (*ingest.Result, error)
}

// LogStore records one import_logs row per file.
type LogStore interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) error
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	ingest.Result
}

// Importer reads Alpha Progression exports (*.csv, *.csv.gz) from a file or
// directory.
type Importer struct {
	ingester Ingester
	logs     LogStore
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates an Importer. logs may be nil, and is never written in dry-run mode.
func New(ingester Ingester, logs LogStore, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{ingester: ingester, logs: logs, log: log, dryRun: dryRun}
}

// Import processes path, which may be a single export or a directory of them.
// A file that fails to parse is counted and skipped; a storage failure aborts.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	files, err := exportFiles(path)
	if err != nil {
		return &imp.stats, err
	}
	if len(files) == 0 {
		imp.log.Warn("no export files found", "path", path)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, f); err != nil {
			return &imp.stats, err
		}
	}
	imp.stats.DryRun = imp.dryRun
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	rc, err := OpenExport(path)
	if err != nil {
		imp.log.Warn("open failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	defer rc.Close()
	_, err = imp.ImportReader(ctx, filepath.Base(path), rc)
	return err
}

// ImportReader ingests one export stream, such as an HTTP upload, and logs
// it under name. A parse error is counted and reported in the returned
// result; only storage failures are returned as errors.
func (imp *Importer) ImportReader(ctx context.Context, name string, r io.Reader) (*ingest.Result, error) {
	start := time.Now()
	res, err := imp.ingester.Ingest(ctx, r, imp.dryRun)
	imp.record(ctx, name, res, err, time.Since(start))
	if err != nil {
		imp.stats.FilesErrored++
		if res == nil {
			// Parse errors leave nothing written; move on to the next file.
			imp.log.Warn("parse failed", "file", name, "error", err)
			return &ingest.Result{DryRun: imp.dryRun, Message: err.Error()}, nil
		}
		return res, fmt.Errorf("importing %s: %w", name, err)
	}

	imp.stats.FilesProcessed++
	imp.stats.Add(res)
	imp.log.Info("imported file",
		"file", name,
		"workouts_inserted", res.WorkoutsInserted,
		"workouts_skipped", res.WorkoutsSkipped,
	)
	return res, nil
}

// record writes the import_logs row for one file.
func (imp *Importer) record(ctx context.Context, name string, res *ingest.Result, importErr error, took time.Duration) {
	if imp.dryRun || imp.logs == nil {
		return
	}
	ms := int(took.Milliseconds())
	entry := storage.ImportLog{
		Source:     Source + ":" + name,
		Status:     "success",
		DurationMs: &ms,
	}
	if res != nil {
		entry.WorkoutsReceived = res.WorkoutsReceived
		entry.WorkoutsInserted = res.WorkoutsInserted
		entry.WorkoutsSkipped = res.WorkoutsSkipped
		entry.SetsInserted = res.SetsInserted
	}
	if importErr != nil {
		msg := importErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	if err := imp.logs.InsertImportLog(ctx, entry); err != nil {
		imp.log.Error("failed to log import", "file", name, "error", err)
	}
}

// exportFiles lists export files under path in name order.
func exportFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsExportFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// IsExportFile reports whether name looks like an Alpha Progression export.
func IsExportFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".csv") || strings.HasSuffix(lower, ".csv.gz")
}
