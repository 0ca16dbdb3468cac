// Package upload pushes Alpha Progression exports from a local folder, such
// as a synced phone backup directory, to a remote LiftLog server.
package upload

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/liftlog/internal/importer"
	"github.com/claude/liftlog/internal/ingest"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	WorkoutsInserted int
	WorkoutsSkipped  int
	SetsInserted     int
}

// Sender delivers one export to the server.
type Sender interface {
	SendExport(ctx context.Context, data []byte) (*ingest.Result, error)
}

// Uploader walks a directory tree and sends every export the server has not
// accepted yet.
type Uploader struct {
	sender Sender
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. sender may be nil in dry-run mode.
func New(sender Sender, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{sender: sender, state: state, dir: dir, dryRun: dryRun, log: log}
}

// Run uploads pending exports. A file the server rejects is counted and
// skipped; it is tried again on the next run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	err := filepath.WalkDir(u.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !importer.IsExportFile(d.Name()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		u.stats.FilesTotal++
		return u.uploadFile(ctx, path)
	})
	if err != nil {
		return &u.stats, fmt.Errorf("walking %s: %w", u.dir, err)
	}
	return &u.stats, nil
}

func (u *Uploader) uploadFile(ctx context.Context, path string) error {
	rel, err := filepath.Rel(u.dir, path)
	if err != nil {
		rel = path
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", rel, err)
	}

	done, err := u.state.IsUploaded(ctx, rel, info.Size(), hash)
	if err != nil {
		return err
	}
	if done {
		u.stats.FilesSkipped++
		u.log.Debug("already uploaded", "file", rel)
		return nil
	}

	data, err := readExport(path)
	if err != nil {
		u.log.Warn("read failed", "file", rel, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	if u.dryRun {
		u.log.Info("would upload", "file", rel, "bytes", len(data))
		u.stats.FilesUploaded++
		return nil
	}

	res, err := u.sender.SendExport(ctx, data)
	if err != nil {
		u.log.Warn("upload failed", "file", rel, "error", err)
		u.stats.FilesErrored++
		return nil
	}

	u.stats.FilesUploaded++
	u.stats.WorkoutsInserted += res.WorkoutsInserted
	u.stats.WorkoutsSkipped += res.WorkoutsSkipped
	u.stats.SetsInserted += res.SetsInserted
	u.log.Info("uploaded", "file", rel, "workouts_inserted", res.WorkoutsInserted, "workouts_skipped", res.WorkoutsSkipped)
	return u.state.MarkUploaded(ctx, rel, info.Size(), hash, res.WorkoutsInserted)
}

// readExport returns the plain CSV bytes of an export.
func readExport(path string) ([]byte, error) {
	rc, err := importer.OpenExport(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
