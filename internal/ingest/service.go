package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/tax-parser/constants"
	"github.com/joseph-ayodele/tax-parser/internal/async"
	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/pagecache"
	"github.com/joseph-ayodele/tax-parser/internal/repository"
)

// Service registers PDFs found on the local filesystem as tax forms and, when a
// queue is set, schedules them for parsing.
type Service struct {
	Forms  repository.TaxFormRepository
	Queue  async.Queue
	Logger *slog.Logger
}

func NewService(forms repository.TaxFormRepository, queue async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Forms: forms, Queue: queue, Logger: logger}
}

// RegisterPath is idempotent by absolute path. A second file whose stem matches
// an already registered form is rejected since both would share one cache entry.
func (s *Service) RegisterPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	if !AllowedExt(filepath.Ext(abs)) {
		return out, common.NewAppError("INVALID_INPUT", fmt.Sprintf("unsupported or missing extension: %q", filepath.Ext(abs)), common.ErrInvalidInput)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return out, common.NewAppError("INVALID_INPUT", abs+" is a directory", common.ErrInvalidInput)
	}

	existing, err := s.Forms.GetByPath(ctx, abs)
	switch {
	case err == nil:
		out.FormID = existing.ID.String()
		out.Deduplicated = true
		out.UploadedAt = existing.UploadedAt
		s.Logger.Debug("ingest.register.dedup", "path", abs, "form_id", existing.ID)
		return out, nil
	case !errors.Is(err, common.ErrNotFound):
		return out, err
	}

	if err := CheckStem(ctx, s.Forms, abs); err != nil {
		return out, err
	}

	form, err := s.Forms.Create(ctx, filepath.Base(abs), abs, time.Now())
	if err != nil {
		return out, err
	}
	out.FormID = form.ID.String()
	out.UploadedAt = form.UploadedAt
	s.Logger.Info("ingest.register.ok", "path", abs, "form_id", form.ID)

	if s.Queue != nil {
		out.Queued = s.enqueue(ctx, form.ID)
	}
	return out, nil
}

// enqueue marks the form QUEUED before handing it to the queue so a fast
// worker's RUNNING/PARSED is never overwritten.
func (s *Service) enqueue(ctx context.Context, id uuid.UUID) bool {
	if err := s.Forms.SetStatus(ctx, id, constants.FormStatusQueued, nil); err != nil {
		s.Logger.Warn("failed to mark form queued", "form_id", id, "error", err)
		return false
	}
	job := async.Job{FormID: id, SubmittedAt: time.Now(), TraceID: common.RequestIDFromContext(ctx)}
	if err := s.Queue.Enqueue(ctx, job); err != nil {
		s.Logger.Warn("failed to queue registered form", "form_id", id, "error", err)
		_ = s.Forms.SetStatus(context.WithoutCancel(ctx), id, constants.FormStatusUploaded, nil)
		return false
	}
	return true
}

// Resume queues every form left UPLOADED, QUEUED or RUNNING by an earlier process.
func (s *Service) Resume(ctx context.Context) (int, error) {
	if s.Queue == nil {
		return 0, nil
	}
	forms, err := s.Forms.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range forms {
		switch f.Status {
		case constants.FormStatusUploaded, constants.FormStatusQueued, constants.FormStatusRunning:
			if s.enqueue(ctx, f.ID) {
				n++
			}
		}
	}
	s.Logger.Info("ingest.resume", "queued", n)
	return n, nil
}

// CheckStem rejects path when a form registered from a different path has the
// same stem, since the two would share one page cache entry.
func CheckStem(ctx context.Context, forms repository.TaxFormRepository, path string) error {
	list, err := forms.List(ctx)
	if err != nil {
		return err
	}
	stem := pagecache.File{Path: path}.Stem()
	for _, f := range list {
		if f.FilePath == path {
			continue
		}
		if (pagecache.File{Path: f.FilePath}).Stem() == stem {
			return common.NewAppError("INVALID_INPUT",
				fmt.Sprintf("document %q is already registered from %s", stem, f.FilePath), common.ErrInvalidInput)
		}
	}
	return nil
}

// ScanDirectory walks root, skips hidden entries if requested, and registers
// every PDF. Per-file failures are reported in the results and do not stop the walk.
func (s *Service) ScanDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewAppError("INVALID_INPUT", "root path is required", common.ErrInvalidInput)
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := s.RegisterPath(ctx, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}
		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	s.Logger.Info("ingest.scan.done", "root", root,
		"scanned", stats.Scanned, "matched", stats.Matched, "succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated, "failed", stats.Failed)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// Watch registers every PDF the watcher reports until ctx ends.
func (s *Service) Watch(ctx context.Context, cfg WatchConfig) error {
	if cfg.Logger == nil {
		cfg.Logger = s.Logger
	}
	events, errs, err := StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case path, ok := <-events:
				if !ok {
					return
				}
				if _, err := s.RegisterPath(ctx, path); err != nil {
					s.Logger.Warn("ingest.watch.register_failed", "path", path, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				s.Logger.Warn("ingest.watch.error", "error", err)
			}
		}
	}()
	return nil
}

var _ Ingestor = (*Service)(nil)
