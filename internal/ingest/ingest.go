package ingest

import (
	"context"
	"time"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	FormID       string
	Deduplicated bool
	Queued       bool
	UploadedAt   time.Time
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the server and daemon depend on.
type Ingestor interface {
	// RegisterPath registers a single PDF as a tax form.
	RegisterPath(ctx context.Context, path string) (IngestionResult, error)
	// ScanDirectory registers every PDF under root.
	ScanDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
