package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned when Run is called while an ingest run is
// already active.
var ErrRunInProgress = errors.New("ingest already in progress")

// FileIngester is satisfied by *Ingestor.
type FileIngester interface {
	IngestFile(ctx context.Context, path string) FileResult
}

// Truncater is satisfied by *store.Store.
type Truncater interface {
	TruncateAll(ctx context.Context) error
}

// Coordinator runs ingest passes over the data directory: one run at a
// time, files processed by a bounded worker pool, per-file results
// retained. Readiness means the last run completed without errors.
type Coordinator struct {
	ingester FileIngester
	db       Truncater
	dataDir  string
	workers  int

	// OnComplete, when set, is called after a run finishes with StatusOK.
	// Used to invalidate the query cache.
	OnComplete func(ctx context.Context)

	runInProgress atomic.Bool
	lastResult    *RunResult
	resultMu      sync.RWMutex
}

// NewCoordinator constructs a Coordinator over dataDir with at most
// workers concurrent file ingests.
func NewCoordinator(ingester FileIngester, db Truncater, dataDir string, workers int) *Coordinator {
	if workers <= 0 {
		workers = 1
	}
	return &Coordinator{
		ingester: ingester,
		db:       db,
		dataDir:  dataDir,
		workers:  workers,
	}
}

// Run ingests every CSV file in the data directory. When clear is set the
// vote tables are truncated first, reproducing a full reload. A failing
// file is recorded in the result but does not cancel its siblings. Returns
// ErrRunInProgress if a run is already active.
func (c *Coordinator) Run(ctx context.Context, clear bool) (*RunResult, error) {
	if !c.runInProgress.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer c.runInProgress.Store(false)

	ctx, span := otel.Tracer("veleitoral-api").Start(ctx, "ingest.run")
	defer span.End()

	slog.InfoContext(ctx, "ingest started", "data_dir", c.dataDir, "clear", clear)

	result := &RunResult{
		Status: StatusInProgress,
		Files:  make(map[string]FileResult),
	}

	if clear {
		if err := c.db.TruncateAll(ctx); err != nil {
			span.SetStatus(codes.Error, "truncate failed")
			return nil, fmt.Errorf("clearing vote tables: %w", err)
		}
	}

	files, err := c.listCSVs()
	if err != nil {
		span.SetStatus(codes.Error, "listing data dir failed")
		return nil, err
	}

	// Plain errgroup (no derived context): a failing file must not cancel
	// the context its siblings are ingesting under.
	var g errgroup.Group
	g.SetLimit(c.workers)

	for _, path := range files {
		g.Go(func() error {
			fr := c.ingester.IngestFile(ctx, path)
			logFile(ctx, fr)
			result.Lock()
			result.Files[fr.Name] = fr
			result.RowsImported += fr.Rows
			result.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result.Status = StatusOK
	for _, fr := range result.Files {
		if fr.Status == StatusError {
			result.Status = StatusError
			break
		}
	}

	span.SetAttributes(
		attribute.String("ingest.status", result.Status),
		attribute.Int64("ingest.rows", result.RowsImported),
		attribute.Int("ingest.files", len(result.Files)),
	)
	if result.Status == StatusError {
		span.SetStatus(codes.Error, "one or more files failed to ingest")
		slog.WarnContext(ctx, "ingest completed with errors", "rows", result.RowsImported)
	} else {
		span.SetStatus(codes.Ok, "")
		slog.InfoContext(ctx, "ingest completed", "rows", result.RowsImported, "files", len(result.Files))
	}

	c.resultMu.Lock()
	c.lastResult = result
	c.resultMu.Unlock()

	if result.Status == StatusOK && c.OnComplete != nil {
		c.OnComplete(ctx)
	}

	return result, nil
}

// InProgress returns true while an ingest run is active.
func (c *Coordinator) InProgress() bool {
	return c.runInProgress.Load()
}

// Ready returns true if the last run completed with StatusOK.
func (c *Coordinator) Ready() bool {
	c.resultMu.RLock()
	defer c.resultMu.RUnlock()
	return c.lastResult != nil && c.lastResult.Status == StatusOK
}

// listCSVs returns the CSV files in the data directory, any case of the
// extension. A missing directory yields an empty run, not an error — the
// volume may simply not be mounted yet.
func (c *Coordinator) listCSVs() ([]string, error) {
	entries, err := os.ReadDir(c.dataDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.dataDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(c.dataDir, e.Name()))
		}
	}
	return files, nil
}

// logFile emits a trace-correlated log for one file's result. Errors log
// at WARN so they are visible without being fatal.
func logFile(ctx context.Context, fr FileResult) {
	switch fr.Status {
	case StatusOK:
		slog.InfoContext(ctx, "file ingested", "file", fr.Name, "type", fr.Type, "rows", fr.Rows)
	case StatusSkipped:
		slog.InfoContext(ctx, "file skipped", "file", fr.Name)
	default:
		slog.WarnContext(ctx, "file ingest failed", "file", fr.Name, "error", fr.Error)
	}
}
