package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"authwatch/internal/config"
	"authwatch/internal/pipeline"
	"authwatch/internal/storage"
)

// Service drives the reconciliation pipeline: a bounded retry policy
// around each run, and an optional interval loop for daemon mode. The
// pipeline itself carries no retry logic; it lives here.
type Service struct {
	cfg  config.Config
	db   *storage.DB
	proc *pipeline.ProcessingService
}

func NewService(cfg config.Config, db *storage.DB, proc *pipeline.ProcessingService) *Service {
	return &Service{cfg: cfg, db: db, proc: proc}
}

// RunWithRetry executes one run, retrying collaborator failures up to the
// configured attempt count with a fixed back-off.
func (s *Service) RunWithRetry(ctx context.Context) (pipeline.RunResult, error) {
	attempts := s.cfg.RunMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Duration(s.cfg.RunRetryBackoffSec) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		fmt.Printf("run attempt %d of %d\n", attempt, attempts)
		result, err := s.proc.RunOnce(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		fmt.Printf("run attempt %d failed: %v\n", attempt, err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return pipeline.RunResult{}, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return pipeline.RunResult{}, fmt.Errorf("all %d run attempts failed: %w", attempts, lastErr)
}

// Run loops forever, one RunWithRetry per interval, until the context is
// cancelled. A failed cycle is reported and the loop continues.
func (s *Service) Run(ctx context.Context) error {
	for {
		result, err := s.RunWithRetry(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Printf("watch cycle error: %v\n", err)
		} else {
			fmt.Printf("watch cycle done run=%d scraped=%d published=%d\n", result.RunID, result.Scraped, result.Published)
			if s.cfg.WatchAutoExportXLSX {
				if err := s.exportRun(result.RunID); err != nil {
					fmt.Printf("watch cycle export error: %v\n", err)
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

func (s *Service) exportRun(runID int64) error {
	rows, err := s.db.GetRunRows(runID)
	if err != nil {
		return err
	}
	out := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("auth-failed-run-%d.xlsx", runID))
	if err := pipeline.ExportRowsToXLSX(rows, out); err != nil {
		return err
	}
	fmt.Printf("exported run %d to %s\n", runID, out)
	return nil
}
