package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"authwatch/internal"
	"authwatch/internal/config"
	"authwatch/internal/pipeline"
	"authwatch/internal/storage"
)

type flakyGroups struct {
	failures int
	calls    int
}

func (f *flakyGroups) LoadPracticeGroups(context.Context) ([]string, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("sheet unavailable")
	}
	return []string{"GroupX"}, nil
}

type emptySource struct{}

func (emptySource) FetchConnections(context.Context) ([]internal.ConnectionRecord, error) {
	return nil, nil
}

type emptyReference struct{}

func (emptyReference) FetchRows(context.Context) ([]internal.ReferenceRow, error) {
	return nil, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, []internal.ReportRow, time.Time) error {
	return nil
}

func TestRunWithRetryRecovers(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "authwatch.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg, _ := config.Load()
	cfg.HistoryPath = filepath.Join(tmp, "history.csv")
	cfg.RunMaxAttempts = 3
	cfg.RunRetryBackoffSec = 0

	groups := &flakyGroups{failures: 2}
	proc := pipeline.NewProcessingService(cfg, db, emptySource{}, emptyReference{}, groups, nopPublisher{})
	svc := NewService(cfg, db, proc)

	result, err := svc.RunWithRetry(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if groups.calls != 3 {
		t.Fatalf("calls=%d", groups.calls)
	}
	if result.Published != 0 {
		t.Fatalf("published=%d", result.Published)
	}
}

func TestRunWithRetryExhaustsAttempts(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "authwatch.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg, _ := config.Load()
	cfg.HistoryPath = filepath.Join(tmp, "history.csv")
	cfg.RunMaxAttempts = 2
	cfg.RunRetryBackoffSec = 0

	groups := &flakyGroups{failures: 10}
	proc := pipeline.NewProcessingService(cfg, db, emptySource{}, emptyReference{}, groups, nopPublisher{})
	svc := NewService(cfg, db, proc)

	if _, err := svc.RunWithRetry(context.Background()); err == nil {
		t.Fatal("want error")
	}
	if groups.calls != 2 {
		t.Fatalf("calls=%d", groups.calls)
	}

	// Each attempt leaves a failed run row behind.
	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs=%d", len(runs))
	}
	for _, run := range runs {
		if run.Status != internal.RunStatusFailed {
			t.Fatalf("run status=%q", run.Status)
		}
	}
}
