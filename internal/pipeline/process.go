package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"authwatch/internal"
	"authwatch/internal/config"
	"authwatch/internal/history"
	"authwatch/internal/refdata"
	"authwatch/internal/storage"
)

// ConnectionSource delivers the raw scraped connection rows.
type ConnectionSource interface {
	FetchConnections(ctx context.Context) ([]internal.ConnectionRecord, error)
}

// ReferenceSource delivers the location reference dataset.
type ReferenceSource interface {
	FetchRows(ctx context.Context) ([]internal.ReferenceRow, error)
}

// GroupSource delivers the practice-group allow-list, un-normalized.
type GroupSource interface {
	LoadPracticeGroups(ctx context.Context) ([]string, error)
}

// Publisher receives the final report.
type Publisher interface {
	Publish(ctx context.Context, rows []internal.ReportRow, fetchedAt time.Time) error
}

type ProcessingService struct {
	cfg        config.Config
	db         *storage.DB
	source     ConnectionSource
	reference  ReferenceSource
	groups     GroupSource
	publisher  Publisher
	historyLog *history.Writer
}

func NewProcessingService(cfg config.Config, db *storage.DB, source ConnectionSource, reference ReferenceSource, groups GroupSource, publisher Publisher) *ProcessingService {
	return &ProcessingService{
		cfg:        cfg,
		db:         db,
		source:     source,
		reference:  reference,
		groups:     groups,
		publisher:  publisher,
		historyLog: history.NewWriter(cfg.HistoryPath),
	}
}

type RunResult struct {
	RunID     int64
	Scraped   int
	Expanded  int
	Published int
}

// RunOnce executes one full reconciliation run: allow-list and reference
// data first, then the scrape, then the in-memory pipeline, then
// persistence and publication. Every error propagates to the caller
// unmodified; retrying is the caller's concern.
func (s *ProcessingService) RunOnce(ctx context.Context) (RunResult, error) {
	start := time.Now()

	runID, err := s.db.InsertRun(traceID())
	if err != nil {
		return RunResult{}, err
	}
	fail := func(err error) (RunResult, error) {
		_ = s.db.FinishRun(runID, internal.RunStatusFailed, nil)
		return RunResult{RunID: runID}, err
	}

	allowedGroups, err := s.groups.LoadPracticeGroups(ctx)
	if err != nil {
		return fail(fmt.Errorf("load practice groups: %w", err))
	}
	fmt.Printf("run %d: %d practice groups allowed\n", runID, len(allowedGroups))

	referenceRows, err := s.reference.FetchRows(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch reference rows: %w", err))
	}
	index := refdata.BuildIndex(referenceRows)
	fmt.Printf("run %d: reference index built rows=%d locations=%d\n", runID, len(referenceRows), index.Len())

	records, err := s.source.FetchConnections(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch connections: %w", err))
	}

	for i := range records {
		records[i].Locations = NormalizeLocations(records[i].LocationsRaw)
	}

	var expanded []internal.ExpandedRow
	for _, record := range records {
		expanded = append(expanded, Expand(record, index)...)
	}

	byGroup := FilterByPracticeGroups(expanded, allowedGroups)
	byStatus, err := FilterByStatus(byGroup, s.cfg.TargetStatus)
	if err != nil {
		return fail(err)
	}
	kept := ExcludeSites(byStatus, s.cfg.ExcludedSites)
	report := Regroup(kept)

	fetchedAt := time.Now()
	if err := s.db.InsertReportRows(runID, report, fetchedAt.Format("2006-01-02 15:04:05")); err != nil {
		return fail(err)
	}

	if err := s.historyLog.Append(report, fetchedAt); err != nil {
		return fail(fmt.Errorf("append history: %w", err))
	}

	if err := s.publisher.Publish(ctx, report, fetchedAt); err != nil {
		return fail(fmt.Errorf("publish report: %w", err))
	}

	counts := map[string]int{
		"scraped":     len(records),
		"expanded":    len(expanded),
		"afterGroups": len(byGroup),
		"afterStatus": len(byStatus),
		"afterSites":  len(kept),
		"published":   len(report),
		"totalMs":     int(time.Since(start).Milliseconds()),
	}
	if err := s.db.FinishRun(runID, internal.RunStatusPublished, counts); err != nil {
		return RunResult{RunID: runID}, err
	}
	_ = s.db.SetMetadata("last_successful_run", fetchedAt.UTC().Format(time.RFC3339))

	return RunResult{
		RunID:     runID,
		Scraped:   len(records),
		Expanded:  len(expanded),
		Published: len(report),
	}, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
