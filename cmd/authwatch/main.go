package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"authwatch/internal/config"
	"authwatch/internal/dashboard"
	"authwatch/internal/pipeline"
	"authwatch/internal/refdata"
	"authwatch/internal/sheets"
	"authwatch/internal/storage"
	"authwatch/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx := context.Background()

	cmd := os.Args[1]
	switch cmd {
	case "run":
		proc, err := makeProcessor(ctx, cfg, db)
		must(err)
		svc := watcher.NewService(cfg, db, proc)
		result, err := svc.RunWithRetry(ctx)
		must(err)
		fmt.Printf("run complete id=%d scraped=%d expanded=%d published=%d\n", result.RunID, result.Scraped, result.Expanded, result.Published)
	case "groups:list":
		client, err := sheets.NewClient(ctx, cfg)
		must(err)
		groups, err := client.LoadPracticeGroups(ctx)
		must(err)
		for _, g := range groups {
			fmt.Println(g)
		}
		fmt.Printf("%d practice groups marked run\n", len(groups))
	case "refdata:check":
		client := refdata.NewClient(cfg)
		rows, err := client.FetchRows(ctx)
		must(err)
		index := refdata.BuildIndex(rows)
		fmt.Printf("reference data ok rows=%d distinct locations=%d\n", len(rows), index.Len())
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs to list")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, run := range runs {
			finished := "-"
			if run.FinishedAt != nil {
				finished = *run.FinishedAt
			}
			fmt.Printf("run=%d trace=%s status=%s started=%s finished=%s counts=%s\n", run.ID, run.TraceID, run.Status, run.StartedAt, finished, run.CountsJSON)
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("runId", 0, "run id (default: latest)")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])

		id := *runID
		if id == 0 {
			latest, err := db.LatestRunID()
			must(err)
			if latest == nil {
				must(fmt.Errorf("no runs recorded yet"))
			}
			id = *latest
		}

		outputPath := *out
		if outputPath == "" {
			outputPath = filepath.Join(cfg.OutputDir, fmt.Sprintf("auth-failed-run-%d.xlsx", id))
		}

		rows, err := db.GetRunRows(id)
		must(err)
		must(pipeline.ExportRowsToXLSX(rows, outputPath))
		fmt.Printf("exported %d rows of run %d to %s\n", len(rows), id, outputPath)
	default:
		usage()
		os.Exit(1)
	}
}

func makeProcessor(ctx context.Context, cfg config.Config, db *storage.DB) (*pipeline.ProcessingService, error) {
	source, err := dashboard.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	sheetClient, err := sheets.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	reference := refdata.NewClient(cfg)
	return pipeline.NewProcessingService(cfg, db, source, reference, sheetClient, sheetClient), nil
}

func usage() {
	fmt.Println(`usage: authwatch <command> [flags]

commands:
  run            scrape, reconcile and publish once (with retries)
  groups:list    print the practice-group allow-list from the sheet
  refdata:check  fetch the reference CSV and report its size
  runs:list      list recorded runs [--limit]
  export:xlsx    export a run's report rows to xlsx [--runId --out]`)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
