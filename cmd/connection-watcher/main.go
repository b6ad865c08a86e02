package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source, err := dashboard.NewClient(cfg)
	must(err)
	sheetClient, err := sheets.NewClient(ctx, cfg)
	must(err)
	reference := refdata.NewClient(cfg)

	proc := pipeline.NewProcessingService(cfg, db, source, reference, sheetClient, sheetClient)
	svc := watcher.NewService(cfg, db, proc)

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
