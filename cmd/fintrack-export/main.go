// Command fintrack-export writes the CSV sheet and JSON backup of the stored
// data to a directory, or restores a backup file into the store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

func main() {
	outDir := flag.String("out", ".", "directory the export files are written to")
	restore := flag.String("restore", "", "backup file to restore instead of exporting")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// Events are for the interactive server only.
	backendCfg.AMQPURL = ""

	ctx := context.Background()
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	tracker := services.NewTrackerService(store.NewRecords(res.Storage), nil, logger)

	if *restore != "" {
		err = runRestore(ctx, tracker, *restore)
	} else {
		err = runExport(ctx, tracker, *outDir)
	}
	if cerr := res.Cleanup(); cerr != nil {
		logger.Warn("Backend cleanup failed", log.FieldError, cerr)
	}
	if err != nil {
		logger.Error("fintrack-export failed", log.FieldError, err)
		os.Exit(1)
	}
}

func runExport(ctx context.Context, tracker *services.TrackerService, dir string) error {
	exp, err := tracker.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for name, body := range map[string][]byte{exp.CSVName: exp.CSV, exp.BackupName: exp.Backup} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Println(path)
	}
	return nil
}

func runRestore(ctx context.Context, tracker *services.TrackerService, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	b, err := export.ParseBackup(raw)
	if err != nil {
		return err
	}
	if err := tracker.Restore(ctx, b); err != nil {
		return err
	}
	fmt.Printf("restored %d transactions from %s\n", len(b.Transactions), path)
	return nil
}
