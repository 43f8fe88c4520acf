package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/log"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/x.db",
		DataDir:      "seed",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "fintrack",
		AMQPQueue:    "q",
	}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != SQLiteBackend || got.DataDirectory != "seed" || got.AMQPQueue != "q" {
		t.Errorf("unexpected config: %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "nope"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(quietLogger())
	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Publisher != nil {
		t.Error("publisher should be nil without AMQP URL")
	}
	if err := res.Storage.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := res.Storage.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Errorf("Get = %q, %v, %v", v, ok, err)
	}
	if err := res.Storage.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(quietLogger())
	res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "fintrack.db")})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if err := res.Storage.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := res.Storage.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}
