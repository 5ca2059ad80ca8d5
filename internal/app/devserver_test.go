package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/config"
)

func TestDevServerStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.DevAddr = "127.0.0.1:0"
	logger := zerolog.Nop()

	srv := NewDevServer(cfg, &logger)
	if srv.Addr() != "127.0.0.1:0" {
		t.Fatalf("unexpected addr %q", srv.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("dev server did not stop")
	}
}
