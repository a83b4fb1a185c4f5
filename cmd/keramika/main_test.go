package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/erazemk/keramika/internal/auth"
	"github.com/erazemk/keramika/internal/config"
	"github.com/erazemk/keramika/internal/db"
	"github.com/erazemk/keramika/internal/kv"
)

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(&levelRouter{
		stdout: slog.NewTextHandler(&stdout, nil),
		stderr: slog.NewTextHandler(&stderr, nil),
	})

	logger.Info("hello")
	logger.Warn("careful")
	logger.Error("broken")
	logger.Debug("hidden")

	if !strings.Contains(stdout.String(), "hello") || !strings.Contains(stdout.String(), "careful") {
		t.Errorf("expected info and warn on stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "broken") || !strings.Contains(stderr.String(), "broken") {
		t.Errorf("expected error only on stderr, got stdout %q stderr %q", stdout.String(), stderr.String())
	}
	if strings.Contains(stdout.String()+stderr.String(), "hidden") {
		t.Error("debug records should be dropped")
	}
}

func TestHashPassword(t *testing.T) {
	var out bytes.Buffer
	if err := hashPassword(nil, strings.NewReader("tajna\n"), &out); err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if !auth.CheckPassword(hash, "tajna") {
		t.Errorf("hash %q does not match password", hash)
	}

	if err := hashPassword([]string{"a", "b"}, nil, &out); err == nil {
		t.Error("expected error for extra arguments")
	}
	if err := hashPassword([]string{""}, nil, &out); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestAdminPasswordHash(t *testing.T) {
	ctx := context.Background()
	s := kv.New(db.NewTestDB(t))

	hash, err := adminPasswordHash(ctx, config.Config{AdminPasswordHash: "$2a$explicit"}, s)
	if err != nil || hash != "$2a$explicit" {
		t.Errorf("expected explicit hash, got %q %v", hash, err)
	}

	hash, _ = adminPasswordHash(ctx, config.Config{AdminPassword: "tajna"}, s)
	if !auth.CheckPassword(hash, "tajna") {
		t.Error("expected hash of the configured password")
	}

	generated, err := adminPasswordHash(ctx, config.Config{}, s)
	if err != nil || generated == "" {
		t.Fatalf("expected generated hash, got %q %v", generated, err)
	}
	again, _ := adminPasswordHash(ctx, config.Config{}, s)
	if again != generated {
		t.Error("expected the generated hash to persist")
	}
}
