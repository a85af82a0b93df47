package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "run.log")

	log := New(Options{Level: "debug", File: file, Quiet: true})
	log.Info("palette extracted")
	log.Debug("mask built")
	if err := log.Sync(); err != nil {
		t.Logf("sync: %v", err)
	}

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(content)
	if !strings.Contains(out, "palette extracted") || !strings.Contains(out, "DEBUG") {
		t.Fatalf("unexpected log content:\n%s", out)
	}
}

func TestNewLevelFilter(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "run.log")

	log := New(Options{Level: "warn", File: file, Quiet: true})
	log.Info("quiet")
	log.Warn("loud")
	_ = log.Sync()

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(content)
	if strings.Contains(out, "quiet") {
		t.Fatal("info should be filtered at warn level")
	}
	if !strings.Contains(out, "loud") {
		t.Fatal("warn entry missing")
	}
}

func TestNewAllSinksDisabled(t *testing.T) {
	log := New(Options{Quiet: true})
	// Must be safe to use.
	log.Info("dropped")
}
