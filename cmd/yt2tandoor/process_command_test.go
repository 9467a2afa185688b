package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProcessRejectsUnsupportedURL(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"process", "https://example.com/not-a-video"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected unsupported url error")
	}
	if !strings.Contains(err.Error(), "unsupported video url") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBatchRejectsEmptyFile(t *testing.T) {
	env := setupCLITestEnv(t)

	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("# comment only\n\n"), 0o644); err != nil {
		t.Fatalf("write batch file: %v", err)
	}

	_, _, err := runCLI(t, []string{"batch", path}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected empty batch error")
	}
	if !strings.Contains(err.Error(), "no URLs") {
		t.Fatalf("unexpected error: %v", err)
	}
}
