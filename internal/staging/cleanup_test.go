package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/queue"
)

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	oldDir := filepath.Join(tmpDir, "12")
	if err := os.Mkdir(oldDir, 0o755); err != nil {
		t.Fatalf("create old dir: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldDir, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	recentDir := filepath.Join(tmpDir, "13")
	if err := os.Mkdir(recentDir, 0o755); err != nil {
		t.Fatalf("create recent dir: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected 1 removed, got %d", len(result.Removed))
	}
	if result.Removed[0] != oldDir {
		t.Errorf("expected %s to be removed, got %s", oldDir, result.Removed[0])
	}

	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old directory should have been removed")
	}

	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
}

func TestCleanStaleZeroAgeRemovesEverything(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"1", "2"} {
		if err := os.Mkdir(filepath.Join(tmpDir, name), 0o755); err != nil {
			t.Fatalf("create dir %s: %v", name, err)
		}
	}

	result := CleanStale(context.Background(), tmpDir, 0, logging.NewNop())

	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removed, got %d", len(result.Removed))
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()

	oldFile := filepath.Join(tmpDir, "old-file.txt")
	if err := os.WriteFile(oldFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for files, got %d", len(result.Removed))
	}

	if _, err := os.Stat(oldFile); err != nil {
		t.Error("file should not have been removed")
	}
}

func TestCleanOrphanedEmptyDir(t *testing.T) {
	for _, dir := range []string{"", "   "} {
		result := CleanOrphaned(context.Background(), dir, nil, nil, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanOrphanedRemovesFinishedItemDirs(t *testing.T) {
	tmpDir := t.TempDir()

	activeItem := queue.Item{ID: 7, VideoID: "dQw4w9WgXcQ"}
	orphanItem := queue.Item{ID: 8}

	activeDir := activeItem.StagingRoot(tmpDir)
	if err := os.Mkdir(activeDir, 0o755); err != nil {
		t.Fatalf("create active dir: %v", err)
	}
	orphanDir := orphanItem.StagingRoot(tmpDir)
	if err := os.Mkdir(orphanDir, 0o755); err != nil {
		t.Fatalf("create orphan dir: %v", err)
	}

	known := map[string]struct{}{
		activeItem.StagingSegment(): {},
		orphanItem.StagingSegment(): {},
	}
	active := map[string]struct{}{
		activeItem.StagingSegment(): {},
	}

	result := CleanOrphaned(context.Background(), tmpDir, known, active, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected 1 removed, got %d: %v", len(result.Removed), result.Removed)
	}
	if result.Removed[0] != orphanDir {
		t.Errorf("expected %s to be removed, got %s", orphanDir, result.Removed[0])
	}

	if _, err := os.Stat(orphanDir); !os.IsNotExist(err) {
		t.Error("orphan directory should have been removed")
	}

	if _, err := os.Stat(activeDir); err != nil {
		t.Error("active directory should still exist")
	}
}

func TestCleanOrphanedSweepsVideoIDDirsWithEmptyActiveSet(t *testing.T) {
	tmpDir := t.TempDir()

	items := []queue.Item{
		{ID: 7, VideoID: "dQw4w9WgXcQ"},
		{ID: 8},
	}
	known := map[string]struct{}{}
	for _, item := range items {
		if err := os.Mkdir(item.StagingRoot(tmpDir), 0o755); err != nil {
			t.Fatalf("create item dir: %v", err)
		}
		known[item.StagingSegment()] = struct{}{}
	}

	result := CleanOrphaned(context.Background(), tmpDir, known, nil, logging.NewNop())

	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removed, got %d: %v", len(result.Removed), result.Removed)
	}
	for _, item := range items {
		if _, err := os.Stat(item.StagingRoot(tmpDir)); !os.IsNotExist(err) {
			t.Errorf("directory for item %d should have been removed", item.ID)
		}
	}
}

func TestCleanOrphanedSkipsOperatorDirs(t *testing.T) {
	tmpDir := t.TempDir()

	operatorDir := filepath.Join(tmpDir, "notes")
	if err := os.Mkdir(operatorDir, 0o755); err != nil {
		t.Fatalf("create operator dir: %v", err)
	}

	fallbackDir := filepath.Join(tmpDir, "queue-42")
	if err := os.Mkdir(fallbackDir, 0o755); err != nil {
		t.Fatalf("create fallback dir: %v", err)
	}

	result := CleanOrphaned(context.Background(), tmpDir, nil, nil, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected 1 removed, got %d: %v", len(result.Removed), result.Removed)
	}
	if result.Removed[0] != fallbackDir {
		t.Errorf("expected fallback dir removed, got %s", result.Removed[0])
	}

	if _, err := os.Stat(operatorDir); err != nil {
		t.Error("operator directory should still exist")
	}
}

func TestListDirectoriesInvalidPaths(t *testing.T) {
	for _, path := range []string{"", "/nonexistent/path/12345"} {
		dirs, err := ListDirectories(path)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", path, err)
		}
		if dirs != nil {
			t.Errorf("expected nil for path %q, got %v", path, dirs)
		}
	}
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	dir1 := filepath.Join(tmpDir, "1")
	if err := os.Mkdir(dir1, 0o755); err != nil {
		t.Fatalf("create dir1: %v", err)
	}

	dir2 := filepath.Join(tmpDir, "2")
	if err := os.Mkdir(dir2, 0o755); err != nil {
		t.Fatalf("create dir2: %v", err)
	}

	file := filepath.Join(tmpDir, "not-a-dir.txt")
	if err := os.WriteFile(file, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}

	innerFile := filepath.Join(dir1, "audio.m4a")
	if err := os.WriteFile(innerFile, []byte("12345"), 0o644); err != nil {
		t.Fatalf("create inner file: %v", err)
	}

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}

	if len(dirs) != 2 {
		t.Fatalf("expected 2 directories, got %d", len(dirs))
	}

	var foundDir1 bool
	for _, d := range dirs {
		if d.Name == "1" {
			foundDir1 = true
			if d.Size != 5 {
				t.Errorf("dir1 size = %d, want 5", d.Size)
			}
		}
	}
	if !foundDir1 {
		t.Error("did not find item directory in results")
	}
}

func TestDirInfo(t *testing.T) {
	tmpDir := t.TempDir()

	dir := filepath.Join(tmpDir, "55")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}

	if len(dirs) != 1 {
		t.Fatalf("expected 1 directory, got %d", len(dirs))
	}

	info := dirs[0]
	if info.Name != "55" {
		t.Errorf("Name = %q, want 55", info.Name)
	}
	if info.Path != dir {
		t.Errorf("Path = %q, want %q", info.Path, dir)
	}
	if info.ModTime.IsZero() {
		t.Error("ModTime should not be zero")
	}
}
