package ops

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pierrec/lz4/v4"

	"wildcraft/internal/catalog"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir parent %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func TestBackupRestoreDataDir_RoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	files := map[string]string{
		"game/inventory.json": `{"players":{"p1":{"material:wood":3}}}`,
		"game/world.json":     `{"nodes":{},"stations":{}}`,
		"auth/auth.json":      `{"users":{}}`,
	}
	writeTree(t, src, files)

	archive := filepath.Join(t.TempDir(), "backup"+ArchiveExt)
	if err := BackupDataDir(src, archive); err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("archive missing: %v", err)
	}

	restoreDir := filepath.Join(t.TempDir(), "restore")
	if err := RestoreDataDir(archive, restoreDir); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	got := map[string]string{}
	err := filepath.WalkDir(restoreDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(restoreDir, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk restore dir: %v", err)
	}
	if !reflect.DeepEqual(files, got) {
		t.Fatalf("restored files mismatch:\nwant=%v\ngot=%v", files, got)
	}

	srcDigest, err := DirDigest(src)
	if err != nil {
		t.Fatalf("digest src: %v", err)
	}
	restoredDigest, err := DirDigest(restoreDir)
	if err != nil {
		t.Fatalf("digest restore: %v", err)
	}
	if srcDigest != restoredDigest {
		t.Fatalf("digest mismatch: %s != %s", srcDigest, restoredDigest)
	}
}

func TestDirDigest_DetectsChanges(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.json": "1", "b/c.json": "2"})

	before, err := DirDigest(root)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if len(before) != 64 {
		t.Fatalf("expected 32-byte hex digest, got %q", before)
	}

	writeTree(t, root, map[string]string{"b/c.json": "3"})
	after, err := DirDigest(root)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if before == after {
		t.Fatalf("digest should change when a file changes")
	}
}

func TestRestoreDataDir_RejectsPathTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad"+ArchiveExt)
	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}

	zw := lz4.NewWriter(f)
	tw := tar.NewWriter(zw)
	if err := tw.WriteHeader(&tar.Header{
		Name:     "../escape.txt",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len("bad")),
	}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write([]byte("bad")); err != nil {
		t.Fatalf("write body: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close lz4 writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	if err := RestoreDataDir(archive, filepath.Join(t.TempDir(), "out")); err == nil {
		t.Fatalf("expected restore to reject path traversal archive")
	}
}

func TestSeedCatalog_Idempotent(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()

	first, err := SeedCatalog(ctx, dataDir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(first.RecipeIDs) != len(catalog.DefaultRecipes()) {
		t.Fatalf("expected %d recipes seeded, got %d", len(catalog.DefaultRecipes()), len(first.RecipeIDs))
	}
	if _, err := os.Stat(filepath.Join(dataDir, "game", "catalog.json")); err != nil {
		t.Fatalf("catalog file missing: %v", err)
	}

	second, err := SeedCatalog(ctx, dataDir)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if !second.Empty() {
		t.Fatalf("reseed should add nothing, got %+v", second)
	}
}
