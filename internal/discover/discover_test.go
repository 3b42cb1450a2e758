package discover

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFilesEmptyTree(t *testing.T) {
	dir := t.TempDir()
	got := Files(Options{Roots: []string{dir}, MaxDepth: -1, NumThreads: 1})
	if len(got) != 0 {
		t.Fatalf("got %d files, want 0", len(got))
	}
}

func TestFilesDiscoversNestedRegularFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), 10)
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), 20)
	writeFile(t, filepath.Join(dir, "sub", "deeper", "c.txt"), 30)

	for _, threads := range []int{1, 4} {
		got := Files(Options{Roots: []string{dir}, MaxDepth: -1, NumThreads: threads})
		var names []string
		for _, f := range got {
			names = append(names, filepath.Base(f.AbsolutePath))
		}
		sort.Strings(names)
		want := []string{"a.txt", "b.txt", "c.txt"}
		if len(names) != len(want) {
			t.Fatalf("threads=%d: got %v, want %v", threads, names, want)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Fatalf("threads=%d: got %v, want %v", threads, names, want)
			}
		}
	}
}

func TestFilesRespectsMaxDepth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "top.txt"), 1)
	writeFile(t, filepath.Join(dir, "sub", "nested.txt"), 1)

	got := Files(Options{Roots: []string{dir}, MaxDepth: 0, NumThreads: 1})
	if len(got) != 1 || filepath.Base(got[0].AbsolutePath) != "top.txt" {
		t.Fatalf("got %+v, want only top.txt", got)
	}
}

func TestFilesExcludeGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.txt"), 1)
	writeFile(t, filepath.Join(dir, "node_modules", "dep.txt"), 1)

	got := Files(Options{
		Roots:      []string{dir},
		MaxDepth:   -1,
		NumThreads: 1,
		Excludes:   []string{"node_modules"},
	})
	if len(got) != 1 || filepath.Base(got[0].AbsolutePath) != "keep.txt" {
		t.Fatalf("got %+v, want only keep.txt", got)
	}
}

func TestFilesFollowsOneLevelSymlink(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "target.txt"), 5)

	if err := os.Symlink(filepath.Join(outside, "target.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got := Files(Options{Roots: []string{dir}, MaxDepth: -1, NumThreads: 1})
	if len(got) != 1 {
		t.Fatalf("got %d files, want 1 (the symlink target)", len(got))
	}
}

func TestValidateRejectsMissingRoot(t *testing.T) {
	err := Options{Roots: []string{"/does/not/exist/anywhere"}}.Validate()
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestValidateRejectsEmptyRoots(t *testing.T) {
	if err := (Options{}).Validate(); err == nil {
		t.Fatal("expected error for empty roots")
	}
}
