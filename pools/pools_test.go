package pools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestReadLines_TrimsAndSkipsBlanks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "senders.txt", "  alice@example.com  \n\n\nbob@example.com\n   \n")

	got, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}

	want := []string{"alice@example.com", "bob@example.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadLines() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadLines_MissingFile(t *testing.T) {
	if _, err := ReadLines(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("ReadLines() expected error for missing file")
	}
}

func TestListFiles_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "b.HTML", "b")
	writeFile(t, dir, "c.md", "c")
	writeFile(t, dir, "d.bin", "d")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListFiles(dir, textExts)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}

	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	want := []string{"a.txt", "c.md"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("ListFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestListFiles_NilExtsAcceptsEverything(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", "a")
	writeFile(t, dir, "b", "b")

	got, err := ListFiles(dir, nil)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListFiles() returned %d files, want 2", len(got))
	}
}

func TestLoad_ValidatesPools(t *testing.T) {
	dir := t.TempDir()
	from := writeFile(t, dir, "from.txt", "alice@example.com\n")
	to := writeFile(t, dir, "to.txt", "bob@example.com\n")
	relays := writeFile(t, dir, "relays.txt", "mx.example.com\n")

	bodyDir := filepath.Join(dir, "bodies")
	htmlDir := filepath.Join(dir, "html")
	attachDir := filepath.Join(dir, "attachments")
	for _, d := range []string{bodyDir, htmlDir, attachDir} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	paths := Paths{
		FromList:   from,
		ToList:     to,
		RelayHosts: relays,
		BodyDir:    bodyDir,
		HTMLDir:    htmlDir,
		AttachDir:  attachDir,
	}

	// Both body pools empty: must fail.
	if _, err := Load(paths); err == nil || !strings.Contains(err.Error(), "body pools") {
		t.Errorf("Load() error = %v, want body pool validation failure", err)
	}

	writeFile(t, bodyDir, "hello.txt", "Hello world")
	p, err := Load(paths)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(p.TextBodies) != 1 || len(p.Senders) != 1 || len(p.Recipients) != 1 {
		t.Errorf("Load() pools = %+v, want one text body, one sender, one recipient", p)
	}
}
