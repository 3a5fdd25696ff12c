package asset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/barefootlabs/bdp/internal/metadata"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestKindForPath(t *testing.T) {
	tests := []struct {
		path string
		kind Kind
		ok   bool
	}{
		{"orders.sql", KindQuery, true},
		{"orders.py", KindFunction, true},
		{"orders.sh", KindScript, true},
		{"orders.txt", 0, false},
		{"orders", 0, false},
	}
	for _, tt := range tests {
		kind, ok := KindForPath(tt.path)
		if ok != tt.ok || (ok && kind != tt.kind) {
			t.Errorf("KindForPath(%q) = %v, %v", tt.path, kind, ok)
		}
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.sql")
	writeFile(t, path, `-- asset.name = orders
-- asset.schema = raw
-- asset.depends = raw.customers
select 1
`)

	a, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if a.QualifiedName() != "raw.orders" {
		t.Errorf("expected raw.orders, got %s", a.QualifiedName())
	}
	if a.Kind != KindQuery {
		t.Errorf("expected query kind, got %v", a.Kind)
	}
	if !reflect.DeepEqual(a.Depends, []string{"raw.customers"}) {
		t.Errorf("unexpected depends: %v", a.Depends)
	}
	if a.CommentPrefix() != "--" {
		t.Errorf("expected -- prefix, got %q", a.CommentPrefix())
	}
}

func TestFromFile_MissingSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.py")
	writeFile(t, path, "# asset.name = orders\n\ndef orders():\n    return {}\n")

	_, err := FromFile(path)
	var merr *metadata.MetadataError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MetadataError, got %v", err)
	}
}

func TestFindRoot(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(assets, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindRoot(nested)
	if err != nil {
		t.Fatalf("FindRoot failed: %v", err)
	}
	if found != assets {
		t.Errorf("expected %s, got %s", assets, found)
	}
}

func TestFindRoot_NotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := FindRoot(dir)
	var derr *DiscoveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "assets")

	writeFile(t, filepath.Join(root, "raw", "orders.sql"), "-- asset.name = orders\n-- asset.schema = raw\nselect 1\n")
	writeFile(t, filepath.Join(root, "raw", "labels.py"), "# asset.name = labels\n# asset.schema = raw\n\ndef labels():\n    return {\"id\": [1]}\n")
	writeFile(t, filepath.Join(root, "raw", "notes.txt"), "not an asset")
	writeFile(t, filepath.Join(root, "raw", "_draft.sql"), "work in progress")
	writeFile(t, filepath.Join(root, "_ignored", "hidden.sql"), "skipped entirely")

	assets, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	// Lexicographic by path: labels.py before orders.sql.
	if assets[0].QualifiedName() != "raw.labels" || assets[1].QualifiedName() != "raw.orders" {
		t.Errorf("unexpected order: %s, %s", assets[0].QualifiedName(), assets[1].QualifiedName())
	}
}

func TestDiscover_FailFast(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "assets")

	writeFile(t, filepath.Join(root, "good.sql"), "-- asset.name = good\n-- asset.schema = raw\nselect 1\n")
	writeFile(t, filepath.Join(root, "bad.sql"), "select 1\n")

	_, err := Discover(root)
	if err == nil {
		t.Fatal("expected discovery to fail on the malformed file")
	}
	var merr *metadata.MetadataError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MetadataError, got %v", err)
	}
	if merr.Path != filepath.Join(root, "bad.sql") {
		t.Errorf("error should name the failing file, got %s", merr.Path)
	}
}
