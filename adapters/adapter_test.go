package adapters

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"clipsleuth/config"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.ShowProgress = false
	return cfg
}

func writeStoreDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "history.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE items (id INTEGER PRIMARY KEY, item_text TEXT, created INTEGER)`,
		`INSERT INTO items (item_text, created) VALUES ('copied secret note', 1754042400)`,
		`INSERT INTO items (item_text, created) VALUES ('second clip', 1754042460)`,
		`INSERT INTO items (item_text, created) VALUES (NULL, 1754042520)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return path
}

func TestSQLiteAdapterExtract(t *testing.T) {
	path := writeStoreDB(t, t.TempDir())
	cfg := testConfig()
	adapter := NewSQLiteAdapter("ditto", path, cfg, newIOLimiter(cfg.MaxIOPerSecond))

	entries, err := adapter.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (contentless row skipped), got %d", len(entries))
	}
	first := entries[0]
	if first.Content != "copied secret note" {
		t.Errorf("unexpected content: %q", first.Content)
	}
	if first.SourceApp != "ditto" {
		t.Errorf("source not carried: %q", first.SourceApp)
	}
	if first.Timestamp != "2025-08-01T10:00:00Z" {
		t.Errorf("epoch timestamp not converted: %q", first.Timestamp)
	}
	if first.ContentHash == "" {
		t.Error("content hash not computed")
	}
	if first.Metadata["id"] == nil {
		t.Error("raw row not carried in metadata")
	}
}

func TestSQLiteAdapterEntryCap(t *testing.T) {
	path := writeStoreDB(t, t.TempDir())
	cfg := testConfig()
	cfg.MaxEntries = 1
	adapter := NewSQLiteAdapter("ditto", path, cfg, newIOLimiter(cfg.MaxIOPerSecond))

	entries, err := adapter.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("cap not honored, got %d entries", len(entries))
	}
}

func TestFileAdapterExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipboard.txt")
	if err := os.WriteFile(path, []byte("saved clipboard text"), 0o600); err != nil {
		t.Fatal(err)
	}
	adapter := NewFileAdapter("plaintext", path, testConfig())

	entries, err := adapter.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ContentType != "text" {
		t.Errorf("unexpected content type: %q", e.ContentType)
	}
	if e.Content != "saved clipboard text" {
		t.Errorf("unexpected content: %q", e.Content)
	}
	if e.Timestamp == "" {
		t.Error("timestamp not derived from file times")
	}
	if e.Metadata["store_path"] != path {
		t.Error("store path not recorded")
	}
}

func TestDumpAdapterPreservesHash(t *testing.T) {
	dump := `{"entries":[{"timestamp":"2025-08-01T10:00:00Z","content_type":"text","content":"hello","content_hash":"feedfacefeedface","size_bytes":5}]}`
	path := filepath.Join(t.TempDir(), "report.json")
	if err := os.WriteFile(path, []byte(dump), 0o600); err != nil {
		t.Fatal(err)
	}
	adapter := NewDumpAdapter(path)

	entries, err := adapter.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContentHash != "feedfacefeedface" {
		t.Errorf("hash recomputed on reload: %q", entries[0].ContentHash)
	}
}

func TestDumpAdapterBareArray(t *testing.T) {
	dump := `[{"content":"one"},{"content":"two"},"not-an-object"]`
	path := filepath.Join(t.TempDir(), "entries.json")
	if err := os.WriteFile(path, []byte(dump), 0o600); err != nil {
		t.Fatal(err)
	}
	adapter := NewDumpAdapter(path)

	entries, err := adapter.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeStoreDB(t, dir)
	txtPath := filepath.Join(dir, "clip.txt")
	if err := os.WriteFile(txtPath, []byte("text"), 0o600); err != nil {
		t.Fatal(err)
	}
	dumpPath := filepath.Join(dir, "old-report.json")
	if err := os.WriteFile(dumpPath, []byte(`[]`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.ManagerStores = map[string]string{
		"ditto":   dbPath,
		"missing": filepath.Join(dir, "absent.db"),
	}
	cfg.StorePaths = []string{txtPath}
	cfg.DumpFiles = []string{dumpPath}

	found := Discover(cfg)
	if len(found) != 3 {
		t.Fatalf("expected 3 adapters, got %d", len(found))
	}
	if _, ok := found[0].(*SQLiteAdapter); !ok {
		t.Errorf("expected sqlite adapter first, got %T", found[0])
	}
	if _, ok := found[1].(*FileAdapter); !ok {
		t.Errorf("expected file adapter, got %T", found[1])
	}
	if _, ok := found[2].(*DumpAdapter); !ok {
		t.Errorf("expected dump adapter, got %T", found[2])
	}
}
