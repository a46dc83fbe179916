package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

// setupTestDB opens a fresh store in a temp directory.
func setupTestDB(t testing.TB) (*Database, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "index.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, dbPath
}

func TestNewCreatesSchema(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()

	var indices []string
	rows, err := db.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'files' AND name LIKE 'idx_%' ORDER BY name`)
	if err != nil {
		t.Fatalf("Failed to list indices: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatal(err)
		}
		indices = append(indices, name)
	}

	want := []string{"idx_filename", "idx_full_path", "idx_item_type", "idx_parent_path"}
	if len(indices) != len(want) {
		t.Fatalf("Expected indices %v, got %v", want, indices)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("Expected index %s, got %s", want[i], indices[i])
		}
	}
}

func TestInitializeSchemaIdempotent(t *testing.T) {
	t.Parallel()

	db, dbPath := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertOne(ctx, NewFileRecord("a.txt", "/r/a.txt", 1, "2024-01-01 00:00:00")); err != nil {
		t.Fatalf("UpsertOne failed: %v", err)
	}
	if err := db.InitializeSchema(ctx); err != nil {
		t.Fatalf("Second InitializeSchema failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	stats, err := reopened.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalFiles != 1 {
		t.Errorf("Expected data to survive reopen, got %d files", stats.TotalFiles)
	}
}

func TestMigrateLegacySchema(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "legacy.db")
	legacy, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_, err = legacy.Exec(`
		CREATE TABLE files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL,
			full_path TEXT NOT NULL UNIQUE,
			file_size INTEGER,
			modified_date TEXT,
			indexed_date TEXT DEFAULT CURRENT_TIMESTAMP
		);
		INSERT INTO files (filename, full_path, file_size, modified_date) VALUES ('old.doc', '/share/docs/old.doc', 10, '2020-01-01 00:00:00');
	`)
	if err != nil {
		t.Fatalf("Failed to build legacy table: %v", err)
	}
	_ = legacy.Close()

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New on legacy database failed: %v", err)
	}
	defer db.Close()

	rec, err := db.GetRecord(context.Background(), "/share/docs/old.doc")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if rec == nil {
		t.Fatal("Expected legacy row to survive migration")
	}
	if rec.ItemType != ItemTypeFile {
		t.Errorf("Expected item_type=file, got %s", rec.ItemType)
	}
	if rec.ParentPath != "/share/docs" {
		t.Errorf("Expected parent_path=/share/docs, got %q", rec.ParentPath)
	}
}

func TestOwnerFrom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := OwnerFrom(ctx); got != DefaultOwner {
		t.Errorf("Expected default owner, got %q", got)
	}
	if got := OwnerFrom(WithOwner(ctx, "worker-3")); got != "worker-3" {
		t.Errorf("Expected worker-3, got %q", got)
	}
	if got := OwnerFrom(WithOwner(ctx, "")); got != DefaultOwner {
		t.Errorf("Expected empty owner to fall back to default, got %q", got)
	}
}

func TestConnRegistry(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()
	w1 := WithOwner(ctx, "worker-1")
	w2 := WithOwner(ctx, "worker-2")

	c1, err := db.Conn(w1)
	if err != nil {
		t.Fatalf("Conn failed: %v", err)
	}
	again, err := db.Conn(w1)
	if err != nil {
		t.Fatalf("Conn failed: %v", err)
	}
	if c1 != again {
		t.Error("Expected the same connection for the same owner")
	}

	c2, err := db.Conn(w2)
	if err != nil {
		t.Fatalf("Conn failed: %v", err)
	}
	if c1 == c2 {
		t.Error("Expected distinct connections for distinct owners")
	}
	if n := db.OpenConns(); n != 2 {
		t.Errorf("Expected 2 registered connections, got %d", n)
	}

	var mode string
	if err := c1.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", mode)
	}
	var syncMode int
	if err := c1.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&syncMode); err != nil {
		t.Fatal(err)
	}
	if syncMode != 0 {
		t.Errorf("Expected synchronous=OFF (0), got %d", syncMode)
	}

	if err := db.CloseConn("worker-1"); err != nil {
		t.Errorf("CloseConn failed: %v", err)
	}
	if n := db.OpenConns(); n != 1 {
		t.Errorf("Expected 1 registered connection after close, got %d", n)
	}
	if err := db.CloseConn("never-opened"); err != nil {
		t.Errorf("Expected closing an unknown owner to be a no-op, got %v", err)
	}

	reopened, err := db.Conn(w1)
	if err != nil {
		t.Fatalf("Conn after close failed: %v", err)
	}
	if reopened == c1 {
		t.Error("Expected a fresh connection after CloseConn")
	}
}

func TestClosedDatabase(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}

	err := db.UpsertOne(context.Background(), NewFolderRecord("a", "/a"))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestConcurrentWritersOnOwnConnections(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()

	const workers = 6
	const perWorker = 50

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			owner := fmt.Sprintf("writer-%d", w)
			wctx := WithOwner(ctx, owner)
			defer db.CloseConn(owner)

			for i := 0; i < perWorker; i++ {
				path := filepath.Join("/share", owner, fmt.Sprintf("dir-%03d", i))
				if err := db.UpsertOne(wctx, NewFolderRecord(filepath.Base(path), path)); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent upsert failed: %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalFolders != workers*perWorker {
		t.Errorf("Expected %d folders, got %d", workers*perWorker, stats.TotalFolders)
	}
	if n := db.OpenConns(); n != 0 {
		t.Errorf("Expected every writer connection released, got %d", n)
	}
}

func TestReadsUseSharedPool(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMany(WithOwner(ctx, "writer"), []Record{
		NewFileRecord("a.txt", "/share/a.txt", 1, "2024-01-01 00:00:00"),
		NewFileRecord("b.txt", "/share/b.txt", 2, "2024-01-01 00:00:00"),
	}); err != nil {
		t.Fatalf("UpsertMany failed: %v", err)
	}
	if err := db.CloseConn("writer"); err != nil {
		t.Fatalf("CloseConn failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			matches, err := db.SearchFiles(ctx, ".txt", false)
			if err == nil && len(matches) != 2 {
				err = fmt.Errorf("expected 2 matches, got %d", len(matches))
			}
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent search failed: %v", err)
	}

	if _, err := db.Stats(ctx); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if rec, err := db.GetRecord(ctx, "/share/a.txt"); err != nil || rec == nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if n := db.OpenConns(); n != 0 {
		t.Errorf("Expected reads without an owner to leave the registry empty, got %d", n)
	}

	if _, err := db.Stats(WithOwner(ctx, "worker-1")); err != nil {
		t.Fatalf("Stats with owner failed: %v", err)
	}
	if n := db.OpenConns(); n != 1 {
		t.Errorf("Expected an owned read to use its registry connection, got %d", n)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := db.Stats(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from a read after Close, got %v", err)
	}
}
