package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"file-indexer/internal/logging"
	"file-indexer/internal/metrics"
)

// Default timeout for opening the database
const defaultTimeout = 5 * time.Second

// DefaultOwner is the connection owner used when a context names none.
const DefaultOwner = "main"

// ErrClosed is returned by operations on a closed Database.
var ErrClosed = errors.New("database is closed")

type ownerKey struct{}

// WithOwner returns a context whose store operations run on the registry
// connection belonging to owner. Each scan worker uses its own owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFrom returns the connection owner named by ctx, or DefaultOwner.
func OwnerFrom(ctx context.Context) string {
	if owner, ok := ownerOf(ctx); ok {
		return owner
	}
	return DefaultOwner
}

func ownerOf(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

// querier is the query surface shared by *sql.DB and *sql.Conn.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ownedConn is one registry entry. mu serializes operations issued under the
// same owner so a shared owner (such as HTTP handlers) never interleaves.
type ownedConn struct {
	mu   sync.Mutex
	conn *sql.Conn
}

// Database is the metadata store: one SQLite file holding the files table,
// plus a registry of connections keyed by worker identity.
type Database struct {
	db     *sql.DB
	dbPath string

	mu     sync.Mutex
	conns  map[string]*ownedConn
	closed bool
}

// New opens the store at dbPath and initializes the schema.
// The parent directory of dbPath must exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// _txlock=immediate makes BEGIN take the write lock up front, so
	// concurrent writers wait on busy_timeout instead of failing on upgrade.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=OFF&_busy_timeout=5000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Registry connections are held for a worker's lifetime, so the pool
	// must not cap them.
	db.SetMaxOpenConns(0)
	db.SetMaxIdleConns(4)

	d := &Database{
		db:     db,
		dbPath: dbPath,
		conns:  make(map[string]*ownedConn),
	}

	if err := d.InitializeSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// InitializeSchema creates the files table and its indices if absent and
// upgrades tables created by older releases. It is idempotent and must run
// before any scan writes.
func (d *Database) InitializeSchema(ctx context.Context) error {
	start := time.Now()

	_, err := d.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		full_path TEXT NOT NULL UNIQUE,
		parent_path TEXT,
		file_size INTEGER,
		modified_date TEXT,
		item_type TEXT NOT NULL CHECK (item_type IN ('file', 'folder')),
		indexed_date TEXT DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		recordQuery("initialize_schema", start, err)
		return err
	}

	if err := d.runMigrations(ctx); err != nil {
		recordQuery("initialize_schema", start, err)
		return err
	}

	_, err = d.db.ExecContext(ctx, `
	CREATE INDEX IF NOT EXISTS idx_filename ON files(filename);
	CREATE INDEX IF NOT EXISTS idx_full_path ON files(full_path);
	CREATE INDEX IF NOT EXISTS idx_item_type ON files(item_type);
	CREATE INDEX IF NOT EXISTS idx_parent_path ON files(parent_path);
	`)
	recordQuery("initialize_schema", start, err)
	return err
}

// runMigrations brings a files table from the first release (which had no
// parent_path or item_type) up to the current layout.
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: item_type. Every legacy row was a file.
	exists, err := d.columnExists(ctx, "item_type")
	if err != nil {
		return err
	}
	if !exists {
		logging.Info("Migrating database: adding item_type column to files table")
		if _, err := d.db.ExecContext(ctx, `ALTER TABLE files ADD COLUMN item_type TEXT NOT NULL DEFAULT 'file'`); err != nil {
			return fmt.Errorf("failed to add item_type column: %w", err)
		}
	}

	// Migration 2: parent_path, backfilled from full_path.
	exists, err = d.columnExists(ctx, "parent_path")
	if err != nil {
		return err
	}
	if !exists {
		logging.Info("Migrating database: adding parent_path column to files table")
		if _, err := d.db.ExecContext(ctx, `ALTER TABLE files ADD COLUMN parent_path TEXT`); err != nil {
			return fmt.Errorf("failed to add parent_path column: %w", err)
		}
		if err := d.backfillParentPaths(ctx); err != nil {
			return fmt.Errorf("failed to backfill parent_path values: %w", err)
		}
		logging.Info("Migration complete: parent_path column added and initialized")
	}

	return nil
}

func (d *Database) columnExists(ctx context.Context, column string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('files')
		WHERE name = ?
	`, column).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for %s column: %w", column, err)
	}
	return exists, nil
}

func (d *Database) backfillParentPaths(ctx context.Context) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	rows, err := tx.QueryContext(ctx, `SELECT id, full_path FROM files WHERE parent_path IS NULL`)
	if err != nil {
		return err
	}

	type pending struct {
		id     int64
		parent string
	}
	var updates []pending
	for rows.Next() {
		var id int64
		var fullPath string
		if err = rows.Scan(&id, &fullPath); err != nil {
			_ = rows.Close()
			return err
		}
		updates = append(updates, pending{id: id, parent: filepath.Dir(fullPath)})
	}
	if err = rows.Close(); err != nil {
		return err
	}
	if err = rows.Err(); err != nil {
		return err
	}

	for _, u := range updates {
		if _, err = tx.ExecContext(ctx, `UPDATE files SET parent_path = ? WHERE id = ?`, u.parent, u.id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Conn returns the registry connection for the owner named by ctx, opening
// it on first use. Each new connection is switched to write-ahead logging
// with fsync disabled on commit.
func (d *Database) Conn(ctx context.Context) (*sql.Conn, error) {
	oc, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return oc.conn, nil
}

func (d *Database) acquire(ctx context.Context) (*ownedConn, error) {
	owner := OwnerFrom(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if oc, ok := d.conns[owner]; ok {
		return oc, nil
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection for %s: %w", owner, err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA synchronous = OFF"} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %q for %s: %w", pragma, owner, err)
		}
	}

	oc := &ownedConn{conn: conn}
	d.conns[owner] = oc
	metrics.DBConnectionsRegistered.Set(float64(len(d.conns)))
	logging.Debug("Opened store connection for %s", owner)
	return oc, nil
}

// withConn runs fn on the caller's registry connection, holding it
// exclusively for the duration.
func (d *Database) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	oc, err := d.acquire(ctx)
	if err != nil {
		return err
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return fn(oc.conn)
}

// withReader runs a read-only fn. A context naming an owner reads on that
// owner's registry connection; otherwise fn runs on the shared pool so
// concurrent readers such as HTTP requests do not queue behind each other.
func (d *Database) withReader(ctx context.Context, fn func(querier) error) error {
	if _, ok := ownerOf(ctx); ok {
		return d.withConn(ctx, func(conn *sql.Conn) error { return fn(conn) })
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return fn(d.db)
}

// CloseConn releases owner's connection. Closing an owner that holds no
// connection is a no-op.
func (d *Database) CloseConn(owner string) error {
	d.mu.Lock()
	oc, ok := d.conns[owner]
	if ok {
		delete(d.conns, owner)
		metrics.DBConnectionsRegistered.Set(float64(len(d.conns)))
	}
	d.mu.Unlock()

	if !ok {
		return nil
	}

	oc.mu.Lock()
	defer oc.mu.Unlock()
	logging.Debug("Closed store connection for %s", owner)
	return oc.conn.Close()
}

// OpenConns returns the number of registry connections currently held.
func (d *Database) OpenConns() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

// Close releases every registry connection and the underlying pool.
// Calling Close more than once is safe.
func (d *Database) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	conns := d.conns
	d.conns = make(map[string]*ownedConn)
	d.mu.Unlock()

	var errs []error
	for owner, oc := range conns {
		oc.mu.Lock()
		if err := oc.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection for %s: %w", owner, err))
		}
		oc.mu.Unlock()
	}
	metrics.DBConnectionsRegistered.Set(0)

	if err := d.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// diagnoseDatabasePermissions checks the database directory and files
// before opening, logging what it finds.
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only (mode %v), writes will fail", path, info.Mode())
		}
	}

	return nil
}
