// Package sqliteengine implements the circulation storage contracts on an
// embedded SQLite database. It is the single-file alternative to the
// Postgres engine: same contracts, same conflict semantics, no server.
//
// The concurrency-sensitive writes use the same conditional statements as
// the Postgres engine: the availability flag transitions with a guarded
// UPDATE and the ledgers append with INSERT ... SELECT ... WHERE NOT
// EXISTS, both validated by the affected row count.
package sqliteengine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

const schemaVersion = 1

// Stores bundles every circulation store over one SQLite database.
type Stores struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dbPath and applies schema
// migrations.
func Open(dbPath string) (*Stores, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err = applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Stores{db: db}, nil
}

// OpenInMemory opens a private in-memory database, mainly for tests.
func OpenInMemory() (*Stores, error) {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A connection pool would hand each query its own empty memory
	// database.
	db.SetMaxOpenConns(1)

	if err = applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Stores{db: db}, nil
}

// Close closes the underlying database.
func (s *Stores) Close() error {
	return s.db.Close()
}

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            book_id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            category TEXT NOT NULL,
            rental_price TEXT NOT NULL,
            availability TEXT NOT NULL,
            author TEXT NOT NULL,
            publisher TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            member_id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            address TEXT NOT NULL,
            registered_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS employees (
            employee_id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            position TEXT NOT NULL,
            salary TEXT NOT NULL,
            branch_id TEXT NOT NULL,
            manager_id TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS branches (
            branch_id TEXT PRIMARY KEY,
            manager_id TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL,
            contact TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS issue_ledger (
            issue_id TEXT PRIMARY KEY,
            member_id TEXT NOT NULL,
            employee_id TEXT NOT NULL,
            book_id TEXT NOT NULL,
            book_title TEXT NOT NULL,
            issued_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS issue_ledger_member_id_idx ON issue_ledger (member_id);`,
		`CREATE INDEX IF NOT EXISTS issue_ledger_book_id_idx ON issue_ledger (book_id);`,
		`CREATE TABLE IF NOT EXISTS return_ledger (
            return_id TEXT PRIMARY KEY,
            issue_id TEXT NOT NULL UNIQUE REFERENCES issue_ledger(issue_id),
            book_title TEXT NOT NULL,
            returned_at DATETIME NOT NULL,
            condition TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS overdue_fines_snapshot (
            issue_id TEXT PRIMARY KEY,
            book_id TEXT NOT NULL,
            book_title TEXT NOT NULL,
            member_id TEXT NOT NULL,
            returned BOOLEAN NOT NULL,
            overdue BOOLEAN NOT NULL,
            days_overdue INTEGER NOT NULL,
            fine TEXT NOT NULL,
            assessed_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS active_members_snapshot (
            member_id TEXT PRIMARY KEY,
            issue_count INTEGER NOT NULL,
            last_issued_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS book_issue_counts_snapshot (
            book_id TEXT PRIMARY KEY,
            book_title TEXT NOT NULL,
            issue_count INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS category_income_snapshot (
            category TEXT PRIMARY KEY,
            income TEXT NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err = tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// Catalog returns the catalog store.
func (s *Stores) Catalog() *CatalogStore {
	return &CatalogStore{db: s.db}
}

// Directory returns the directory store.
func (s *Stores) Directory() *DirectoryStore {
	return &DirectoryStore{db: s.db}
}

// IssueLedger returns the issue ledger.
func (s *Stores) IssueLedger() *IssueLedger {
	return &IssueLedger{db: s.db}
}

// ReturnLedger returns the return ledger.
func (s *Stores) ReturnLedger() *ReturnLedger {
	return &ReturnLedger{db: s.db}
}

// ReportSink returns the summary-table report sink.
func (s *Stores) ReportSink() *ReportSink {
	return &ReportSink{db: s.db}
}

func rowsAffected(result sql.Result) (int64, error) {
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return count, nil
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}
