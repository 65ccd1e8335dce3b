package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/postgresengine/internal/adapters"
)

// Storage failures, joined with the driver error for callers that need the
// root cause.
var (
	ErrBuildingQueryFailed  = errors.New("failed to build sql query")
	ErrQueryingStoreFailed  = errors.New("database query execution failed")
	ErrExecutingWriteFailed = errors.New("database execution failed")
	ErrScanningDBRowFailed  = errors.New("failed to scan database row")
	ErrRowsAffectedFailed   = errors.New("failed to get rows affected count")
	ErrEmptyTableName       = errors.New("empty table name supplied")
	ErrApplyingSchemaFailed = errors.New("failed to apply schema")
)

const (
	dialectPostgres = "postgres"

	logMsgSQLExecuted     = "executed sql for: "
	logMsgDBQueryFailed   = "database query execution failed"
	logMsgDBExecFailed    = "database execution failed"
	logMsgCloseRowsFailed = "failed to close database rows"
	logMsgScanRowFailed   = "failed to scan database row"
	logAttrError          = "error"
	logAttrQuery          = "query"
	logAttrDurationMS     = "duration_ms"
	logAttrRowsAffected   = "rows_affected"
)

// TableNames configures the tables the stores read and write. The zero
// value is replaced by DefaultTableNames.
type TableNames struct {
	Books           string
	Members         string
	Employees       string
	Branches        string
	IssueLedger     string
	ReturnLedger    string
	OverdueFines    string
	ActiveMembers   string
	BookIssueCounts string
	CategoryIncome  string
}

// DefaultTableNames returns the table names used unless overridden.
func DefaultTableNames() TableNames {
	return TableNames{
		Books:           "books",
		Members:         "members",
		Employees:       "employees",
		Branches:        "branches",
		IssueLedger:     "issue_ledger",
		ReturnLedger:    "return_ledger",
		OverdueFines:    "overdue_fines_snapshot",
		ActiveMembers:   "active_members_snapshot",
		BookIssueCounts: "book_issue_counts_snapshot",
		CategoryIncome:  "category_income_snapshot",
	}
}

func (t TableNames) validate() error {
	for _, name := range []string{
		t.Books, t.Members, t.Employees, t.Branches,
		t.IssueLedger, t.ReturnLedger,
		t.OverdueFines, t.ActiveMembers, t.BookIssueCounts, t.CategoryIncome,
	} {
		if name == "" {
			return ErrEmptyTableName
		}
	}

	return nil
}

// Stores bundles every circulation store over one Postgres database. Use
// the accessor methods to obtain the individual contract implementations.
type Stores struct {
	db               adapters.DBAdapter
	tables           TableNames
	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
}

// Option defines a functional option for configuring Stores.
type Option func(*Stores) error

// WithTableNames overrides the default table names.
func WithTableNames(tables TableNames) Option {
	return func(s *Stores) error {
		if err := tables.validate(); err != nil {
			return err
		}

		s.tables = tables

		return nil
	}
}

// WithLogger sets the logger. Debug level carries SQL with timing; error
// level carries failures.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Stores) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger, enabling automatic
// trace correlation.
func WithContextualLogger(logger circulation.ContextualLogger) Option {
	return func(s *Stores) error {
		s.contextualLogger = logger
		return nil
	}
}

// NewStoresFromPGXPool creates circulation stores using a pgx pool.
func NewStoresFromPGXPool(pool *pgxpool.Pool, options ...Option) (*Stores, error) {
	if pool == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStores(adapters.NewPGXAdapter(pool), options...)
}

// NewStoresFromPGXPoolWithReplica creates circulation stores using a
// primary pgx pool plus a replica pool for eventually-consistent reads.
func NewStoresFromPGXPoolWithReplica(pool, replica *pgxpool.Pool, options ...Option) (*Stores, error) {
	if pool == nil || replica == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStores(adapters.NewPGXAdapterWithReplica(pool, replica), options...)
}

// NewStoresFromSQLDB creates circulation stores using a sql.DB.
func NewStoresFromSQLDB(db *sql.DB, options ...Option) (*Stores, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStores(adapters.NewSQLAdapter(db), options...)
}

// NewStoresFromSQLX creates circulation stores using a sqlx.DB.
func NewStoresFromSQLX(db *sqlx.DB, options ...Option) (*Stores, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStores(adapters.NewSQLXAdapter(db), options...)
}

func newStores(db adapters.DBAdapter, options ...Option) (*Stores, error) {
	stores := &Stores{
		db:     db,
		tables: DefaultTableNames(),
	}

	for _, option := range options {
		if err := option(stores); err != nil {
			return nil, err
		}
	}

	return stores, nil
}

// Catalog returns the catalog store.
func (s *Stores) Catalog() *CatalogStore {
	return &CatalogStore{stores: s}
}

// Directory returns the directory store.
func (s *Stores) Directory() *DirectoryStore {
	return &DirectoryStore{stores: s}
}

// IssueLedger returns the issue ledger.
func (s *Stores) IssueLedger() *IssueLedger {
	return &IssueLedger{stores: s}
}

// ReturnLedger returns the return ledger.
func (s *Stores) ReturnLedger() *ReturnLedger {
	return &ReturnLedger{stores: s}
}

// ReportSink returns the summary-table report sink.
func (s *Stores) ReportSink() *ReportSink {
	return &ReportSink{stores: s}
}

// builder returns the goqu dialect builder all stores share.
func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// queryRows executes a select and logs it with timing.
func (s *Stores) queryRows(ctx context.Context, sqlQuery string) (adapters.DBRows, error) {
	start := time.Now()
	rows, err := s.db.Query(ctx, sqlQuery)
	s.logSQL(ctx, "query", sqlQuery, time.Since(start))

	if err != nil {
		s.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)

		return nil, errors.Join(ErrQueryingStoreFailed, err)
	}

	return rows, nil
}

// execStatement executes a write and returns the affected row count.
func (s *Stores) execStatement(ctx context.Context, sqlQuery string) (int64, error) {
	start := time.Now()
	result, err := s.db.Exec(ctx, sqlQuery)
	s.logSQL(ctx, "exec", sqlQuery, time.Since(start))

	if err != nil {
		s.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)

		return 0, errors.Join(ErrExecutingWriteFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Join(ErrRowsAffectedFailed, err)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Stores) closeRows(ctx context.Context, rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, err.Error())
	}
}
