// Package adapters abstracts the database access libraries behind one
// small interface so the circulation stores can run on a pgx pool, a
// plain sql.DB or a sqlx.DB without caring which.
package adapters

import "context"

// DBAdapter defines the interface for the database operations needed by
// the circulation stores.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
