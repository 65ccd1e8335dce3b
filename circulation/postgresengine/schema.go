package postgresengine

import (
	"context"
	"errors"
	"fmt"
)

// Migrate creates every table the stores need if it does not exist yet.
// It is safe to call on every startup.
func (s *Stores) Migrate(ctx context.Context) error {
	t := s.tables

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			book_id      TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			category     TEXT NOT NULL,
			rental_price NUMERIC(10,2) NOT NULL,
			availability TEXT NOT NULL,
			author       TEXT NOT NULL,
			publisher    TEXT NOT NULL
		)`, t.Books),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			member_id     TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			address       TEXT NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL
		)`, t.Members),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			employee_id TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			position    TEXT NOT NULL,
			salary      NUMERIC(12,2) NOT NULL,
			branch_id   TEXT NOT NULL,
			manager_id  TEXT NOT NULL DEFAULT ''
		)`, t.Employees),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			branch_id  TEXT PRIMARY KEY,
			manager_id TEXT NOT NULL DEFAULT '',
			address    TEXT NOT NULL,
			contact    TEXT NOT NULL
		)`, t.Branches),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			issue_id    TEXT PRIMARY KEY,
			member_id   TEXT NOT NULL,
			employee_id TEXT NOT NULL,
			book_id     TEXT NOT NULL,
			book_title  TEXT NOT NULL,
			issued_at   TIMESTAMPTZ NOT NULL
		)`, t.IssueLedger),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_member_id_idx ON %s (member_id)`,
			t.IssueLedger, t.IssueLedger),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_book_id_idx ON %s (book_id)`,
			t.IssueLedger, t.IssueLedger),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			return_id   TEXT PRIMARY KEY,
			issue_id    TEXT NOT NULL UNIQUE REFERENCES %s (issue_id),
			book_title  TEXT NOT NULL,
			returned_at TIMESTAMPTZ NOT NULL,
			condition   TEXT NOT NULL
		)`, t.ReturnLedger, t.IssueLedger),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			issue_id     TEXT PRIMARY KEY,
			book_id      TEXT NOT NULL,
			book_title   TEXT NOT NULL,
			member_id    TEXT NOT NULL,
			returned     BOOLEAN NOT NULL,
			overdue      BOOLEAN NOT NULL,
			days_overdue INTEGER NOT NULL,
			fine         NUMERIC(10,2) NOT NULL,
			assessed_at  TIMESTAMPTZ NOT NULL
		)`, t.OverdueFines),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			member_id      TEXT PRIMARY KEY,
			issue_count    INTEGER NOT NULL,
			last_issued_at TIMESTAMPTZ NOT NULL
		)`, t.ActiveMembers),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			book_id     TEXT PRIMARY KEY,
			book_title  TEXT NOT NULL,
			issue_count INTEGER NOT NULL
		)`, t.BookIssueCounts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			category TEXT PRIMARY KEY,
			income   NUMERIC(12,2) NOT NULL
		)`, t.CategoryIncome),
	}

	for _, statement := range statements {
		if _, err := s.execStatement(ctx, statement); err != nil {
			return errors.Join(ErrApplyingSchemaFailed, err)
		}
	}

	return nil
}
