package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// IssueLedger implements circulation.IssueLedger on SQLite.
type IssueLedger struct {
	db *sql.DB
}

var _ circulation.IssueLedger = (*IssueLedger)(nil)

// Append adds an issue record; a duplicate id is rejected without touching
// the existing row.
func (l *IssueLedger) Append(ctx context.Context, record circulation.IssueRecord) error {
	result, err := l.db.ExecContext(ctx,
		`INSERT INTO issue_ledger(issue_id,member_id,employee_id,book_id,book_title,issued_at)
         SELECT ?,?,?,?,?,?
         WHERE NOT EXISTS (SELECT 1 FROM issue_ledger WHERE issue_id=?)`,
		record.ID, record.MemberID, record.EmployeeID, record.BookID,
		record.BookTitle, record.IssuedAt.UTC(), record.ID)
	if err != nil {
		return fmt.Errorf("append issue: %w", err)
	}

	count, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if count == 0 {
		return fmt.Errorf("%w: %s", circulation.ErrDuplicateIssueID, record.ID)
	}

	return nil
}

// Get loads a single issue record by id.
func (l *IssueLedger) Get(ctx context.Context, issueID string) (circulation.IssueRecord, error) {
	var record circulation.IssueRecord

	err := l.db.QueryRowContext(ctx,
		`SELECT issue_id,member_id,employee_id,book_id,book_title,issued_at
         FROM issue_ledger WHERE issue_id=?`, issueID).
		Scan(&record.ID, &record.MemberID, &record.EmployeeID,
			&record.BookID, &record.BookTitle, &record.IssuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.IssueRecord{}, fmt.Errorf("%w: %s", circulation.ErrIssueNotFound, issueID)
	}
	if err != nil {
		return circulation.IssueRecord{}, fmt.Errorf("get issue: %w", err)
	}

	record.IssuedAt = record.IssuedAt.UTC()

	return record, nil
}

// ListByMember returns all issues for one member in issue order.
func (l *IssueLedger) ListByMember(ctx context.Context, memberID string) ([]circulation.IssueRecord, error) {
	return l.list(ctx, `WHERE member_id=?`, memberID)
}

// ListByEmployee returns all issues handled by one employee in issue order.
func (l *IssueLedger) ListByEmployee(ctx context.Context, employeeID string) ([]circulation.IssueRecord, error) {
	return l.list(ctx, `WHERE employee_id=?`, employeeID)
}

// ListByBook returns all issues of one book in issue order.
func (l *IssueLedger) ListByBook(ctx context.Context, bookID string) ([]circulation.IssueRecord, error) {
	return l.list(ctx, `WHERE book_id=?`, bookID)
}

// ListAll returns the whole ledger in issue order.
func (l *IssueLedger) ListAll(ctx context.Context) ([]circulation.IssueRecord, error) {
	return l.list(ctx, ``)
}

// Delete removes an issue record unless a return references it.
func (l *IssueLedger) Delete(ctx context.Context, issueID string) error {
	result, err := l.db.ExecContext(ctx,
		`DELETE FROM issue_ledger
         WHERE issue_id=?
         AND NOT EXISTS (SELECT 1 FROM return_ledger WHERE issue_id=?)`,
		issueID, issueID)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}

	count, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if count == 1 {
		return nil
	}

	if _, getErr := l.Get(ctx, issueID); getErr != nil {
		return getErr
	}

	return fmt.Errorf("%w: issue %s has a recorded return", circulation.ErrReferentialIntegrity, issueID)
}

func (l *IssueLedger) list(ctx context.Context, where string, args ...any) ([]circulation.IssueRecord, error) {
	query := `SELECT issue_id,member_id,employee_id,book_id,book_title,issued_at FROM issue_ledger ` +
		where + ` ORDER BY issued_at, issue_id`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer closeRows(rows)

	var records []circulation.IssueRecord

	for rows.Next() {
		var record circulation.IssueRecord

		if err = rows.Scan(&record.ID, &record.MemberID, &record.EmployeeID,
			&record.BookID, &record.BookTitle, &record.IssuedAt); err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}

		record.IssuedAt = record.IssuedAt.UTC()
		records = append(records, record)
	}

	return records, rows.Err()
}

// ReturnLedger implements circulation.ReturnLedger on SQLite.
type ReturnLedger struct {
	db *sql.DB
}

var _ circulation.ReturnLedger = (*ReturnLedger)(nil)

// Append adds a return record. The conditional insert enforces the unique
// return id, the existing issue and the one-return-per-issue rule in a
// single statement; zero affected rows is classified afterwards.
func (l *ReturnLedger) Append(ctx context.Context, record circulation.ReturnRecord) error {
	result, err := l.db.ExecContext(ctx,
		`INSERT INTO return_ledger(return_id,issue_id,book_title,returned_at,condition)
         SELECT ?,?,?,?,?
         WHERE NOT EXISTS (SELECT 1 FROM return_ledger WHERE return_id=?)
         AND EXISTS (SELECT 1 FROM issue_ledger WHERE issue_id=?)
         AND NOT EXISTS (SELECT 1 FROM return_ledger WHERE issue_id=?)`,
		record.ID, record.IssueID, record.BookTitle, record.ReturnedAt.UTC(),
		string(record.Condition),
		record.ID, record.IssueID, record.IssueID)
	if err != nil {
		return fmt.Errorf("append return: %w", err)
	}

	count, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if count == 1 {
		return nil
	}

	return l.classifyRejectedAppend(ctx, record)
}

func (l *ReturnLedger) classifyRejectedAppend(ctx context.Context, record circulation.ReturnRecord) error {
	var exists bool

	if err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM return_ledger WHERE return_id=?)`, record.ID).
		Scan(&exists); err != nil {
		return fmt.Errorf("classify rejected return: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", circulation.ErrDuplicateReturnID, record.ID)
	}

	if err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM return_ledger WHERE issue_id=?)`, record.IssueID).
		Scan(&exists); err != nil {
		return fmt.Errorf("classify rejected return: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: issue %s", circulation.ErrAlreadyReturned, record.IssueID)
	}

	return fmt.Errorf("%w: %s", circulation.ErrIssueNotFound, record.IssueID)
}

// FindByIssueID returns the return record referencing the given issue, or
// ErrReturnNotFound if the issue is still open.
func (l *ReturnLedger) FindByIssueID(ctx context.Context, issueID string) (circulation.ReturnRecord, error) {
	var record circulation.ReturnRecord

	err := l.db.QueryRowContext(ctx,
		`SELECT return_id,issue_id,book_title,returned_at,condition
         FROM return_ledger WHERE issue_id=?`, issueID).
		Scan(&record.ID, &record.IssueID, &record.BookTitle, &record.ReturnedAt, &record.Condition)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.ReturnRecord{},
			fmt.Errorf("%w: no return for issue %s", circulation.ErrReturnNotFound, issueID)
	}
	if err != nil {
		return circulation.ReturnRecord{}, fmt.Errorf("find return: %w", err)
	}

	record.ReturnedAt = record.ReturnedAt.UTC()

	return record, nil
}

// ListAll returns the whole ledger in return order.
func (l *ReturnLedger) ListAll(ctx context.Context) ([]circulation.ReturnRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT return_id,issue_id,book_title,returned_at,condition
         FROM return_ledger ORDER BY returned_at, return_id`)
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	defer closeRows(rows)

	var records []circulation.ReturnRecord

	for rows.Next() {
		var record circulation.ReturnRecord

		if err = rows.Scan(&record.ID, &record.IssueID, &record.BookTitle,
			&record.ReturnedAt, &record.Condition); err != nil {
			return nil, fmt.Errorf("list returns: %w", err)
		}

		record.ReturnedAt = record.ReturnedAt.UTC()
		records = append(records, record)
	}

	return records, rows.Err()
}
