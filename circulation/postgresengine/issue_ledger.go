package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

const (
	colIssueID        = "issue_id"
	colIssueMemberID  = "member_id"
	colIssueEmployee  = "employee_id"
	colIssueBookID    = "book_id"
	colIssueBookTitle = "book_title"
	colIssuedAt       = "issued_at"
)

// IssueLedger implements circulation.IssueLedger on Postgres.
type IssueLedger struct {
	stores *Stores
}

var _ circulation.IssueLedger = (*IssueLedger)(nil)

// Append adds an issue record. The insert only happens if no record with
// the same id exists yet, so a duplicate id from a concurrent writer loses
// the race instead of overwriting.
func (l *IssueLedger) Append(ctx context.Context, record circulation.IssueRecord) error {
	s := l.stores

	existsQuery := builder().
		From(s.tables.IssueLedger).
		Select(goqu.L("1")).
		Where(goqu.C(colIssueID).Eq(record.ID))

	sqlQuery, _, err := builder().
		Insert(s.tables.IssueLedger).
		Cols(colIssueID, colIssueMemberID, colIssueEmployee,
			colIssueBookID, colIssueBookTitle, colIssuedAt).
		FromQuery(goqu.From().
			Select(
				goqu.V(record.ID),
				goqu.V(record.MemberID),
				goqu.V(record.EmployeeID),
				goqu.V(record.BookID),
				goqu.V(record.BookTitle),
				goqu.V(record.IssuedAt.UTC().Format(time.RFC3339Nano)),
			).
			Where(goqu.L("NOT EXISTS ?", existsQuery))).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	rowsAffected, err := s.execStatement(ctx, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", circulation.ErrDuplicateIssueID, record.ID)
	}

	return nil
}

// Get loads a single issue record by id.
func (l *IssueLedger) Get(ctx context.Context, issueID string) (circulation.IssueRecord, error) {
	s := l.stores

	sqlQuery, _, err := issueSelect(s).
		Where(goqu.C(colIssueID).Eq(issueID)).
		ToSQL()
	if err != nil {
		return circulation.IssueRecord{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return circulation.IssueRecord{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.IssueRecord{}, fmt.Errorf("%w: %s", circulation.ErrIssueNotFound, issueID)
	}

	return scanIssue(ctx, s, rows)
}

// ListByMember returns all issues for one member in issue order.
func (l *IssueLedger) ListByMember(ctx context.Context, memberID string) ([]circulation.IssueRecord, error) {
	return l.list(ctx, goqu.C(colIssueMemberID).Eq(memberID))
}

// ListByEmployee returns all issues handled by one employee in issue order.
func (l *IssueLedger) ListByEmployee(ctx context.Context, employeeID string) ([]circulation.IssueRecord, error) {
	return l.list(ctx, goqu.C(colIssueEmployee).Eq(employeeID))
}

// ListByBook returns all issues of one book in issue order.
func (l *IssueLedger) ListByBook(ctx context.Context, bookID string) ([]circulation.IssueRecord, error) {
	return l.list(ctx, goqu.C(colIssueBookID).Eq(bookID))
}

// ListAll returns the whole ledger in issue order.
func (l *IssueLedger) ListAll(ctx context.Context) ([]circulation.IssueRecord, error) {
	return l.list(ctx)
}

// Delete removes an issue record. The delete only happens while no return
// record references the issue; a referenced issue stays untouched and the
// call fails with ErrReferentialIntegrity.
func (l *IssueLedger) Delete(ctx context.Context, issueID string) error {
	s := l.stores

	referencedQuery := builder().
		From(s.tables.ReturnLedger).
		Select(goqu.L("1")).
		Where(goqu.C(colReturnIssueID).Eq(issueID))

	sqlQuery, _, err := builder().
		Delete(s.tables.IssueLedger).
		Where(
			goqu.C(colIssueID).Eq(issueID),
			goqu.L("NOT EXISTS ?", referencedQuery),
		).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	rowsAffected, err := s.execStatement(ctx, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 1 {
		return nil
	}

	// Zero rows: either the issue is gone or a return blocks the delete.
	if _, getErr := l.Get(ctx, issueID); getErr != nil {
		return getErr
	}

	return fmt.Errorf("%w: issue %s has a recorded return", circulation.ErrReferentialIntegrity, issueID)
}

func (l *IssueLedger) list(ctx context.Context, conditions ...goqu.Expression) ([]circulation.IssueRecord, error) {
	s := l.stores

	query := issueSelect(s)
	if len(conditions) > 0 {
		query = query.Where(conditions...)
	}

	sqlQuery, _, err := query.
		Order(goqu.C(colIssuedAt).Asc(), goqu.C(colIssueID).Asc()).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	var records []circulation.IssueRecord

	for rows.Next() {
		record, scanErr := scanIssue(ctx, s, rows)
		if scanErr != nil {
			return nil, scanErr
		}

		records = append(records, record)
	}

	return records, nil
}

func issueSelect(s *Stores) *goqu.SelectDataset {
	return builder().
		From(s.tables.IssueLedger).
		Select(colIssueID, colIssueMemberID, colIssueEmployee,
			colIssueBookID, colIssueBookTitle, colIssuedAt)
}

func scanIssue(ctx context.Context, s *Stores, rows interface{ Scan(...any) error }) (circulation.IssueRecord, error) {
	var record circulation.IssueRecord

	if err := rows.Scan(
		&record.ID, &record.MemberID, &record.EmployeeID,
		&record.BookID, &record.BookTitle, &record.IssuedAt,
	); err != nil {
		s.logError(ctx, logMsgScanRowFailed, err)

		return circulation.IssueRecord{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	record.IssuedAt = record.IssuedAt.UTC()

	return record, nil
}
