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
	colReturnID        = "return_id"
	colReturnIssueID   = "issue_id"
	colReturnBookTitle = "book_title"
	colReturnedAt      = "returned_at"
	colReturnCondition = "condition"
)

// ReturnLedger implements circulation.ReturnLedger on Postgres.
type ReturnLedger struct {
	stores *Stores
}

var _ circulation.ReturnLedger = (*ReturnLedger)(nil)

// Append adds a return record. The insert only happens while the return id
// is unused, the referenced issue exists and no other return references the
// same issue. All three are checked in the same statement, so a racing
// writer loses with zero rows affected; the follow-up reads then classify
// which rule was violated.
func (l *ReturnLedger) Append(ctx context.Context, record circulation.ReturnRecord) error {
	s := l.stores

	duplicateIDQuery := builder().
		From(s.tables.ReturnLedger).
		Select(goqu.L("1")).
		Where(goqu.C(colReturnID).Eq(record.ID))

	issueExistsQuery := builder().
		From(s.tables.IssueLedger).
		Select(goqu.L("1")).
		Where(goqu.C(colIssueID).Eq(record.IssueID))

	alreadyReturnedQuery := builder().
		From(s.tables.ReturnLedger).
		Select(goqu.L("1")).
		Where(goqu.C(colReturnIssueID).Eq(record.IssueID))

	sqlQuery, _, err := builder().
		Insert(s.tables.ReturnLedger).
		Cols(colReturnID, colReturnIssueID, colReturnBookTitle,
			colReturnedAt, colReturnCondition).
		FromQuery(goqu.From().
			Select(
				goqu.V(record.ID),
				goqu.V(record.IssueID),
				goqu.V(record.BookTitle),
				goqu.V(record.ReturnedAt.UTC().Format(time.RFC3339Nano)),
				goqu.V(string(record.Condition)),
			).
			Where(
				goqu.L("NOT EXISTS ?", duplicateIDQuery),
				goqu.L("EXISTS ?", issueExistsQuery),
				goqu.L("NOT EXISTS ?", alreadyReturnedQuery),
			)).
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

	return l.classifyRejectedAppend(ctx, record)
}

// classifyRejectedAppend works out which invariant blocked a conditional
// insert that affected zero rows.
func (l *ReturnLedger) classifyRejectedAppend(ctx context.Context, record circulation.ReturnRecord) error {
	if _, err := l.get(ctx, record.ID); err == nil {
		return fmt.Errorf("%w: %s", circulation.ErrDuplicateReturnID, record.ID)
	} else if !errors.Is(err, circulation.ErrReturnNotFound) {
		return err
	}

	if _, err := l.FindByIssueID(ctx, record.IssueID); err == nil {
		return fmt.Errorf("%w: issue %s", circulation.ErrAlreadyReturned, record.IssueID)
	} else if !errors.Is(err, circulation.ErrReturnNotFound) {
		return err
	}

	return fmt.Errorf("%w: %s", circulation.ErrIssueNotFound, record.IssueID)
}

// FindByIssueID returns the return record referencing the given issue, or
// ErrReturnNotFound if the issue is still open.
func (l *ReturnLedger) FindByIssueID(ctx context.Context, issueID string) (circulation.ReturnRecord, error) {
	return l.find(ctx, goqu.C(colReturnIssueID).Eq(issueID),
		fmt.Errorf("%w: no return for issue %s", circulation.ErrReturnNotFound, issueID))
}

// ListAll returns the whole ledger in return order.
func (l *ReturnLedger) ListAll(ctx context.Context) ([]circulation.ReturnRecord, error) {
	s := l.stores

	sqlQuery, _, err := returnSelect(s).
		Order(goqu.C(colReturnedAt).Asc(), goqu.C(colReturnID).Asc()).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	var records []circulation.ReturnRecord

	for rows.Next() {
		record, scanErr := scanReturn(ctx, s, rows)
		if scanErr != nil {
			return nil, scanErr
		}

		records = append(records, record)
	}

	return records, nil
}

func (l *ReturnLedger) get(ctx context.Context, returnID string) (circulation.ReturnRecord, error) {
	return l.find(ctx, goqu.C(colReturnID).Eq(returnID),
		fmt.Errorf("%w: %s", circulation.ErrReturnNotFound, returnID))
}

func (l *ReturnLedger) find(
	ctx context.Context,
	condition goqu.Expression,
	notFound error,
) (circulation.ReturnRecord, error) {

	s := l.stores

	sqlQuery, _, err := returnSelect(s).
		Where(condition).
		ToSQL()
	if err != nil {
		return circulation.ReturnRecord{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return circulation.ReturnRecord{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.ReturnRecord{}, notFound
	}

	return scanReturn(ctx, s, rows)
}

func returnSelect(s *Stores) *goqu.SelectDataset {
	return builder().
		From(s.tables.ReturnLedger).
		Select(colReturnID, colReturnIssueID, colReturnBookTitle,
			colReturnedAt, colReturnCondition)
}

func scanReturn(ctx context.Context, s *Stores, rows interface{ Scan(...any) error }) (circulation.ReturnRecord, error) {
	var record circulation.ReturnRecord

	if err := rows.Scan(
		&record.ID, &record.IssueID, &record.BookTitle,
		&record.ReturnedAt, &record.Condition,
	); err != nil {
		s.logError(ctx, logMsgScanRowFailed, err)

		return circulation.ReturnRecord{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	record.ReturnedAt = record.ReturnedAt.UTC()

	return record, nil
}
