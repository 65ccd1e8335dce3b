package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/mohamedzaid0/Library-project-sql/circulation/fines"
)

// ReportSink implements fines.Sink on Postgres. Every materialization
// rebuilds its summary table from scratch: the rows are derived caches, so
// a delete-then-insert rebuild is always safe.
type ReportSink struct {
	stores *Stores
}

var _ fines.Sink = (*ReportSink)(nil)

// MaterializeOverdueFines rebuilds the overdue-fines summary table.
func (r *ReportSink) MaterializeOverdueFines(ctx context.Context, assessments []fines.Assessment) error {
	records := make([]goqu.Record, 0, len(assessments))

	for _, a := range assessments {
		records = append(records, goqu.Record{
			"issue_id":     a.IssueID,
			"book_id":      a.BookID,
			"book_title":   a.BookTitle,
			"member_id":    a.MemberID,
			"returned":     a.Returned,
			"overdue":      a.Overdue,
			"days_overdue": a.DaysOverdue,
			"fine":         a.Fine.String(),
			"assessed_at":  a.AssessedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	return r.rebuild(ctx, r.stores.tables.OverdueFines, records)
}

// MaterializeActiveMembers rebuilds the active-members summary table.
func (r *ReportSink) MaterializeActiveMembers(ctx context.Context, members []fines.MemberActivity) error {
	records := make([]goqu.Record, 0, len(members))

	for _, m := range members {
		records = append(records, goqu.Record{
			"member_id":      m.MemberID,
			"issue_count":    m.IssueCount,
			"last_issued_at": m.LastIssuedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	return r.rebuild(ctx, r.stores.tables.ActiveMembers, records)
}

// MaterializeBookIssueCounts rebuilds the per-book issue-count summary
// table.
func (r *ReportSink) MaterializeBookIssueCounts(ctx context.Context, counts []fines.BookIssueCount) error {
	records := make([]goqu.Record, 0, len(counts))

	for _, c := range counts {
		records = append(records, goqu.Record{
			"book_id":     c.BookID,
			"book_title":  c.BookTitle,
			"issue_count": c.IssueCount,
		})
	}

	return r.rebuild(ctx, r.stores.tables.BookIssueCounts, records)
}

// MaterializeCategoryIncome rebuilds the per-category income summary table.
func (r *ReportSink) MaterializeCategoryIncome(ctx context.Context, income []fines.CategoryIncome) error {
	records := make([]goqu.Record, 0, len(income))

	for _, i := range income {
		records = append(records, goqu.Record{
			"category": i.Category,
			"income":   i.Income.String(),
		})
	}

	return r.rebuild(ctx, r.stores.tables.CategoryIncome, records)
}

func (r *ReportSink) rebuild(ctx context.Context, table string, records []goqu.Record) error {
	s := r.stores

	deleteQuery, _, err := builder().
		Delete(table).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	if _, err = s.execStatement(ctx, deleteQuery); err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	rows := make([]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record)
	}

	insertQuery, _, err := builder().
		Insert(table).
		Rows(rows...).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	_, err = s.execStatement(ctx, insertQuery)

	return err
}
