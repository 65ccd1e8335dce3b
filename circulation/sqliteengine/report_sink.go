package sqliteengine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mohamedzaid0/Library-project-sql/circulation/fines"
)

// ReportSink implements fines.Sink on SQLite. Each materialization rebuilds
// its summary table inside one transaction.
type ReportSink struct {
	db *sql.DB
}

var _ fines.Sink = (*ReportSink)(nil)

// MaterializeOverdueFines rebuilds the overdue-fines summary table.
func (r *ReportSink) MaterializeOverdueFines(ctx context.Context, assessments []fines.Assessment) error {
	return r.rebuild(ctx, `overdue_fines_snapshot`,
		`INSERT INTO overdue_fines_snapshot(issue_id,book_id,book_title,member_id,returned,overdue,days_overdue,fine,assessed_at)
         VALUES(?,?,?,?,?,?,?,?,?)`,
		len(assessments), func(i int) []any {
			a := assessments[i]
			return []any{a.IssueID, a.BookID, a.BookTitle, a.MemberID,
				a.Returned, a.Overdue, a.DaysOverdue, a.Fine.String(), a.AssessedAt.UTC()}
		})
}

// MaterializeActiveMembers rebuilds the active-members summary table.
func (r *ReportSink) MaterializeActiveMembers(ctx context.Context, members []fines.MemberActivity) error {
	return r.rebuild(ctx, `active_members_snapshot`,
		`INSERT INTO active_members_snapshot(member_id,issue_count,last_issued_at) VALUES(?,?,?)`,
		len(members), func(i int) []any {
			m := members[i]
			return []any{m.MemberID, m.IssueCount, m.LastIssuedAt.UTC()}
		})
}

// MaterializeBookIssueCounts rebuilds the per-book issue-count summary
// table.
func (r *ReportSink) MaterializeBookIssueCounts(ctx context.Context, counts []fines.BookIssueCount) error {
	return r.rebuild(ctx, `book_issue_counts_snapshot`,
		`INSERT INTO book_issue_counts_snapshot(book_id,book_title,issue_count) VALUES(?,?,?)`,
		len(counts), func(i int) []any {
			c := counts[i]
			return []any{c.BookID, c.BookTitle, c.IssueCount}
		})
}

// MaterializeCategoryIncome rebuilds the per-category income summary table.
func (r *ReportSink) MaterializeCategoryIncome(ctx context.Context, income []fines.CategoryIncome) error {
	return r.rebuild(ctx, `category_income_snapshot`,
		`INSERT INTO category_income_snapshot(category,income) VALUES(?,?)`,
		len(income), func(i int) []any {
			row := income[i]
			return []any{row.Category, row.Income.String()}
		})
}

func (r *ReportSink) rebuild(
	ctx context.Context,
	table string,
	insertQuery string,
	count int,
	args func(i int) []any,
) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rebuild %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("rebuild %s: %w", table, err)
	}

	for i := 0; i < count; i++ {
		if _, err = tx.ExecContext(ctx, insertQuery, args(i)...); err != nil {
			return fmt.Errorf("rebuild %s: %w", table, err)
		}
	}

	return tx.Commit()
}
