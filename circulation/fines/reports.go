package fines

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// MemberRisk reports a member whose damaged-condition return count reached
// the configured threshold. A fraud/abuse signal, not a ban.
type MemberRisk struct {
	MemberID       string
	DamagedReturns int
}

// MemberActivity reports a member with at least one issuance inside the
// trailing activity window.
type MemberActivity struct {
	MemberID     string
	IssueCount   int
	LastIssuedAt time.Time
}

// BookIssueCount is a summary row: how often a book has been issued.
type BookIssueCount struct {
	BookID     string
	BookTitle  string
	IssueCount int
}

// CategoryIncome is a summary row: rental income attributed to a catalog
// category, one rental price per issuance.
type CategoryIncome struct {
	Category string
	Income   decimal.Decimal
}

// Sink materializes calculator outputs into external summary storage.
// The materialized rows are write-once derived caches, rebuildable at any
// time; the engine and the calculator never read them back.
type Sink interface {
	MaterializeOverdueFines(ctx context.Context, assessments []Assessment) error
	MaterializeActiveMembers(ctx context.Context, members []MemberActivity) error
	MaterializeBookIssueCounts(ctx context.Context, counts []BookIssueCount) error
	MaterializeCategoryIncome(ctx context.Context, income []CategoryIncome) error
}

// HighRiskMembers joins returns to issues to members and flags every member
// with at least the configured number of damaged-condition returns.
func (c *Calculator) HighRiskMembers(snapshot Snapshot) []MemberRisk {
	damagedByMember := make(map[string]int)

	issuesByID := make(map[string]circulation.IssueRecord, len(snapshot.Issues))
	for _, issue := range snapshot.Issues {
		issuesByID[issue.ID] = issue
	}

	for _, record := range snapshot.Returns {
		if record.Condition != circulation.ConditionDamaged {
			continue
		}

		issue, ok := issuesByID[record.IssueID]
		if !ok {
			continue
		}

		damagedByMember[issue.MemberID]++
	}

	risks := make([]MemberRisk, 0)
	for memberID, count := range damagedByMember {
		if count >= c.config.DamagedThreshold {
			risks = append(risks, MemberRisk{MemberID: memberID, DamagedReturns: count})
		}
	}

	sort.Slice(risks, func(i, j int) bool { return risks[i].MemberID < risks[j].MemberID })

	return risks
}

// ActiveMembers reports every member with at least one issuance within the
// trailing activity window ending at asOf.
func (c *Calculator) ActiveMembers(snapshot Snapshot, asOf time.Time) []MemberActivity {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	windowStart := asOf.AddDate(0, 0, -c.config.ActiveWindowDays)
	byMember := make(map[string]*MemberActivity)

	for _, issue := range snapshot.Issues {
		if issue.IssuedAt.Before(windowStart) || issue.IssuedAt.After(asOf) {
			continue
		}

		activity, ok := byMember[issue.MemberID]
		if !ok {
			activity = &MemberActivity{MemberID: issue.MemberID}
			byMember[issue.MemberID] = activity
		}

		activity.IssueCount++
		if issue.IssuedAt.After(activity.LastIssuedAt) {
			activity.LastIssuedAt = issue.IssuedAt
		}
	}

	members := make([]MemberActivity, 0, len(byMember))
	for _, activity := range byMember {
		members = append(members, *activity)
	}

	sort.Slice(members, func(i, j int) bool { return members[i].MemberID < members[j].MemberID })

	return members
}

// OverdueAssessments filters AssessAll output down to the rows a fines
// report cares about: currently overdue issuances plus returned ones whose
// frozen fine is non-zero.
func OverdueAssessments(assessments []Assessment) []Assessment {
	filtered := make([]Assessment, 0)

	for _, assessment := range assessments {
		if assessment.Overdue || assessment.Fine.IsPositive() {
			filtered = append(filtered, assessment)
		}
	}

	return filtered
}

// BookIssueCounts aggregates the issue ledger per book.
func BookIssueCounts(snapshot Snapshot) []BookIssueCount {
	byBook := make(map[string]*BookIssueCount)

	for _, issue := range snapshot.Issues {
		count, ok := byBook[issue.BookID]
		if !ok {
			count = &BookIssueCount{BookID: issue.BookID, BookTitle: issue.BookTitle}
			byBook[issue.BookID] = count
		}

		count.IssueCount++
	}

	counts := make([]BookIssueCount, 0, len(byBook))
	for _, count := range byBook {
		counts = append(counts, *count)
	}

	sort.Slice(counts, func(i, j int) bool { return counts[i].BookID < counts[j].BookID })

	return counts
}

// CategoryIncomes attributes one rental price per issuance to the issued
// book's catalog category.
func CategoryIncomes(snapshot Snapshot, books []circulation.Book) []CategoryIncome {
	booksByID := make(map[string]circulation.Book, len(books))
	for _, book := range books {
		booksByID[book.ID] = book
	}

	byCategory := make(map[string]decimal.Decimal)

	for _, issue := range snapshot.Issues {
		book, ok := booksByID[issue.BookID]
		if !ok {
			continue
		}

		byCategory[book.Category] = byCategory[book.Category].Add(book.RentalPrice)
	}

	incomes := make([]CategoryIncome, 0, len(byCategory))
	for category, income := range byCategory {
		incomes = append(incomes, CategoryIncome{Category: category, Income: income})
	}

	sort.Slice(incomes, func(i, j int) bool { return incomes[i].Category < incomes[j].Category })

	return incomes
}
