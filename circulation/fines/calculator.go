// Package fines implements the overdue and fine calculator: pure, stateless
// computation over ledger snapshots. Every output is recomputable at any
// time from ledger state; nothing in this package is a system of record.
package fines

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

const (
	defaultGracePeriodDays  = 30
	defaultDamagedThreshold = 2
	defaultActiveWindowDays = 60
)

// defaultDailyRate is 0.50 currency units per overdue day.
var defaultDailyRate = decimal.New(50, -2)

// Config holds the business parameters of the calculator.
type Config struct {
	// GracePeriodDays is the number of days after issuance before overdue
	// fines begin accruing.
	GracePeriodDays int

	// DailyRate is the fine accrued per overdue day.
	DailyRate decimal.Decimal

	// DamagedThreshold is the count of damaged-condition returns at which a
	// member is flagged high-risk.
	DamagedThreshold int

	// ActiveWindowDays is the trailing window for the active-members report.
	ActiveWindowDays int
}

// DefaultConfig returns the default business parameters: 30 days grace,
// 0.50/day, 2 damaged returns, 60 days activity window.
func DefaultConfig() Config {
	return Config{
		GracePeriodDays:  defaultGracePeriodDays,
		DailyRate:        defaultDailyRate,
		DamagedThreshold: defaultDamagedThreshold,
		ActiveWindowDays: defaultActiveWindowDays,
	}
}

// Calculator computes overdue status and accrued fines from ledger
// snapshots. It holds no state beyond its configuration.
type Calculator struct {
	config Config
}

// NewCalculator creates a Calculator; zero-valued config fields fall back
// to the defaults.
func NewCalculator(config Config) *Calculator {
	defaults := DefaultConfig()

	if config.GracePeriodDays == 0 {
		config.GracePeriodDays = defaults.GracePeriodDays
	}

	if config.DailyRate.IsZero() {
		config.DailyRate = defaults.DailyRate
	}

	if config.DamagedThreshold == 0 {
		config.DamagedThreshold = defaults.DamagedThreshold
	}

	if config.ActiveWindowDays == 0 {
		config.ActiveWindowDays = defaults.ActiveWindowDays
	}

	return &Calculator{config: config}
}

// Assessment is the calculator's verdict on a single issuance.
//
// For an unreturned issuance the figures are computed against asOf; for a
// returned one they are frozen at the return date and never recomputed
// against "now".
type Assessment struct {
	IssueID     string
	BookID      string
	BookTitle   string
	MemberID    string
	Returned    bool
	Overdue     bool
	DaysOverdue int
	Fine        decimal.Decimal
	AssessedAt  time.Time
}

// Snapshot is an immutable view over both ledgers taken at one point in
// time, with the return records indexed by their issue reference.
type Snapshot struct {
	Issues  []circulation.IssueRecord
	Returns []circulation.ReturnRecord

	returnsByIssue map[string]circulation.ReturnRecord
}

// NewSnapshot builds a snapshot from already-loaded ledger contents.
func NewSnapshot(issues []circulation.IssueRecord, returns []circulation.ReturnRecord) Snapshot {
	byIssue := make(map[string]circulation.ReturnRecord, len(returns))
	for _, record := range returns {
		byIssue[record.IssueID] = record
	}

	return Snapshot{Issues: issues, Returns: returns, returnsByIssue: byIssue}
}

// LoadSnapshot reads both ledgers with eventual consistency; the figures
// are advisory, so slightly stale reads are acceptable and reporting must
// not load the primary.
func LoadSnapshot(
	ctx context.Context,
	issues circulation.IssueLedger,
	returns circulation.ReturnLedger,
) (Snapshot, error) {

	ctx = circulation.WithEventualConsistency(ctx)

	issueRecords, err := issues.ListAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	returnRecords, err := returns.ListAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	return NewSnapshot(issueRecords, returnRecords), nil
}

// ReturnFor returns the return record for the given issue id, if any.
func (s Snapshot) ReturnFor(issueID string) (circulation.ReturnRecord, bool) {
	record, ok := s.returnsByIssue[issueID]
	return record, ok
}

// Assess computes the assessment for a single issuance. Pass nil for
// returned when the issuance is still open; asOf defaults to the current
// date when zero.
func (c *Calculator) Assess(
	issue circulation.IssueRecord,
	returned *circulation.ReturnRecord,
	asOf time.Time,
) Assessment {

	if asOf.IsZero() {
		asOf = time.Now()
	}

	end := asOf
	if returned != nil {
		end = returned.ReturnedAt
	}

	daysOverdue := DaysBetween(issue.IssuedAt, end) - c.config.GracePeriodDays
	if daysOverdue < 0 {
		daysOverdue = 0
	}

	return Assessment{
		IssueID:     issue.ID,
		BookID:      issue.BookID,
		BookTitle:   issue.BookTitle,
		MemberID:    issue.MemberID,
		Returned:    returned != nil,
		Overdue:     returned == nil && daysOverdue > 0,
		DaysOverdue: daysOverdue,
		Fine:        c.config.DailyRate.Mul(decimal.NewFromInt(int64(daysOverdue))),
		AssessedAt:  end,
	}
}

// AssessAll computes an assessment for every issuance in the snapshot.
func (c *Calculator) AssessAll(snapshot Snapshot, asOf time.Time) []Assessment {
	assessments := make([]Assessment, 0, len(snapshot.Issues))

	for _, issue := range snapshot.Issues {
		var returned *circulation.ReturnRecord
		if record, ok := snapshot.ReturnFor(issue.ID); ok {
			returned = &record
		}

		assessments = append(assessments, c.Assess(issue, returned, asOf))
	}

	return assessments
}

// DaysBetween counts the whole calendar days from one instant's date to
// another's, evaluated in UTC.
func DaysBetween(from, to time.Time) int {
	return int(midnightUTC(to).Sub(midnightUTC(from)).Hours() / 24)
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
