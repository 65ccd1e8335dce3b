package fines

import (
	"context"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var marshaler = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	reportOverdueFines    = "overdue_fines"
	reportActiveMembers   = "active_members"
	reportBookIssueCounts = "book_issue_counts"
	reportCategoryIncome  = "rental_income_by_category"
)

// JSONSink materializes report snapshots as newline-delimited JSON
// documents on a writer. Like every sink it is a rebuildable cache: each
// materialization is a full replacement snapshot, never an increment.
type JSONSink struct {
	mu     sync.Mutex
	writer io.Writer
	clock  func() time.Time
}

type reportEnvelope struct {
	Report      string `json:"report"`
	GeneratedAt string `json:"generated_at"`
	Rows        any    `json:"rows"`
}

// NewJSONSink creates a JSONSink writing to w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{writer: w, clock: time.Now}
}

// MaterializeOverdueFines writes the overdue-fines snapshot.
func (s *JSONSink) MaterializeOverdueFines(_ context.Context, assessments []Assessment) error {
	return s.write(reportOverdueFines, assessments)
}

// MaterializeActiveMembers writes the active-members snapshot.
func (s *JSONSink) MaterializeActiveMembers(_ context.Context, members []MemberActivity) error {
	return s.write(reportActiveMembers, members)
}

// MaterializeBookIssueCounts writes the per-book issue counts.
func (s *JSONSink) MaterializeBookIssueCounts(_ context.Context, counts []BookIssueCount) error {
	return s.write(reportBookIssueCounts, counts)
}

// MaterializeCategoryIncome writes the rental income per category.
func (s *JSONSink) MaterializeCategoryIncome(_ context.Context, income []CategoryIncome) error {
	return s.write(reportCategoryIncome, income)
}

func (s *JSONSink) write(report string, rows any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	document, err := marshaler.Marshal(reportEnvelope{
		Report:      report,
		GeneratedAt: s.clock().UTC().Format(time.RFC3339),
		Rows:        rows,
	})
	if err != nil {
		return err
	}

	if _, err = s.writer.Write(append(document, '\n')); err != nil {
		return err
	}

	return nil
}

var _ Sink = (*JSONSink)(nil)
