package circulation

import (
	"time"
)

// Condition describes the state of a book on return.
type Condition string

const (
	ConditionGood    Condition = "good"
	ConditionDamaged Condition = "damaged"
	ConditionLost    Condition = "lost"
)

// IsValid reports whether the condition holds a known value.
func (c Condition) IsValid() bool {
	return c == ConditionGood || c == ConditionDamaged || c == ConditionLost
}

// IssueRecord is an append-only ledger entry recording the issuance of a
// book to a member, processed by an employee.
//
// BookTitle is a denormalized snapshot of the title at issue time so the
// ledger remains a faithful audit record even if the catalog changes.
// Records are immutable once appended and are never deleted except by
// explicit administrative correction.
type IssueRecord struct {
	ID         string
	MemberID   string
	EmployeeID string
	BookID     string
	BookTitle  string
	IssuedAt   time.Time
}

// ReturnRecord is an append-only ledger entry recording the return of a
// previously issued book. Each return references exactly one issue record,
// and each issue record has at most one return.
type ReturnRecord struct {
	ID         string
	IssueID    string
	BookTitle  string
	ReturnedAt time.Time
	Condition  Condition
}
