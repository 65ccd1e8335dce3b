package circulation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member represents a registered library member.
// Immutable once created, except the address (administrative correction).
type Member struct {
	ID           string
	Name         string
	Address      string
	RegisteredAt time.Time
}

// Employee represents a library employee who can process issues and returns.
//
// ManagerID is an optional self-reference to another employee at the same
// branch. An empty ManagerID means the employee reports to nobody. The
// reference is established by lookup in a second pass, never by a cyclic
// schema constraint.
type Employee struct {
	ID        string
	Name      string
	Position  string
	Salary    decimal.Decimal
	BranchID  string
	ManagerID string
}

// Branch represents a library branch.
//
// ManagerID must reference an Employee whose BranchID is this branch.
// Directory stores validate this at write time.
type Branch struct {
	ID        string
	ManagerID string
	Address   string
	Contact   string
}
