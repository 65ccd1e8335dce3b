package circulation

import (
	"github.com/shopspring/decimal"
)

// Availability is the loanable state of a single physical book copy.
// It is the only mutable projection of "is this book loanable right now";
// everything else about circulation state is derived from the ledgers.
type Availability string

const (
	// Available means the book can be issued.
	Available Availability = "available"

	// OnLoan means the book is currently issued and cannot be issued again
	// until the open issue record is matched by a return.
	OnLoan Availability = "on-loan"
)

// IsValid reports whether the availability flag holds a known state.
func (a Availability) IsValid() bool {
	return a == Available || a == OnLoan
}

// Book represents a physical book copy in the catalog.
//
// The Availability flag is owned by the availability controller; no other
// component may write it. All other fields are catalog metadata.
type Book struct {
	ID           string
	Title        string
	Category     string
	RentalPrice  decimal.Decimal
	Availability Availability
	Author       string
	Publisher    string
}
