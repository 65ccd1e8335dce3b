package circulation

import (
	"errors"
)

// Not-found errors: a referenced entity is absent.
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrBranchNotFound   = errors.New("branch not found")
	ErrIssueNotFound    = errors.New("issue record not found")
	ErrReturnNotFound   = errors.New("return record not found")
)

// Conflict errors: deterministic business-rule rejections. They are never
// retried automatically; the conflict will not resolve itself.
var (
	ErrBookUnavailable   = errors.New("book is already on loan")
	ErrBookNotOnLoan     = errors.New("book is not on loan")
	ErrAlreadyReturned   = errors.New("issue record already has a return")
	ErrDuplicateIssueID  = errors.New("issue id already used")
	ErrDuplicateReturnID = errors.New("return id already used")
)

// ErrReferentialIntegrity reports an attempted removal of a record that is
// still referenced by another record.
var ErrReferentialIntegrity = errors.New("record is referenced by another record")

// Validation errors raised before any store is touched.
var (
	ErrInvalidCondition    = errors.New("invalid return condition")
	ErrInvalidAvailability = errors.New("invalid availability flag")
	ErrManagerNotAtBranch  = errors.New("branch manager is not an employee of the branch")
)

// ErrNilDatabaseConnection is returned by storage engine constructors when
// no database handle was supplied.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")

// IsNotFound reports whether err is one of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrBranchNotFound) ||
		errors.Is(err, ErrIssueNotFound) ||
		errors.Is(err, ErrReturnNotFound)
}

// IsConflict reports whether err is a deterministic business-rule conflict:
// a book already on loan, an issue already returned, or a duplicate
// identifier.
func IsConflict(err error) bool {
	return errors.Is(err, ErrBookUnavailable) ||
		errors.Is(err, ErrBookNotOnLoan) ||
		errors.Is(err, ErrAlreadyReturned) ||
		errors.Is(err, ErrDuplicateIssueID) ||
		errors.Is(err, ErrDuplicateReturnID)
}
