package circulation

import (
	"context"
)

// CatalogStore is the narrow contract to the catalog holding book records.
//
// SwapAvailability is the compare-and-swap primitive behind the availability
// controller: it transitions the flag only when the current state matches
// `from` and reports whether the swap happened. A failed swap is not an
// error at this level; the controller maps it to the proper conflict.
type CatalogStore interface {
	GetBook(ctx context.Context, bookID string) (Book, error)
	SwapAvailability(ctx context.Context, bookID string, from, to Availability) (bool, error)
}

// CatalogAdmin maintains catalog records. It is not used by the engine;
// seeding and corrections go through it.
type CatalogAdmin interface {
	PutBook(ctx context.Context, book Book) error
	ListBooks(ctx context.Context) ([]Book, error)
}

// DirectoryStore is the read-only contract to member and employee records.
type DirectoryStore interface {
	GetMember(ctx context.Context, memberID string) (Member, error)
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)
	GetBranch(ctx context.Context, branchID string) (Branch, error)
}

// DirectoryAdmin maintains directory records. PutBranch validates that the
// branch manager is an employee assigned to that branch, so employees must
// be inserted before the branch that names one of them as manager.
type DirectoryAdmin interface {
	PutMember(ctx context.Context, member Member) error
	UpdateMemberAddress(ctx context.Context, memberID string, address string) error
	PutEmployee(ctx context.Context, employee Employee) error
	PutBranch(ctx context.Context, branch Branch) error
	ListMembers(ctx context.Context) ([]Member, error)
}

// IssueLedger is the append-only record of issuance events: the source of
// truth for who holds what, since when.
//
// Append must enforce id uniqueness atomically with the insert; a duplicate
// id race is rejected with ErrDuplicateIssueID, never silently overwritten.
// Delete exists for administrative correction only and must not be part of
// any normal flow.
type IssueLedger interface {
	Append(ctx context.Context, record IssueRecord) error
	Get(ctx context.Context, issueID string) (IssueRecord, error)
	ListByMember(ctx context.Context, memberID string) ([]IssueRecord, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]IssueRecord, error)
	ListByBook(ctx context.Context, bookID string) ([]IssueRecord, error)
	ListAll(ctx context.Context) ([]IssueRecord, error)
	Delete(ctx context.Context, issueID string) error
}

// ReturnLedger is the append-only record of return events.
//
// Append must atomically enforce both uniqueness of the return id
// (ErrDuplicateReturnID) and uniqueness of the issue reference
// (ErrAlreadyReturned): at most one return per issuance.
type ReturnLedger interface {
	Append(ctx context.Context, record ReturnRecord) error
	FindByIssueID(ctx context.Context, issueID string) (ReturnRecord, error)
	ListAll(ctx context.Context) ([]ReturnRecord, error)
}
