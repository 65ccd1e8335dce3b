// Package memoryengine provides an in-memory implementation of every
// circulation storage contract. It is the store for tests and for small
// embedded deployments; semantics, including compare-and-swap availability
// and atomic duplicate-id rejection, match the SQL engines.
package memoryengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// Store holds the catalog, the directory and both ledgers behind one lock.
// All methods are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	books     map[string]circulation.Book
	members   map[string]circulation.Member
	employees map[string]circulation.Employee
	branches  map[string]circulation.Branch

	issues     map[string]circulation.IssueRecord
	issueOrder []string

	returns        map[string]circulation.ReturnRecord
	returnsByIssue map[string]string
	returnOrder    []string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		books:          make(map[string]circulation.Book),
		members:        make(map[string]circulation.Member),
		employees:      make(map[string]circulation.Employee),
		branches:       make(map[string]circulation.Branch),
		issues:         make(map[string]circulation.IssueRecord),
		returns:        make(map[string]circulation.ReturnRecord),
		returnsByIssue: make(map[string]string),
	}
}

// --- CatalogStore / CatalogAdmin ---

// GetBook returns the book or circulation.ErrBookNotFound.
func (s *Store) GetBook(_ context.Context, bookID string) (circulation.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[bookID]
	if !ok {
		return circulation.Book{}, fmt.Errorf("%w: %s", circulation.ErrBookNotFound, bookID)
	}

	return book, nil
}

// SwapAvailability atomically transitions the flag when the current state
// matches `from` and reports whether the swap happened.
func (s *Store) SwapAvailability(
	_ context.Context,
	bookID string,
	from, to circulation.Availability,
) (bool, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[bookID]
	if !ok {
		return false, fmt.Errorf("%w: %s", circulation.ErrBookNotFound, bookID)
	}

	if book.Availability != from {
		return false, nil
	}

	book.Availability = to
	s.books[bookID] = book

	return true, nil
}

// PutBook inserts or replaces a book. A zero availability flag defaults to
// Available.
func (s *Store) PutBook(_ context.Context, book circulation.Book) error {
	if book.Availability == "" {
		book.Availability = circulation.Available
	}

	if !book.Availability.IsValid() {
		return fmt.Errorf("%w: %q", circulation.ErrInvalidAvailability, book.Availability)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.books[book.ID] = book

	return nil
}

// ListBooks returns all books in unspecified order.
func (s *Store) ListBooks(_ context.Context) ([]circulation.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]circulation.Book, 0, len(s.books))
	for _, book := range s.books {
		books = append(books, book)
	}

	return books, nil
}

// --- DirectoryStore / DirectoryAdmin ---

// GetMember returns the member or circulation.ErrMemberNotFound.
func (s *Store) GetMember(_ context.Context, memberID string) (circulation.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.members[memberID]
	if !ok {
		return circulation.Member{}, fmt.Errorf("%w: %s", circulation.ErrMemberNotFound, memberID)
	}

	return member, nil
}

// GetEmployee returns the employee or circulation.ErrEmployeeNotFound.
func (s *Store) GetEmployee(_ context.Context, employeeID string) (circulation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, ok := s.employees[employeeID]
	if !ok {
		return circulation.Employee{}, fmt.Errorf("%w: %s", circulation.ErrEmployeeNotFound, employeeID)
	}

	return employee, nil
}

// GetBranch returns the branch or circulation.ErrBranchNotFound.
func (s *Store) GetBranch(_ context.Context, branchID string) (circulation.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branch, ok := s.branches[branchID]
	if !ok {
		return circulation.Branch{}, fmt.Errorf("%w: %s", circulation.ErrBranchNotFound, branchID)
	}

	return branch, nil
}

// PutMember inserts or replaces a member.
func (s *Store) PutMember(_ context.Context, member circulation.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members[member.ID] = member

	return nil
}

// UpdateMemberAddress is the one administrative mutation a member record
// allows.
func (s *Store) UpdateMemberAddress(_ context.Context, memberID string, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[memberID]
	if !ok {
		return fmt.Errorf("%w: %s", circulation.ErrMemberNotFound, memberID)
	}

	member.Address = address
	s.members[memberID] = member

	return nil
}

// PutEmployee inserts or replaces an employee. A non-empty manager
// reference must point to an existing employee; the back-reference is
// established in a second pass, never as a cyclic constraint.
func (s *Store) PutEmployee(_ context.Context, employee circulation.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.ManagerID != "" {
		if _, ok := s.employees[employee.ManagerID]; !ok {
			return fmt.Errorf("%w: manager %s", circulation.ErrEmployeeNotFound, employee.ManagerID)
		}
	}

	s.employees[employee.ID] = employee

	return nil
}

// PutBranch inserts or replaces a branch. A non-empty manager reference
// must name an employee assigned to this branch.
func (s *Store) PutBranch(_ context.Context, branch circulation.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if branch.ManagerID != "" {
		manager, ok := s.employees[branch.ManagerID]
		if !ok {
			return fmt.Errorf("%w: manager %s", circulation.ErrEmployeeNotFound, branch.ManagerID)
		}

		if manager.BranchID != branch.ID {
			return fmt.Errorf("%w: employee %s is at branch %q, not %q",
				circulation.ErrManagerNotAtBranch, manager.ID, manager.BranchID, branch.ID)
		}
	}

	s.branches[branch.ID] = branch

	return nil
}

// ListMembers returns all members in unspecified order.
func (s *Store) ListMembers(_ context.Context) ([]circulation.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]circulation.Member, 0, len(s.members))
	for _, member := range s.members {
		members = append(members, member)
	}

	return members, nil
}

// --- IssueLedger ---

// IssueLedger returns the issue-ledger view of this store.
func (s *Store) IssueLedger() circulation.IssueLedger {
	return issueLedger{s: s}
}

// ReturnLedger returns the return-ledger view of this store.
func (s *Store) ReturnLedger() circulation.ReturnLedger {
	return returnLedger{s: s}
}

// issueLedger implements circulation.IssueLedger on top of the shared
// store state.
type issueLedger struct {
	s *Store
}

// Append adds an issue record; a reused id is rejected atomically with
// circulation.ErrDuplicateIssueID.
func (l issueLedger) Append(_ context.Context, record circulation.IssueRecord) error {
	s := l.s

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.issues[record.ID]; exists {
		return fmt.Errorf("%w: %s", circulation.ErrDuplicateIssueID, record.ID)
	}

	s.issues[record.ID] = record
	s.issueOrder = append(s.issueOrder, record.ID)

	return nil
}

// Get returns the issue record or circulation.ErrIssueNotFound.
func (l issueLedger) Get(_ context.Context, issueID string) (circulation.IssueRecord, error) {
	s := l.s

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.issues[issueID]
	if !ok {
		return circulation.IssueRecord{}, fmt.Errorf("%w: %s", circulation.ErrIssueNotFound, issueID)
	}

	return record, nil
}

// ListByMember returns the member's issue records in append order.
func (l issueLedger) ListByMember(_ context.Context, memberID string) ([]circulation.IssueRecord, error) {
	return l.s.listIssues(func(record circulation.IssueRecord) bool {
		return record.MemberID == memberID
	}), nil
}

// ListByEmployee returns the employee's issue records in append order.
func (l issueLedger) ListByEmployee(_ context.Context, employeeID string) ([]circulation.IssueRecord, error) {
	return l.s.listIssues(func(record circulation.IssueRecord) bool {
		return record.EmployeeID == employeeID
	}), nil
}

// ListByBook returns the book's issue records in append order.
func (l issueLedger) ListByBook(_ context.Context, bookID string) ([]circulation.IssueRecord, error) {
	return l.s.listIssues(func(record circulation.IssueRecord) bool {
		return record.BookID == bookID
	}), nil
}

// ListAll returns all issue records in append order.
func (l issueLedger) ListAll(_ context.Context) ([]circulation.IssueRecord, error) {
	return l.s.listIssues(func(circulation.IssueRecord) bool { return true }), nil
}

// Delete removes an issue record. It refuses with ErrReferentialIntegrity
// while a return record references the issuance.
func (l issueLedger) Delete(_ context.Context, issueID string) error {
	s := l.s

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[issueID]; !ok {
		return fmt.Errorf("%w: %s", circulation.ErrIssueNotFound, issueID)
	}

	if _, referenced := s.returnsByIssue[issueID]; referenced {
		return fmt.Errorf("%w: issue %s", circulation.ErrReferentialIntegrity, issueID)
	}

	delete(s.issues, issueID)

	for i, id := range s.issueOrder {
		if id == issueID {
			s.issueOrder = append(s.issueOrder[:i], s.issueOrder[i+1:]...)
			break
		}
	}

	return nil
}

func (s *Store) listIssues(match func(circulation.IssueRecord) bool) []circulation.IssueRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]circulation.IssueRecord, 0)
	for _, id := range s.issueOrder {
		if record := s.issues[id]; match(record) {
			records = append(records, record)
		}
	}

	return records
}

// --- ReturnLedger ---

// returnLedger implements circulation.ReturnLedger on top of the shared
// store state.
type returnLedger struct {
	s *Store
}

// Append adds a return record, atomically enforcing both the return id
// uniqueness and the one-return-per-issue invariant.
func (l returnLedger) Append(_ context.Context, record circulation.ReturnRecord) error {
	s := l.s

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.returns[record.ID]; exists {
		return fmt.Errorf("%w: %s", circulation.ErrDuplicateReturnID, record.ID)
	}

	if _, exists := s.issues[record.IssueID]; !exists {
		return fmt.Errorf("%w: %s", circulation.ErrIssueNotFound, record.IssueID)
	}

	if _, returned := s.returnsByIssue[record.IssueID]; returned {
		return fmt.Errorf("%w: issue %s", circulation.ErrAlreadyReturned, record.IssueID)
	}

	s.returns[record.ID] = record
	s.returnsByIssue[record.IssueID] = record.ID
	s.returnOrder = append(s.returnOrder, record.ID)

	return nil
}

// FindByIssueID returns the return record referencing the issuance, or
// circulation.ErrReturnNotFound.
func (l returnLedger) FindByIssueID(_ context.Context, issueID string) (circulation.ReturnRecord, error) {
	s := l.s

	s.mu.RLock()
	defer s.mu.RUnlock()

	returnID, ok := s.returnsByIssue[issueID]
	if !ok {
		return circulation.ReturnRecord{}, fmt.Errorf("%w: issue %s", circulation.ErrReturnNotFound, issueID)
	}

	return s.returns[returnID], nil
}

// ListAll returns all return records in append order.
func (l returnLedger) ListAll(_ context.Context) ([]circulation.ReturnRecord, error) {
	s := l.s

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]circulation.ReturnRecord, 0, len(s.returnOrder))
	for _, id := range s.returnOrder {
		records = append(records, s.returns[id])
	}

	return records, nil
}
