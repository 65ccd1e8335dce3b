// Package fixtures provides canonical catalog and directory records plus a
// pre-seeded in-memory store for tests.
package fixtures

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/memoryengine"
)

// Canonical fixture ids. Stable so tests can reference them directly.
const (
	BookID       = "b1000000-0000-0000-0000-000000000001"
	SecondBookID = "b1000000-0000-0000-0000-000000000002"
	MemberID     = "a1000000-0000-0000-0000-000000000001"
	EmployeeID   = "e1000000-0000-0000-0000-000000000001"
	ManagerID    = "e1000000-0000-0000-0000-000000000002"
	BranchID     = "f1000000-0000-0000-0000-000000000001"
)

// Book returns the canonical available book.
func Book() circulation.Book {
	return circulation.Book{
		ID:           BookID,
		Title:        "The Go Programming Language",
		Category:     "Programming",
		RentalPrice:  decimal.RequireFromString("4.50"),
		Availability: circulation.Available,
		Author:       "Donovan, Kernighan",
		Publisher:    "Addison-Wesley",
	}
}

// SecondBook returns another available book in a different category.
func SecondBook() circulation.Book {
	return circulation.Book{
		ID:           SecondBookID,
		Title:        "Domain-Driven Design",
		Category:     "Architecture",
		RentalPrice:  decimal.RequireFromString("6.00"),
		Availability: circulation.Available,
		Author:       "Evans",
		Publisher:    "Addison-Wesley",
	}
}

// Member returns the canonical member.
func Member() circulation.Member {
	return circulation.Member{
		ID:           MemberID,
		Name:         "Anna Example",
		Address:      "1 Main Street",
		RegisteredAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Employee returns the canonical desk employee.
func Employee() circulation.Employee {
	return circulation.Employee{
		ID:       EmployeeID,
		Name:     "Bert Clerk",
		Position: "librarian",
		Salary:   decimal.NewFromInt(3200),
		BranchID: BranchID,
	}
}

// Manager returns the canonical branch manager.
func Manager() circulation.Employee {
	return circulation.Employee{
		ID:       ManagerID,
		Name:     "Clara Manager",
		Position: "manager",
		Salary:   decimal.NewFromInt(4500),
		BranchID: BranchID,
	}
}

// Branch returns the canonical branch, managed by Manager.
func Branch() circulation.Branch {
	return circulation.Branch{
		ID:        BranchID,
		ManagerID: ManagerID,
		Address:   "3 Branch Road",
		Contact:   "branch@example.org",
	}
}

// SeededStore returns an in-memory store loaded with the canonical catalog
// and directory records.
func SeededStore() *memoryengine.Store {
	ctx := context.Background()
	store := memoryengine.NewStore()

	mustPut := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	mustPut(store.PutBook(ctx, Book()))
	mustPut(store.PutBook(ctx, SecondBook()))
	mustPut(store.PutMember(ctx, Member()))
	mustPut(store.PutEmployee(ctx, Employee()))
	mustPut(store.PutEmployee(ctx, Manager()))
	mustPut(store.PutBranch(ctx, Branch()))

	return store
}
