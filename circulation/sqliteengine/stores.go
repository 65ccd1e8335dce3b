package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// CatalogStore implements circulation.CatalogStore and
// circulation.CatalogAdmin on SQLite.
type CatalogStore struct {
	db *sql.DB
}

var (
	_ circulation.CatalogStore = (*CatalogStore)(nil)
	_ circulation.CatalogAdmin = (*CatalogStore)(nil)
)

// GetBook loads a single book by id.
func (c *CatalogStore) GetBook(ctx context.Context, bookID string) (circulation.Book, error) {
	var (
		book  circulation.Book
		price string
	)

	err := c.db.QueryRowContext(ctx,
		`SELECT book_id,title,category,rental_price,availability,author,publisher FROM books WHERE book_id=?`,
		bookID).
		Scan(&book.ID, &book.Title, &book.Category, &price, &book.Availability, &book.Author, &book.Publisher)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.Book{}, fmt.Errorf("%w: %s", circulation.ErrBookNotFound, bookID)
	}
	if err != nil {
		return circulation.Book{}, fmt.Errorf("get book: %w", err)
	}

	if book.RentalPrice, err = decimal.NewFromString(price); err != nil {
		return circulation.Book{}, fmt.Errorf("get book: %w", err)
	}

	return book, nil
}

// SwapAvailability transitions the availability flag with a guarded UPDATE.
// It reports true only if the row was in the expected state.
func (c *CatalogStore) SwapAvailability(
	ctx context.Context,
	bookID string,
	from circulation.Availability,
	to circulation.Availability,
) (bool, error) {

	result, err := c.db.ExecContext(ctx,
		`UPDATE books SET availability=? WHERE book_id=? AND availability=?`,
		string(to), bookID, string(from))
	if err != nil {
		return false, fmt.Errorf("swap availability: %w", err)
	}

	count, err := rowsAffected(result)
	if err != nil {
		return false, err
	}

	return count == 1, nil
}

// PutBook inserts a book or replaces an existing one with the same id.
func (c *CatalogStore) PutBook(ctx context.Context, book circulation.Book) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO books(book_id,title,category,rental_price,availability,author,publisher)
         VALUES(?,?,?,?,?,?,?)
         ON CONFLICT(book_id) DO UPDATE SET
             title=excluded.title, category=excluded.category,
             rental_price=excluded.rental_price, availability=excluded.availability,
             author=excluded.author, publisher=excluded.publisher`,
		book.ID, book.Title, book.Category, book.RentalPrice.String(),
		string(book.Availability), book.Author, book.Publisher)
	if err != nil {
		return fmt.Errorf("put book: %w", err)
	}

	return nil
}

// ListBooks returns the whole catalog ordered by id.
func (c *CatalogStore) ListBooks(ctx context.Context) ([]circulation.Book, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT book_id,title,category,rental_price,availability,author,publisher FROM books ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer closeRows(rows)

	var books []circulation.Book

	for rows.Next() {
		var (
			book  circulation.Book
			price string
		)

		if err = rows.Scan(&book.ID, &book.Title, &book.Category, &price,
			&book.Availability, &book.Author, &book.Publisher); err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}

		if book.RentalPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}

		books = append(books, book)
	}

	return books, rows.Err()
}

// DirectoryStore implements circulation.DirectoryStore and
// circulation.DirectoryAdmin on SQLite.
type DirectoryStore struct {
	db *sql.DB
}

var (
	_ circulation.DirectoryStore = (*DirectoryStore)(nil)
	_ circulation.DirectoryAdmin = (*DirectoryStore)(nil)
)

// GetMember loads a single member by id.
func (d *DirectoryStore) GetMember(ctx context.Context, memberID string) (circulation.Member, error) {
	var member circulation.Member

	err := d.db.QueryRowContext(ctx,
		`SELECT member_id,name,address,registered_at FROM members WHERE member_id=?`, memberID).
		Scan(&member.ID, &member.Name, &member.Address, &member.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.Member{}, fmt.Errorf("%w: %s", circulation.ErrMemberNotFound, memberID)
	}
	if err != nil {
		return circulation.Member{}, fmt.Errorf("get member: %w", err)
	}

	member.RegisteredAt = member.RegisteredAt.UTC()

	return member, nil
}

// GetEmployee loads a single employee by id.
func (d *DirectoryStore) GetEmployee(ctx context.Context, employeeID string) (circulation.Employee, error) {
	var (
		employee circulation.Employee
		salary   string
	)

	err := d.db.QueryRowContext(ctx,
		`SELECT employee_id,name,position,salary,branch_id,manager_id FROM employees WHERE employee_id=?`,
		employeeID).
		Scan(&employee.ID, &employee.Name, &employee.Position, &salary,
			&employee.BranchID, &employee.ManagerID)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.Employee{}, fmt.Errorf("%w: %s", circulation.ErrEmployeeNotFound, employeeID)
	}
	if err != nil {
		return circulation.Employee{}, fmt.Errorf("get employee: %w", err)
	}

	if employee.Salary, err = decimal.NewFromString(salary); err != nil {
		return circulation.Employee{}, fmt.Errorf("get employee: %w", err)
	}

	return employee, nil
}

// GetBranch loads a single branch by id.
func (d *DirectoryStore) GetBranch(ctx context.Context, branchID string) (circulation.Branch, error) {
	var branch circulation.Branch

	err := d.db.QueryRowContext(ctx,
		`SELECT branch_id,manager_id,address,contact FROM branches WHERE branch_id=?`, branchID).
		Scan(&branch.ID, &branch.ManagerID, &branch.Address, &branch.Contact)
	if errors.Is(err, sql.ErrNoRows) {
		return circulation.Branch{}, fmt.Errorf("%w: %s", circulation.ErrBranchNotFound, branchID)
	}
	if err != nil {
		return circulation.Branch{}, fmt.Errorf("get branch: %w", err)
	}

	return branch, nil
}

// PutMember inserts a member or replaces an existing one with the same id.
func (d *DirectoryStore) PutMember(ctx context.Context, member circulation.Member) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO members(member_id,name,address,registered_at)
         VALUES(?,?,?,?)
         ON CONFLICT(member_id) DO UPDATE SET
             name=excluded.name, address=excluded.address, registered_at=excluded.registered_at`,
		member.ID, member.Name, member.Address, member.RegisteredAt.UTC())
	if err != nil {
		return fmt.Errorf("put member: %w", err)
	}

	return nil
}

// UpdateMemberAddress changes the address of an existing member.
func (d *DirectoryStore) UpdateMemberAddress(ctx context.Context, memberID string, address string) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE members SET address=? WHERE member_id=?`, address, memberID)
	if err != nil {
		return fmt.Errorf("update member address: %w", err)
	}

	count, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if count == 0 {
		return fmt.Errorf("%w: %s", circulation.ErrMemberNotFound, memberID)
	}

	return nil
}

// PutEmployee inserts an employee or replaces an existing one. A non-empty
// manager id must reference an existing employee.
func (d *DirectoryStore) PutEmployee(ctx context.Context, employee circulation.Employee) error {
	if employee.ManagerID != "" {
		if _, err := d.GetEmployee(ctx, employee.ManagerID); err != nil {
			return err
		}
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO employees(employee_id,name,position,salary,branch_id,manager_id)
         VALUES(?,?,?,?,?,?)
         ON CONFLICT(employee_id) DO UPDATE SET
             name=excluded.name, position=excluded.position, salary=excluded.salary,
             branch_id=excluded.branch_id, manager_id=excluded.manager_id`,
		employee.ID, employee.Name, employee.Position, employee.Salary.String(),
		employee.BranchID, employee.ManagerID)
	if err != nil {
		return fmt.Errorf("put employee: %w", err)
	}

	return nil
}

// PutBranch inserts a branch or replaces an existing one. A non-empty
// manager id must reference an employee assigned to this branch.
func (d *DirectoryStore) PutBranch(ctx context.Context, branch circulation.Branch) error {
	if branch.ManagerID != "" {
		manager, err := d.GetEmployee(ctx, branch.ManagerID)
		if err != nil {
			return err
		}

		if manager.BranchID != branch.ID {
			return fmt.Errorf("%w: employee %s is assigned to branch %s",
				circulation.ErrManagerNotAtBranch, branch.ManagerID, manager.BranchID)
		}
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO branches(branch_id,manager_id,address,contact)
         VALUES(?,?,?,?)
         ON CONFLICT(branch_id) DO UPDATE SET
             manager_id=excluded.manager_id, address=excluded.address, contact=excluded.contact`,
		branch.ID, branch.ManagerID, branch.Address, branch.Contact)
	if err != nil {
		return fmt.Errorf("put branch: %w", err)
	}

	return nil
}

// ListMembers returns all members ordered by id.
func (d *DirectoryStore) ListMembers(ctx context.Context) ([]circulation.Member, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT member_id,name,address,registered_at FROM members ORDER BY member_id`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer closeRows(rows)

	var members []circulation.Member

	for rows.Next() {
		var member circulation.Member

		if err = rows.Scan(&member.ID, &member.Name, &member.Address, &member.RegisteredAt); err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}

		member.RegisteredAt = member.RegisteredAt.UTC()
		members = append(members, member)
	}

	return members, rows.Err()
}
