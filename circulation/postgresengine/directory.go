package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

const (
	colMemberID           = "member_id"
	colMemberName         = "name"
	colMemberAddress      = "address"
	colMemberRegisteredAt = "registered_at"

	colEmployeeID       = "employee_id"
	colEmployeeName     = "name"
	colEmployeePosition = "position"
	colEmployeeSalary   = "salary"
	colEmployeeBranch   = "branch_id"
	colEmployeeManager  = "manager_id"

	colBranchID      = "branch_id"
	colBranchManager = "manager_id"
	colBranchAddress = "address"
	colBranchContact = "contact"
)

// DirectoryStore implements circulation.DirectoryStore and
// circulation.DirectoryAdmin on Postgres.
type DirectoryStore struct {
	stores *Stores
}

var (
	_ circulation.DirectoryStore = (*DirectoryStore)(nil)
	_ circulation.DirectoryAdmin = (*DirectoryStore)(nil)
)

// GetMember loads a single member by id.
func (d *DirectoryStore) GetMember(ctx context.Context, memberID string) (circulation.Member, error) {
	s := d.stores

	sqlQuery, _, err := builder().
		From(s.tables.Members).
		Select(colMemberID, colMemberName, colMemberAddress, colMemberRegisteredAt).
		Where(goqu.C(colMemberID).Eq(memberID)).
		ToSQL()
	if err != nil {
		return circulation.Member{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return circulation.Member{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.Member{}, fmt.Errorf("%w: %s", circulation.ErrMemberNotFound, memberID)
	}

	var member circulation.Member

	if err = rows.Scan(&member.ID, &member.Name, &member.Address, &member.RegisteredAt); err != nil {
		s.logError(ctx, logMsgScanRowFailed, err)

		return circulation.Member{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	member.RegisteredAt = member.RegisteredAt.UTC()

	return member, nil
}

// GetEmployee loads a single employee by id.
func (d *DirectoryStore) GetEmployee(ctx context.Context, employeeID string) (circulation.Employee, error) {
	s := d.stores

	// the salary is cast to text for the same reason as the rental price:
	// pgx's binary numeric results cannot be scanned into a string
	sqlQuery, _, err := builder().
		From(s.tables.Employees).
		Select(colEmployeeID, colEmployeeName, colEmployeePosition,
			goqu.Cast(goqu.C(colEmployeeSalary), "TEXT"),
			colEmployeeBranch, colEmployeeManager).
		Where(goqu.C(colEmployeeID).Eq(employeeID)).
		ToSQL()
	if err != nil {
		return circulation.Employee{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return circulation.Employee{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.Employee{}, fmt.Errorf("%w: %s", circulation.ErrEmployeeNotFound, employeeID)
	}

	return scanEmployee(ctx, s, rows)
}

// GetBranch loads a single branch by id.
func (d *DirectoryStore) GetBranch(ctx context.Context, branchID string) (circulation.Branch, error) {
	s := d.stores

	sqlQuery, _, err := builder().
		From(s.tables.Branches).
		Select(colBranchID, colBranchManager, colBranchAddress, colBranchContact).
		Where(goqu.C(colBranchID).Eq(branchID)).
		ToSQL()
	if err != nil {
		return circulation.Branch{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return circulation.Branch{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.Branch{}, fmt.Errorf("%w: %s", circulation.ErrBranchNotFound, branchID)
	}

	var branch circulation.Branch

	if err = rows.Scan(&branch.ID, &branch.ManagerID, &branch.Address, &branch.Contact); err != nil {
		s.logError(ctx, logMsgScanRowFailed, err)

		return circulation.Branch{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	return branch, nil
}

// PutMember inserts a member or, when the id exists, replaces its
// attributes.
func (d *DirectoryStore) PutMember(ctx context.Context, member circulation.Member) error {
	s := d.stores

	record := goqu.Record{
		colMemberID:           member.ID,
		colMemberName:         member.Name,
		colMemberAddress:      member.Address,
		colMemberRegisteredAt: member.RegisteredAt.UTC().Format(time.RFC3339Nano),
	}

	sqlQuery, _, err := builder().
		Insert(s.tables.Members).
		Rows(record).
		OnConflict(goqu.DoUpdate(colMemberID, record)).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	_, err = s.execStatement(ctx, sqlQuery)

	return err
}

// UpdateMemberAddress changes the address of an existing member.
func (d *DirectoryStore) UpdateMemberAddress(ctx context.Context, memberID string, address string) error {
	s := d.stores

	sqlQuery, _, err := builder().
		Update(s.tables.Members).
		Set(goqu.Record{colMemberAddress: address}).
		Where(goqu.C(colMemberID).Eq(memberID)).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	rowsAffected, err := s.execStatement(ctx, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", circulation.ErrMemberNotFound, memberID)
	}

	return nil
}

// PutEmployee inserts an employee or, when the id exists, replaces its
// attributes. A non-empty manager id must reference an existing employee.
func (d *DirectoryStore) PutEmployee(ctx context.Context, employee circulation.Employee) error {
	if employee.ManagerID != "" {
		if _, err := d.GetEmployee(ctx, employee.ManagerID); err != nil {
			return err
		}
	}

	s := d.stores

	record := goqu.Record{
		colEmployeeID:       employee.ID,
		colEmployeeName:     employee.Name,
		colEmployeePosition: employee.Position,
		colEmployeeSalary:   employee.Salary.String(),
		colEmployeeBranch:   employee.BranchID,
		colEmployeeManager:  employee.ManagerID,
	}

	sqlQuery, _, err := builder().
		Insert(s.tables.Employees).
		Rows(record).
		OnConflict(goqu.DoUpdate(colEmployeeID, record)).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	_, err = s.execStatement(ctx, sqlQuery)

	return err
}

// PutBranch inserts a branch or, when the id exists, replaces its
// attributes. A non-empty manager id must reference an employee assigned to
// this branch.
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

	s := d.stores

	record := goqu.Record{
		colBranchID:      branch.ID,
		colBranchManager: branch.ManagerID,
		colBranchAddress: branch.Address,
		colBranchContact: branch.Contact,
	}

	sqlQuery, _, err := builder().
		Insert(s.tables.Branches).
		Rows(record).
		OnConflict(goqu.DoUpdate(colBranchID, record)).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	_, err = s.execStatement(ctx, sqlQuery)

	return err
}

// ListMembers returns all members ordered by id.
func (d *DirectoryStore) ListMembers(ctx context.Context) ([]circulation.Member, error) {
	s := d.stores

	sqlQuery, _, err := builder().
		From(s.tables.Members).
		Select(colMemberID, colMemberName, colMemberAddress, colMemberRegisteredAt).
		Order(goqu.C(colMemberID).Asc()).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	var members []circulation.Member

	for rows.Next() {
		var member circulation.Member

		if err = rows.Scan(&member.ID, &member.Name, &member.Address, &member.RegisteredAt); err != nil {
			s.logError(ctx, logMsgScanRowFailed, err)

			return nil, errors.Join(ErrScanningDBRowFailed, err)
		}

		member.RegisteredAt = member.RegisteredAt.UTC()
		members = append(members, member)
	}

	return members, nil
}

func scanEmployee(ctx context.Context, s *Stores, rows interface{ Scan(...any) error }) (circulation.Employee, error) {
	var (
		employee circulation.Employee
		salary   string
	)

	if err := rows.Scan(
		&employee.ID, &employee.Name, &employee.Position, &salary,
		&employee.BranchID, &employee.ManagerID,
	); err != nil {
		s.logError(ctx, logMsgScanRowFailed, err)

		return circulation.Employee{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	parsed, err := decimal.NewFromString(salary)
	if err != nil {
		return circulation.Employee{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	employee.Salary = parsed

	return employee, nil
}
