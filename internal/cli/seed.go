package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// NewSeedCommand creates the seed command group for catalog and directory
// records.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert or replace catalog and directory records",
	}

	cmd.AddCommand(newSeedBookCommand(rootOpts))
	cmd.AddCommand(newSeedMemberCommand(rootOpts))
	cmd.AddCommand(newSeedEmployeeCommand(rootOpts))
	cmd.AddCommand(newSeedBranchCommand(rootOpts))

	return cmd
}

func newSeedBookCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id          string
		title       string
		category    string
		author      string
		publisher   string
		rentalPrice string
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Insert or replace a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			price, err := decimal.NewFromString(rentalPrice)
			if err != nil {
				return fmt.Errorf("invalid rental price %q: %w", rentalPrice, err)
			}

			return withBackend(cmd, rootOpts, func(storage *backend) error {
				book := circulation.Book{
					ID:          orGenerated(id),
					Title:       title,
					Category:    category,
					RentalPrice: price,
					Author:      author,
					Publisher:   publisher,
				}
				if err := storage.catalogAdmin.PutBook(cmd.Context(), book); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "book %s: %q\n", book.ID, book.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "book id (generated when omitted)")
	cmd.Flags().StringVar(&title, "title", "", "title (required)")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&author, "author", "", "author")
	cmd.Flags().StringVar(&publisher, "publisher", "", "publisher")
	cmd.Flags().StringVar(&rentalPrice, "price", "0.00", "rental price per issuance")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newSeedMemberCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id      string
		name    string
		address string
	)

	cmd := &cobra.Command{
		Use:   "member",
		Short: "Insert or replace a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, rootOpts, func(storage *backend) error {
				member := circulation.Member{
					ID:           orGenerated(id),
					Name:         name,
					Address:      address,
					RegisteredAt: time.Now(),
				}
				if err := storage.directoryAdmin.PutMember(cmd.Context(), member); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "member %s: %s\n", member.ID, member.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "member id (generated when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "name (required)")
	cmd.Flags().StringVar(&address, "address", "", "address")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSeedEmployeeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id        string
		name      string
		position  string
		salary    string
		branchID  string
		managerID string
	)

	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Insert or replace an employee",
		Long: `Insert or replace an employee.

A manager reference must name an already inserted employee, so insert
managers before their reports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pay, err := decimal.NewFromString(salary)
			if err != nil {
				return fmt.Errorf("invalid salary %q: %w", salary, err)
			}

			return withBackend(cmd, rootOpts, func(storage *backend) error {
				employee := circulation.Employee{
					ID:        orGenerated(id),
					Name:      name,
					Position:  position,
					Salary:    pay,
					BranchID:  branchID,
					ManagerID: managerID,
				}
				if err := storage.directoryAdmin.PutEmployee(cmd.Context(), employee); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "employee %s: %s\n", employee.ID, employee.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "employee id (generated when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "name (required)")
	cmd.Flags().StringVar(&position, "position", "", "position")
	cmd.Flags().StringVar(&salary, "salary", "0.00", "salary")
	cmd.Flags().StringVar(&branchID, "branch", "", "branch id")
	cmd.Flags().StringVar(&managerID, "manager", "", "manager employee id")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSeedBranchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id        string
		managerID string
		address   string
		contact   string
	)

	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Insert or replace a branch",
		Long: `Insert or replace a branch.

The branch manager must be an employee already assigned to this branch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, rootOpts, func(storage *backend) error {
				branch := circulation.Branch{
					ID:        orGenerated(id),
					ManagerID: managerID,
					Address:   address,
					Contact:   contact,
				}
				if err := storage.directoryAdmin.PutBranch(cmd.Context(), branch); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "branch %s\n", branch.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "branch id (generated when omitted)")
	cmd.Flags().StringVar(&managerID, "manager", "", "managing employee id")
	cmd.Flags().StringVar(&address, "address", "", "address")
	cmd.Flags().StringVar(&contact, "contact", "", "contact")

	return cmd
}

// withBackend opens the selected storage, runs fn and closes the storage
// again. Every seed subcommand follows this shape.
func withBackend(cmd *cobra.Command, rootOpts *RootOptions, fn func(*backend) error) error {
	storage, err := openBackend(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer storage.Close()

	return fn(storage)
}

func orGenerated(id string) string {
	if id != "" {
		return id
	}

	return uuid.NewString()
}
