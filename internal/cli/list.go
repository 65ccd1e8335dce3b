package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command group.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog, directory and ledger records",
	}

	cmd.AddCommand(newListBooksCommand(rootOpts))
	cmd.AddCommand(newListMembersCommand(rootOpts))
	cmd.AddCommand(newListIssuesCommand(rootOpts))

	return cmd
}

func newListBooksCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List all books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, rootOpts, func(storage *backend) error {
				books, err := storage.catalogAdmin.ListBooks(cmd.Context())
				if err != nil {
					return err
				}

				writer := newTabWriter(cmd)
				fmt.Fprintln(writer, "ID\tTITLE\tCATEGORY\tPRICE\tAVAILABILITY")
				for _, book := range books {
					fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
						book.ID, book.Title, book.Category, book.RentalPrice.StringFixed(2), book.Availability)
				}

				return writer.Flush()
			})
		},
	}
}

func newListMembersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List all members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, rootOpts, func(storage *backend) error {
				members, err := storage.directoryAdmin.ListMembers(cmd.Context())
				if err != nil {
					return err
				}

				writer := newTabWriter(cmd)
				fmt.Fprintln(writer, "ID\tNAME\tADDRESS\tREGISTERED")
				for _, member := range members {
					fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
						member.ID, member.Name, member.Address, member.RegisteredAt.Format("2006-01-02"))
				}

				return writer.Flush()
			})
		},
	}
}

func newListIssuesCommand(rootOpts *RootOptions) *cobra.Command {
	var memberID string

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List issue records, open and closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, rootOpts, func(storage *backend) error {
				ctx := cmd.Context()

				records, err := storage.issues.ListAll(ctx)
				if memberID != "" {
					records, err = storage.issues.ListByMember(ctx, memberID)
				}
				if err != nil {
					return err
				}

				writer := newTabWriter(cmd)
				fmt.Fprintln(writer, "ISSUE\tBOOK\tMEMBER\tISSUED\tSTATE")
				for _, record := range records {
					state := "open"
					if _, findErr := storage.returns.FindByIssueID(ctx, record.ID); findErr == nil {
						state = "returned"
					}

					fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
						record.ID, record.BookTitle, record.MemberID,
						record.IssuedAt.Format("2006-01-02"), state)
				}

				return writer.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&memberID, "member", "", "only issues of this member")

	return cmd
}

func newTabWriter(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}
