package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mohamedzaid0/Library-project-sql/circulation/engine"
)

// IssueOptions holds the flags for the issue command.
type IssueOptions struct {
	*RootOptions
	BookID     string
	MemberID   string
	EmployeeID string
	IssueID    string
}

// NewIssueCommand creates the issue command.
func NewIssueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IssueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a book to a member",
		Long: `Issue a book to a member, processed by an employee.

The availability flag and the issue record change together or not at all;
a book that is already on loan is refused.

Example:
  circulation issue --book b-1 --member m-1 --employee e-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssue(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.BookID, "book", "", "book id (required)")
	cmd.Flags().StringVar(&opts.MemberID, "member", "", "member id (required)")
	cmd.Flags().StringVar(&opts.EmployeeID, "employee", "", "processing employee id (required)")
	cmd.Flags().StringVar(&opts.IssueID, "id", "", "issue id (generated when omitted)")
	_ = cmd.MarkFlagRequired("book")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("employee")

	return cmd
}

func runIssue(cmd *cobra.Command, opts *IssueOptions) error {
	ctx := cmd.Context()

	storage, err := openBackend(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer storage.Close()

	issueID := opts.IssueID
	if issueID == "" {
		issueID = uuid.NewString()
	}

	record, err := newEngine(storage).Issue(ctx, engine.IssueCommand{
		BookID:     opts.BookID,
		MemberID:   opts.MemberID,
		EmployeeID: opts.EmployeeID,
		IssueID:    issueID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "issued %q as %s at %s\n",
		record.BookTitle, record.ID, record.IssuedAt.Format("2006-01-02 15:04:05"))

	return nil
}
