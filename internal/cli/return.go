package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/engine"
)

// ReturnOptions holds the flags for the return command.
type ReturnOptions struct {
	*RootOptions
	IssueID   string
	ReturnID  string
	Condition string
}

// NewReturnCommand creates the return command.
func NewReturnCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReturnOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "return",
		Short: "Return an issued book",
		Long: `Close an open issuance and release the book.

Each issuance can be returned exactly once; the condition of the returned
copy is recorded as good, damaged or lost.

Example:
  circulation return --issue 6a9c... --condition damaged`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReturn(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.IssueID, "issue", "", "issue id to close (required)")
	cmd.Flags().StringVar(&opts.ReturnID, "id", "", "return id (generated when omitted)")
	cmd.Flags().StringVar(&opts.Condition, "condition", string(circulation.ConditionGood),
		"condition of the returned copy (good|damaged|lost)")
	_ = cmd.MarkFlagRequired("issue")

	return cmd
}

func runReturn(cmd *cobra.Command, opts *ReturnOptions) error {
	ctx := cmd.Context()

	storage, err := openBackend(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer storage.Close()

	returnID := opts.ReturnID
	if returnID == "" {
		returnID = uuid.NewString()
	}

	record, err := newEngine(storage).Return(ctx, engine.ReturnCommand{
		IssueID:   opts.IssueID,
		ReturnID:  returnID,
		Condition: circulation.Condition(opts.Condition),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "returned %q (%s) as %s at %s\n",
		record.BookTitle, record.Condition, record.ID, record.ReturnedAt.Format("2006-01-02 15:04:05"))

	return nil
}
