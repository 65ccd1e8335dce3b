package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVoidCommand creates the void command.
func NewVoidCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "void <issue-id>",
		Short: "Void a mistaken issuance",
		Long: `Remove an issue record and restore the book's availability.

An issuance that has already been returned cannot be voided; it is part of
the permanent circulation history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoid(cmd, rootOpts, args[0])
		},
	}

	return cmd
}

func runVoid(cmd *cobra.Command, rootOpts *RootOptions, issueID string) error {
	ctx := cmd.Context()

	storage, err := openBackend(ctx, rootOpts)
	if err != nil {
		return err
	}
	defer storage.Close()

	if err := newEngine(storage).Void(ctx, issueID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "voided issue %s\n", issueID)

	return nil
}
