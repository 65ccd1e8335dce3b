package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/mohamedzaid0/Library-project-sql/circulation/fines"
)

const (
	reportOverdue        = "overdue"
	reportHighRisk       = "high-risk"
	reportActiveMembers  = "active-members"
	reportBookCounts     = "book-counts"
	reportCategoryIncome = "category-income"
)

var reportNames = []string{
	reportOverdue,
	reportHighRisk,
	reportActiveMembers,
	reportBookCounts,
	reportCategoryIncome,
}

// ReportOptions holds the flags for the report command.
type ReportOptions struct {
	*RootOptions
	AsOf        string
	Materialize bool
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("report <%s>", strings.Join(reportNames, "|")),
		Short: "Generate a circulation report",
		Long: `Generate a circulation report from the ledgers.

By default the report is written to stdout as newline-delimited JSON.
With --materialize the rows replace the report's snapshot table in the
selected database instead.

Example:
  circulation report overdue --as-of 2026-09-01
  circulation report category-income --materialize`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: reportNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "assessment date, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&opts.Materialize, "materialize", false, "write the rows to the report snapshot table")

	return cmd
}

func runReport(cmd *cobra.Command, opts *ReportOptions, name string) error {
	asOf := time.Now()
	if opts.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", opts.AsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of date %q: %w", opts.AsOf, err)
		}
		asOf = parsed
	}

	storage, err := openBackend(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer storage.Close()

	if opts.Materialize && name == reportHighRisk {
		return fmt.Errorf("report %s has no snapshot table and cannot be materialized", reportHighRisk)
	}

	sink := fines.Sink(fines.NewJSONSink(cmd.OutOrStdout()))
	if opts.Materialize {
		sink = storage.reportSink
	}

	if err := materializeReport(cmd.Context(), storage, sink, cmd.OutOrStdout(), name, asOf); err != nil {
		return err
	}

	if opts.Materialize {
		fmt.Fprintf(cmd.OutOrStdout(), "materialized report %s\n", name)
	}

	return nil
}

func materializeReport(
	ctx context.Context,
	storage *backend,
	sink fines.Sink,
	out io.Writer,
	name string,
	asOf time.Time,
) error {

	snapshot, err := fines.LoadSnapshot(ctx, storage.issues, storage.returns)
	if err != nil {
		return err
	}

	calculator := fines.NewCalculator(fines.DefaultConfig())

	switch name {
	case reportOverdue:
		assessments := fines.OverdueAssessments(calculator.AssessAll(snapshot, asOf))
		return sink.MaterializeOverdueFines(ctx, assessments)

	case reportHighRisk:
		return writeHighRisk(out, calculator.HighRiskMembers(snapshot))

	case reportActiveMembers:
		return sink.MaterializeActiveMembers(ctx, calculator.ActiveMembers(snapshot, asOf))

	case reportBookCounts:
		return sink.MaterializeBookIssueCounts(ctx, fines.BookIssueCounts(snapshot))

	case reportCategoryIncome:
		books, listErr := storage.catalogAdmin.ListBooks(ctx)
		if listErr != nil {
			return listErr
		}
		return sink.MaterializeCategoryIncome(ctx, fines.CategoryIncomes(snapshot, books))

	default:
		return fmt.Errorf("unknown report %q, expected one of %s", name, strings.Join(reportNames, ", "))
	}
}

// writeHighRisk prints the risk rows as one JSON document per line; the
// report is advisory and has no snapshot table.
func writeHighRisk(out io.Writer, risks []fines.MemberRisk) error {
	for _, risk := range risks {
		line, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(map[string]any{
			"member_id":       risk.MemberID,
			"damaged_returns": risk.DamagedReturns,
		})
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(out, "%s\n", line); err != nil {
			return err
		}
	}

	return nil
}
