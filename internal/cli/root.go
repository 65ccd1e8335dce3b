// Package cli implements the circulation admin command line: seeding the
// catalog and the directory, issuing, returning and voiding loans, and
// generating the overdue and activity reports.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/engine"
	"github.com/mohamedzaid0/Library-project-sql/circulation/fines"
	"github.com/mohamedzaid0/Library-project-sql/circulation/notify"
	"github.com/mohamedzaid0/Library-project-sql/circulation/postgresengine"
	"github.com/mohamedzaid0/Library-project-sql/circulation/sqliteengine"
)

// RootOptions holds the global flags shared by all commands.
type RootOptions struct {
	Database string
	Postgres bool
	Verbose  bool
}

// NewRootCommand creates the root command for the circulation CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "circulation",
		Short:         "Library circulation administration",
		Long:          "Manage the catalog and directory, issue and return books, and generate circulation reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogging(opts.Verbose)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "circulation.db", "path to the SQLite database")
	cmd.PersistentFlags().BoolVar(&opts.Postgres, "postgres", false,
		fmt.Sprintf("use Postgres via %s instead of SQLite", postgresengine.EnvPostgresDSN))
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewIssueCommand(opts))
	cmd.AddCommand(NewReturnCommand(opts))
	cmd.AddCommand(NewVoidCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

func configureLogging(verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

// backend bundles the storage contracts of whichever engine the flags
// selected, so the commands stay storage-agnostic.
type backend struct {
	catalog        circulation.CatalogStore
	catalogAdmin   circulation.CatalogAdmin
	directory      circulation.DirectoryStore
	directoryAdmin circulation.DirectoryAdmin
	issues         circulation.IssueLedger
	returns        circulation.ReturnLedger
	reportSink     fines.Sink

	close func() error
}

func (b *backend) Close() {
	if err := b.close(); err != nil {
		slog.Error("error closing storage", "error", err)
	}
}

func openBackend(ctx context.Context, opts *RootOptions) (*backend, error) {
	if opts.Postgres {
		return openPostgresBackend(ctx)
	}

	return openSQLiteBackend(opts.Database)
}

func openSQLiteBackend(dbPath string) (*backend, error) {
	stores, err := sqliteengine.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	return &backend{
		catalog:        stores.Catalog(),
		catalogAdmin:   stores.Catalog(),
		directory:      stores.Directory(),
		directoryAdmin: stores.Directory(),
		issues:         stores.IssueLedger(),
		returns:        stores.ReturnLedger(),
		reportSink:     stores.ReportSink(),
		close:          stores.Close,
	}, nil
}

func openPostgresBackend(ctx context.Context) (*backend, error) {
	db, err := postgresengine.OpenSQLDB(ctx, postgresengine.DSNFromEnv())
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres database: %w", err)
	}

	stores, err := postgresengine.NewStoresFromSQLDB(db, postgresengine.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}

	if err := stores.Migrate(ctx); err != nil {
		return nil, err
	}

	return &backend{
		catalog:        stores.Catalog(),
		catalogAdmin:   stores.Catalog(),
		directory:      stores.Directory(),
		directoryAdmin: stores.Directory(),
		issues:         stores.IssueLedger(),
		returns:        stores.ReturnLedger(),
		reportSink:     stores.ReportSink(),
		close:          db.Close,
	}, nil
}

// newEngine wires a circulation engine over the backend, logging through
// the process logger and echoing notifications to stderr.
func newEngine(b *backend) *engine.Engine {
	return engine.New(
		b.catalog,
		b.directory,
		b.issues,
		b.returns,
		engine.WithContextualLogger(slog.Default()),
		engine.WithNotifier(notify.NewWriterNotifier(os.Stderr)),
	)
}
