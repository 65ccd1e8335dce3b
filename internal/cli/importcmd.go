package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// csvColumns is the expected header of a catalog import file. The id column
// is optional; rows without one get a generated id.
var csvColumns = []string{"id", "title", "category", "price", "author", "publisher"}

// NewImportCommand creates the import command for bulk catalog loading.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <books.csv>",
		Short: "Import books from a CSV file",
		Long: fmt.Sprintf(`Import books from a CSV file into the catalog.

The file must carry a header row naming a subset of the columns
%s; title is mandatory. Rows that fail to parse are
reported and skipped, the remaining rows are imported.`,
			strings.Join(csvColumns, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, args[0])
		},
	}

	return cmd
}

func runImport(cmd *cobra.Command, rootOpts *RootOptions, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return err
	}

	storage, err := openBackend(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer storage.Close()

	imported := 0
	skipped := 0

	for line := 2; ; line++ {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v, skipped\n", line, readErr)
			skipped++
			continue
		}

		book, rowErr := bookFromRow(columns, row)
		if rowErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v, skipped\n", line, rowErr)
			skipped++
			continue
		}

		if putErr := storage.catalogAdmin.PutBook(cmd.Context(), book); putErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v, skipped\n", line, putErr)
			skipped++
			continue
		}

		imported++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d book(s), skipped %d\n", imported, skipped)

	return nil
}

// mapColumns maps known column names to their position in the header row.
func mapColumns(header []string) (map[string]int, error) {
	known := make(map[string]bool, len(csvColumns))
	for _, column := range csvColumns {
		known[column] = true
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if !known[name] {
			return nil, fmt.Errorf("unknown CSV column %q", name)
		}
		columns[name] = i
	}

	if _, ok := columns["title"]; !ok {
		return nil, errors.New("CSV header is missing the title column")
	}

	return columns, nil
}

func bookFromRow(columns map[string]int, row []string) (circulation.Book, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	title := field("title")
	if title == "" {
		return circulation.Book{}, errors.New("empty title")
	}

	price := decimal.Zero
	if raw := field("price"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return circulation.Book{}, fmt.Errorf("invalid price %q: %w", raw, err)
		}
		price = parsed
	}

	id := field("id")
	if id == "" {
		id = uuid.NewString()
	}

	return circulation.Book{
		ID:          id,
		Title:       title,
		Category:    field("category"),
		RentalPrice: price,
		Author:      field("author"),
		Publisher:   field("publisher"),
	}, nil
}
