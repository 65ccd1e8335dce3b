package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

const (
	colBookID           = "book_id"
	colBookTitle        = "title"
	colBookCategory     = "category"
	colBookRentalPrice  = "rental_price"
	colBookAvailability = "availability"
	colBookAuthor       = "author"
	colBookPublisher    = "publisher"
)

// CatalogStore implements circulation.CatalogStore and
// circulation.CatalogAdmin on Postgres.
type CatalogStore struct {
	stores *Stores
}

var (
	_ circulation.CatalogStore = (*CatalogStore)(nil)
	_ circulation.CatalogAdmin = (*CatalogStore)(nil)
)

// GetBook loads a single book by id.
func (c *CatalogStore) GetBook(ctx context.Context, bookID string) (circulation.Book, error) {
	s := c.stores

	sqlQuery, _, err := builder().
		From(s.tables.Books).
		Select(bookColumns()...).
		Where(goqu.C(colBookID).Eq(bookID)).
		ToSQL()
	if err != nil {
		return circulation.Book{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return circulation.Book{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.Book{}, fmt.Errorf("%w: %s", circulation.ErrBookNotFound, bookID)
	}

	return scanBook(ctx, s, rows)
}

// SwapAvailability transitions the availability flag of a book with a
// conditional update. It reports true if the row transitioned, false if the
// book was not in the expected state. Losing a race against a concurrent
// transition also reports false.
func (c *CatalogStore) SwapAvailability(
	ctx context.Context,
	bookID string,
	from circulation.Availability,
	to circulation.Availability,
) (bool, error) {

	s := c.stores

	sqlQuery, _, err := builder().
		Update(s.tables.Books).
		Set(goqu.Record{colBookAvailability: string(to)}).
		Where(
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colBookAvailability).Eq(string(from)),
		).
		ToSQL()
	if err != nil {
		return false, errors.Join(ErrBuildingQueryFailed, err)
	}

	rowsAffected, err := s.execStatement(ctx, sqlQuery)
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// PutBook inserts a book or, when the id exists, replaces its attributes.
func (c *CatalogStore) PutBook(ctx context.Context, book circulation.Book) error {
	s := c.stores

	record := goqu.Record{
		colBookID:           book.ID,
		colBookTitle:        book.Title,
		colBookCategory:     book.Category,
		colBookRentalPrice:  book.RentalPrice.String(),
		colBookAvailability: string(book.Availability),
		colBookAuthor:       book.Author,
		colBookPublisher:    book.Publisher,
	}

	sqlQuery, _, err := builder().
		Insert(s.tables.Books).
		Rows(record).
		OnConflict(goqu.DoUpdate(colBookID, record)).
		ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}

	_, err = s.execStatement(ctx, sqlQuery)

	return err
}

// ListBooks returns the whole catalog ordered by id.
func (c *CatalogStore) ListBooks(ctx context.Context) ([]circulation.Book, error) {
	s := c.stores

	sqlQuery, _, err := builder().
		From(s.tables.Books).
		Select(bookColumns()...).
		Order(goqu.C(colBookID).Asc()).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.queryRows(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	var books []circulation.Book

	for rows.Next() {
		book, scanErr := scanBook(ctx, s, rows)
		if scanErr != nil {
			return nil, scanErr
		}

		books = append(books, book)
	}

	return books, nil
}

// bookColumns selects the catalog columns with the numeric rental price
// cast to text: the pgx adapter delivers numeric results in binary format,
// which cannot be scanned into a string.
func bookColumns() []any {
	return []any{
		colBookID, colBookTitle, colBookCategory,
		goqu.Cast(goqu.C(colBookRentalPrice), "TEXT"),
		colBookAvailability, colBookAuthor, colBookPublisher,
	}
}

func scanBook(ctx context.Context, s *Stores, rows interface{ Scan(...any) error }) (circulation.Book, error) {
	var (
		book  circulation.Book
		price string
	)

	if err := rows.Scan(
		&book.ID, &book.Title, &book.Category, &price,
		&book.Availability, &book.Author, &book.Publisher,
	); err != nil {
		s.logError(ctx, logMsgScanRowFailed, err)

		return circulation.Book{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	rentalPrice, err := decimal.NewFromString(price)
	if err != nil {
		return circulation.Book{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	book.RentalPrice = rentalPrice

	return book, nil
}
