// Package availability implements the state machine governing a book's
// availability flag. The Controller is the single writer of the flag; it
// exposes exactly the two legal transitions and rejects everything else.
package availability

import (
	"context"
	"fmt"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

const (
	logMsgLoaned   = "availability transition: available -> on-loan"
	logMsgReleased = "availability transition: on-loan -> available"
	logAttrBookID  = "book_id"
)

// Controller owns the Available/OnLoan state machine for every book in the
// catalog. Transitions use compare-and-swap semantics on the backing store,
// so two concurrent transitions on the same book cannot both succeed.
type Controller struct {
	catalog circulation.CatalogStore
	logger  circulation.Logger
}

// Option defines a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger sets the logger for the Controller.
func WithLogger(logger circulation.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a Controller over the given catalog store.
func NewController(catalog circulation.CatalogStore, options ...Option) *Controller {
	controller := &Controller{catalog: catalog}

	for _, option := range options {
		option(controller)
	}

	return controller
}

// Loan transitions the book from Available to OnLoan. It fails with
// circulation.ErrBookUnavailable when the book is already on loan, which is
// the mechanism preventing double-issuance.
func (c *Controller) Loan(ctx context.Context, bookID string) error {
	swapped, err := c.catalog.SwapAvailability(ctx, bookID, circulation.Available, circulation.OnLoan)
	if err != nil {
		return err
	}

	if !swapped {
		return fmt.Errorf("%w: %s", circulation.ErrBookUnavailable, bookID)
	}

	if c.logger != nil {
		c.logger.Debug(logMsgLoaned, logAttrBookID, bookID)
	}

	return nil
}

// Release transitions the book from OnLoan back to Available. It fails with
// circulation.ErrBookNotOnLoan when the flag is already Available, e.g. on
// a duplicate return attempt.
func (c *Controller) Release(ctx context.Context, bookID string) error {
	swapped, err := c.catalog.SwapAvailability(ctx, bookID, circulation.OnLoan, circulation.Available)
	if err != nil {
		return err
	}

	if !swapped {
		return fmt.Errorf("%w: %s", circulation.ErrBookNotOnLoan, bookID)
	}

	if c.logger != nil {
		c.logger.Debug(logMsgReleased, logAttrBookID, bookID)
	}

	return nil
}
