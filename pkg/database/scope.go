package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// WithCompanyScope runs fn inside one transaction with row level security scoped to a company.
//
// The transaction is stored in the context handed to fn, so repository calls made through
// DB.Conn(ctx) join it. Either everything fn writes commits, or nothing does.
//
// Policies read the scope with current_setting('app.current_company')::uuid. SET LOCAL ends
// with the transaction, so pooled connections never leak a previous company.
func (db *DB) WithCompanyScope(ctx context.Context, companyID string, fn func(context.Context) error) error {
	// SET LOCAL cannot take bind parameters; only a well-formed UUID reaches the Sprintf.
	if _, err := uuid.Parse(companyID); err != nil {
		return fmt.Errorf("invalid company id %q: %w", companyID, err)
	}

	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.current_company = '%s'", companyID)); err != nil {
			return fmt.Errorf("failed to set app.current_company to %s: %w", companyID, err)
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}
