package repositories

import (
	"context"
)

// TransactionManager runs work inside a single storage transaction.
type TransactionManager interface {
	// WithTx runs fn with a context bound to a transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise. A WithTx call made
	// with a context that already carries a transaction runs as a nested
	// savepoint of the outer one.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
