package payment

import "context"

// UnitOfWork runs a function against a transaction-scoped payment
// repository: every write made through it commits together or not at
// all. Batch allocation touches several payment rows and must roll back
// the earlier writes when a later one fails.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
