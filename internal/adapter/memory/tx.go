package memory

import "context"

// NoTx runs fn directly. The memory driver has no transactions: a failed
// save may leave already-stored children behind.
type NoTx struct{}

func (NoTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
