package ormdb

import "context"

// Table.db is bound once, at ConnectDriver time, to a single façade
// value — a table never learns it is inside a transaction or batch by
// being handed a different *Database. Instead Transaction/Batch thread
// their scoping through context.Context, and Exec consults it on every
// call. This is the same reason database/sql itself keys transactions
// off the *Tx value returned by BeginTx rather than mutating the *DB,
// adapted here because our dispatch seam is a method on Database, not a
// value callers pass around per statement.
type ctxKey int

const (
	batchKey ctxKey = iota
	txDriverKey
)

func withBatch(ctx context.Context, b *batchCollector) context.Context {
	return context.WithValue(ctx, batchKey, b)
}

func batchFromContext(ctx context.Context) (*batchCollector, bool) {
	b, ok := ctx.Value(batchKey).(*batchCollector)
	return b, ok
}

func withTxDriver(ctx context.Context, drv Driver) context.Context {
	return context.WithValue(ctx, txDriverKey, drv)
}

func txDriverFromContext(ctx context.Context) (Driver, bool) {
	drv, ok := ctx.Value(txDriverKey).(Driver)
	return drv, ok
}
