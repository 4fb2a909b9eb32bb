package ormdb

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// batchCollector accumulates statements issued while a Batch callback
// runs, instead of dispatching them one at a time.
type batchCollector struct {
	statements []Statement
}

func (b *batchCollector) add(s Statement) {
	b.statements = append(b.statements, s)
}

// Batch runs fn with a context that queues every write issued through
// this façade's tables instead of executing it immediately, then
// flushes the queue: as one Batch call when the driver implements
// BatchDriver, otherwise one Exec per statement in order, stopping at
// the first error. Reads issued inside fn
// fail with ormerr.ErrReadInBatch, the same constraint an edge-runtime
// driver that exposes only a batched write API imposes natively,
// enforced here for every driver so batch semantics do not change
// depending on which one is wired in.
func (d *Database) Batch(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := batchFromContext(ctx); nested {
		return fmt.Errorf("ormlite: nested Batch is not supported")
	}
	collector := &batchCollector{}
	if err := fn(withBatch(ctx, collector)); err != nil {
		return err
	}
	if len(collector.statements) == 0 {
		return nil
	}
	if bd, ok := d.driver.(BatchDriver); ok {
		return bd.Batch(ctx, collector.statements)
	}
	for _, s := range collector.statements {
		if _, err := d.driver.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Transaction runs fn with a context bound to a driver-level
// transaction, committing on success and rolling back on error or
// panic. Drivers that do not implement Transactor (an async
// batch-write-only edge driver, for example) reject this with a
// descriptive error rather than silently running fn without isolation.
func (d *Database) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	txr, ok := d.driver.(Transactor)
	if !ok {
		return fmt.Errorf("ormlite: driver %T does not support transactions", d.driver)
	}

	txDriver, commit, rollback, err := txr.Begin(ctx)
	if err != nil {
		return err
	}

	txCtx := withTxDriver(ctx, txDriver)

	if err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				_ = rollback(ctx)
				panic(r)
			}
		}()
		return fn(txCtx)
	}(); err != nil {
		_ = rollback(ctx)
		return err
	}

	return commit(ctx)
}

// ParallelRead runs several independent read-only operations
// concurrently against this façade and returns their results in order,
// stopping at the first error. Built on golang.org/x/sync/errgroup for
// first-error cancellation; every read runs in its own goroutine, with
// no limit on how many run at once.
func (d *Database) ParallelRead(ctx context.Context, reads ...func(ctx context.Context) (any, error)) ([]any, error) {
	results := make([]any, len(reads))
	g, gctx := errgroup.WithContext(ctx)
	for i, read := range reads {
		i, read := i, read
		g.Go(func() error {
			v, err := read(gctx)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
