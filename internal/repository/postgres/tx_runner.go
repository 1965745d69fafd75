package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gstfiling/internal/port"
)

type txRunner struct {
	db *sqlx.DB
}

// NewTxRunner creates a TxRunner whose repositories share one sqlx.Tx.
func NewTxRunner(db *sqlx.DB) port.TxRunner {
	return &txRunner{db: db}
}

func (r *txRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repos) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("txRunner.Begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, reposFor(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("txRunner.Commit: %w", err)
	}
	return nil
}

// NewRepos returns repositories that run directly on the pool.
func NewRepos(db *sqlx.DB) port.Repos {
	return reposFor(db)
}

func reposFor(q sqlx.ExtContext) port.Repos {
	return port.Repos{
		Profiles: NewProfileRepo(q),
		Filings:  NewFilingRepo(q),
		Invoices: NewInvoiceRepo(q),
	}
}
