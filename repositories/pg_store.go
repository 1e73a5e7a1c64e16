package repositories

import (
	"context"
	"errors"
	"fmt"

	"dz-fellah/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Repos() Repos {
	return pgRepos(s.pool)
}

func pgRepos(db DBTX) Repos {
	return Repos{
		Products: &ProductRepositoryPG{db: db},
		Carts:    &CartRepositoryPG{db: db},
		Orders:   &OrderRepositoryPG{db: db},
	}
}

func (s *PgStore) WithTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return models.Aborted(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(pgRepos(tx)); err != nil {
		return classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Aborted(err)
	}
	return nil
}

func (s *PgStore) Close() {
	s.pool.Close()
}

// classify keeps business errors as they are and marks everything else,
// including serialization failures and deadlocks, as a retryable abort.
func classify(err error) error {
	if models.KindOf(err) != models.KindInternal {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return models.Aborted(fmt.Errorf("concurrent update (%s): %w", pgErr.Code, err))
		case "23505":
			return models.Aborted(fmt.Errorf("unique violation on %s: %w", pgErr.ConstraintName, err))
		}
	}
	return models.Aborted(err)
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return err
}
