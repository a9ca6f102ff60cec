package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/healthsync/healthsync-api/internal/repository"
)

const (
	uniqueViolation = "23505"

	confirmedSlotIndex = "bookings_confirmed_slot_idx"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// listIDs and count back the id allocator for every table.
func (r *BaseRepository) listIDs(ctx context.Context, table, column string) ([]string, error) {
	var ids []string
	query := fmt.Sprintf(`SELECT %s FROM %s`, column, table)
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", table, err)
	}
	return ids, nil
}

func (r *BaseRepository) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (r *BaseRepository) deleteByID(ctx context.Context, table, column, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, column)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return expectRow(res)
}

// expectRow turns "no rows affected" into ErrNotFound.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// mapError normalizes driver errors into repository errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch {
		case pqErr.Constraint == confirmedSlotIndex:
			return repository.ErrSlotTaken
		case strings.HasSuffix(pqErr.Constraint, "_pkey"):
			return fmt.Errorf("%w: %s", repository.ErrIDTaken, pqErr.Constraint)
		default:
			return &repository.DuplicateError{Constraint: pqErr.Constraint, Err: err}
		}
	}
	return err
}

// wrap prefixes err with op unless it is already a repository sentinel.
func wrap(op string, err error) error {
	err = mapError(err)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrIDTaken),
		errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, repository.ErrSlotTaken):
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
