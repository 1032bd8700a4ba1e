package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TransitionExtra carries the side data a transition records.
type TransitionExtra struct {
	// ErrorMessage is stored on transitions into errored.
	ErrorMessage string
	// CompletedAt is stored on transitions into completed. Defaults to now.
	CompletedAt *time.Time
	// AssignNewOrder appends the item at the queue tail by taking a fresh
	// install_order. Used by retry and resume so returning items never jump
	// ahead of work enqueued while they were parked.
	AssignNewOrder bool
}

// Transition conditionally moves an item from one state to another. The
// update only applies while the item is still in the expected from state;
// a concurrent change surfaces as ErrConflict and the caller must re-read.
func (s *Store) Transition(ctx context.Context, id int64, from, to State, extra TransitionExtra) (*Item, error) {
	if _, ok := stateSet[from]; !ok {
		return nil, validationErr("unknown state %q", from)
	}
	if _, ok := stateSet[to]; !ok {
		return nil, validationErr("unknown state %q", to)
	}

	now := time.Now().UTC()
	err := s.txWithRetry(ctx, func(tx *sql.Tx) error {
		query := `UPDATE queue_items SET state = ?, updated_at = ?`
		args := []any{to, now.Format(time.RFC3339Nano)}

		switch to {
		case StateErrored:
			query += `, error_message = ?`
			args = append(args, nullableString(extra.ErrorMessage))
		case StateCompleted:
			completed := now
			if extra.CompletedAt != nil {
				completed = extra.CompletedAt.UTC()
			}
			query += `, completed_at = ?, error_message = NULL`
			args = append(args, completed.Format(time.RFC3339Nano))
		case StatePending:
			// Returning to pending always clears a stale failure reason.
			query += `, error_message = NULL`
		}

		if extra.AssignNewOrder {
			order, err := nextInstallOrder(ctx, tx)
			if err != nil {
				return err
			}
			query += `, install_order = ?`
			args = append(args, order)
		}

		query += ` WHERE id = ? AND state = ?`
		args = append(args, id, from)

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("transition item: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			return nil
		}

		var actual string
		scanErr := tx.QueryRowContext(ctx, `SELECT state FROM queue_items WHERE id = ?`, id).Scan(&actual)
		if scanErr == sql.ErrNoRows {
			return notFoundErr("item", id)
		}
		if scanErr != nil {
			return fmt.Errorf("read item state: %w", scanErr)
		}
		return conflictErr(id, from, State(actual))
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// Retry moves an errored item back to pending at the queue tail.
func (s *Store) Retry(ctx context.Context, id int64) (*Item, error) {
	return s.Transition(ctx, id, StateErrored, StatePending, TransitionExtra{AssignNewOrder: true})
}

// Postpone parks a pending item so the scheduler skips it.
func (s *Store) Postpone(ctx context.Context, id int64) (*Item, error) {
	return s.Transition(ctx, id, StatePending, StatePostponed, TransitionExtra{})
}

// Resume returns a postponed item to pending at the queue tail.
func (s *Store) Resume(ctx context.Context, id int64) (*Item, error) {
	return s.Transition(ctx, id, StatePostponed, StatePending, TransitionExtra{AssignNewOrder: true})
}

// RecoverOrphaned demotes items left in current by an earlier abnormal
// termination back to pending. The original install_order is kept, so the
// interrupted install is the first thing the scheduler picks up again.
func (s *Store) RecoverOrphaned(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET state = ?, error_message = NULL, updated_at = ? WHERE state = ?`,
		StatePending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StateCurrent,
	)
	if err != nil {
		return 0, fmt.Errorf("recover orphaned items: %w", err)
	}
	return res.RowsAffected()
}
