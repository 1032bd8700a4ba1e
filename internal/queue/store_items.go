package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NewItem describes an enqueue request. The store assigns id, created_at,
// install_order, and forces the initial state to pending.
type NewItem struct {
	ContentType ContentType
	ProfileID   string
	Display     bool
	DisplayName string
	Icon        string
	Metadata    Metadata
}

func (n NewItem) validate() error {
	if strings.TrimSpace(string(n.ContentType)) == "" {
		return validationErr("content type must not be empty")
	}
	if strings.TrimSpace(n.DisplayName) == "" {
		return validationErr("display name must not be empty")
	}
	if n.ContentType == ContentClient && strings.TrimSpace(n.ProfileID) == "" {
		return validationErr("client install requires a profile")
	}
	if n.Metadata == nil {
		switch n.ContentType {
		case ContentClient, ContentMod, ContentResourcepack, ContentShader, ContentModpack:
			return validationErr("%s install requires metadata", n.ContentType)
		}
		return nil
	}
	return n.Metadata.Validate()
}

// Enqueue inserts a new pending item, assigning the next install_order from
// the sequence table atomically with respect to concurrent callers.
func (s *Store) Enqueue(ctx context.Context, req NewItem) (*Item, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	metadataJSON, err := marshalMetadata(req.Metadata)
	if err != nil {
		return nil, err
	}

	if req.ProfileID != "" {
		profile, err := s.GetProfile(ctx, req.ProfileID)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, notFoundErr("profile", req.ProfileID)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var id int64
	err = s.txWithRetry(ctx, func(tx *sql.Tx) error {
		order, err := nextInstallOrder(ctx, tx)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO queue_items (
                state, install_order, display, display_name, icon,
                profile_id, content_type, metadata_json, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			StatePending,
			order,
			boolToInt(req.Display),
			strings.TrimSpace(req.DisplayName),
			nullableString(req.Icon),
			nullableString(req.ProfileID),
			req.ContentType,
			nullableString(metadataJSON),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert queue item: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func nextInstallOrder(ctx context.Context, tx *sql.Tx) (int64, error) {
	if _, err := tx.ExecContext(ctx, `UPDATE install_order_seq SET value = value + 1`); err != nil {
		return 0, fmt.Errorf("advance install order: %w", err)
	}
	var order int64
	if err := tx.QueryRowContext(ctx, `SELECT value FROM install_order_seq`).Scan(&order); err != nil {
		return 0, fmt.Errorf("read install order: %w", err)
	}
	return order, nil
}

// GetByID fetches a queue item by identifier. A missing item returns nil
// without error.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// NextPending returns the pending item with the lowest install_order, or nil.
func (s *Store) NextPending(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE state = ? ORDER BY install_order LIMIT 1`,
		StatePending,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return item, nil
}

// ListByState returns items in the given state. Pending and postponed items
// order by install_order ascending (dequeue order); completed and errored
// items order newest first for display.
func (s *Store) ListByState(ctx context.Context, state State, profileID string) ([]*Item, error) {
	if _, ok := stateSet[state]; !ok {
		return nil, validationErr("unknown state %q", state)
	}

	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE state = ?`
	args := []any{state}
	if profileID != "" {
		query += ` AND profile_id = ?`
		args = append(args, profileID)
	}
	switch state {
	case StateCompleted:
		query += ` ORDER BY completed_at DESC, id DESC`
	case StateErrored:
		query += ` ORDER BY created_at DESC, id DESC`
	default:
		query += ` ORDER BY install_order`
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by state: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// List returns queue items filtered by state set (or all items when no state
// is provided), ordered by install_order.
func (s *Store) List(ctx context.Context, states ...State) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM queue_items`
	args := make([]any, 0, len(states))
	if len(states) > 0 {
		placeholders := make([]string, len(states))
		for i, state := range states {
			placeholders[i] = "?"
			args = append(args, state)
		}
		query += ` WHERE state IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY install_order`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Remove deletes an item. The in-flight item cannot be removed; cancel it
// first so the installer can clean up.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM queue_items WHERE id = ? AND state != ?`,
		id, StateCurrent,
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return notFoundErr("item", id)
	}
	return invalidStateErr(id, item.State, "delete")
}

// Clear deletes all items in the given state. Clearing current is rejected.
func (s *Store) Clear(ctx context.Context, state State) (int64, error) {
	if _, ok := stateSet[state]; !ok {
		return 0, validationErr("unknown state %q", state)
	}
	if state == StateCurrent {
		return 0, fmt.Errorf("%w: cannot clear the in-flight item", ErrInvalidState)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE state = ?`, state)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", state, err)
	}
	return res.RowsAffected()
}

// ClearAll removes every item that is not currently installing.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE state != ?`, StateCurrent)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of items grouped by state.
func (s *Store) Stats(ctx context.Context) (map[State]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT state, COUNT(1) FROM queue_items GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[State]int)
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}

// Summary aggregates queue state counts for diagnostic output.
func (s *Store) Summary(ctx context.Context) (StatsSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return StatsSummary{}, err
	}
	summary := StatsSummary{}
	for state, count := range stats {
		summary.Total += count
		switch state {
		case StatePending:
			summary.Pending += count
		case StateCurrent:
			summary.Current += count
		case StateCompleted:
			summary.Completed += count
		case StateErrored:
			summary.Errored += count
		case StatePostponed:
			summary.Postponed += count
		}
	}
	return summary, nil
}
