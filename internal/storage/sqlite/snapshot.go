package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/settleup/internal/models"
)

// referencedUsersQuery resolves names for every user the group's rows mention,
// including people who have since left.
const referencedUsersQuery = `
SELECT id, display_name, COALESCE(email, '') FROM users WHERE id IN (
    SELECT user_id FROM group_members WHERE group_id = ?1
    UNION SELECT payer_id FROM expenses WHERE group_id = ?1
    UNION SELECT s.user_id FROM expense_splits s JOIN expenses e ON e.id = s.expense_id WHERE e.group_id = ?1
    UNION SELECT from_user_id FROM settlements WHERE group_id = ?1
    UNION SELECT to_user_id FROM settlements WHERE group_id = ?1
)`

// GroupSnapshot reads a group's members, names, expenses, splits and
// settlements as flat lists inside a single transaction.
func (s *SQLiteStore) GroupSnapshot(ctx context.Context, groupID string) (*models.GroupSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := getGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	snap := &models.GroupSnapshot{Group: group, Names: make(map[string]string)}

	if err := scanRows(ctx, tx, func(rows *sql.Rows) error {
		var u models.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email); err != nil {
			return err
		}
		snap.Names[u.ID] = u.Name()
		return nil
	}, referencedUsersQuery, groupID); err != nil {
		return nil, fmt.Errorf("failed to load user names: %w", err)
	}

	if err := scanRows(ctx, tx, func(rows *sql.Rows) error {
		var e models.Expense
		var deletedAt sql.NullInt64
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PayerID, &e.Amount, &e.Description,
			&e.CreatedBy, &e.CreatedAt, &deletedAt); err != nil {
			return err
		}
		e.DeletedAt = deletedAt.Int64
		snap.Expenses = append(snap.Expenses, e)
		return nil
	}, `SELECT id, group_id, payer_id, amount, description, created_by, created_at, deleted_at
	    FROM expenses WHERE group_id = ? ORDER BY created_at, id`, groupID); err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	if err := scanRows(ctx, tx, func(rows *sql.Rows) error {
		var split models.Split
		if err := rows.Scan(&split.ExpenseID, &split.UserID, &split.Amount); err != nil {
			return err
		}
		snap.Splits = append(snap.Splits, split)
		return nil
	}, `SELECT s.expense_id, s.user_id, s.amount
	    FROM expense_splits s JOIN expenses e ON e.id = s.expense_id
	    WHERE e.group_id = ? ORDER BY s.expense_id, s.user_id`, groupID); err != nil {
		return nil, fmt.Errorf("failed to load expense splits: %w", err)
	}

	if err := scanRows(ctx, tx, func(rows *sql.Rows) error {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return err
		}
		snap.Settlements = append(snap.Settlements, *settlement)
		return nil
	}, `SELECT `+settlementColumns+` FROM settlements WHERE group_id = ? ORDER BY created_at, id`, groupID); err != nil {
		return nil, fmt.Errorf("failed to load settlements: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return snap, nil
}

func scanRows(ctx context.Context, q queryer, scan func(*sql.Rows) error, query string, args ...any) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
