// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/settleup/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write loses a compare-and-set or breaks a
	// uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user. ID and CreatedAt are filled in when empty.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// CreateGroup persists a group with its initial active members.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with every membership row.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddMember adds a user to a group, reactivating a previous membership.
	AddMember(ctx context.Context, groupID, userID string) error

	// SetMemberStatus changes an existing membership's status.
	SetMemberStatus(ctx context.Context, groupID, userID string, status models.MemberStatus) error

	// ListActiveGroupIDs returns the groups where userID is an active member.
	ListActiveGroupIDs(ctx context.Context, userID string) ([]string, error)

	// CreateExpense persists an expense and its splits atomically.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// SoftDeleteExpense marks a live expense deleted. Deleting twice returns ErrConflict.
	SoftDeleteExpense(ctx context.Context, expenseID string) error

	// CreateSettlement persists a new settlement.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// UpdateSettlementStatus moves a settlement from one status to another.
	// Returns ErrConflict when the settlement is no longer in status from.
	UpdateSettlementStatus(ctx context.Context, settlementID string, from, to models.SettlementStatus) error

	// GroupSnapshot reads every row that feeds the group's balances in one
	// transaction, so concurrent writes are either fully visible or not at all.
	GroupSnapshot(ctx context.Context, groupID string) (*models.GroupSnapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
