package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/settleup/internal/cache"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// maxGroupFanOut bounds concurrent group loads when totalling a user's
// balance across groups.
const maxGroupFanOut = 4

// Balances computes group and personal balances through the cache.
// It is shared by every service so reads and invalidations use the same keys.
type Balances struct {
	store   storage.Store
	cache   *cache.BalanceCache
	metrics *metrics.Metrics
}

// NewBalances wires the balance engine to a store and cache.
func NewBalances(store storage.Store, c *cache.BalanceCache, m *metrics.Metrics) *Balances {
	return &Balances{store: store, cache: c, metrics: m}
}

// Group returns the balances of every user who is an active member of the
// group or appears in its ledger, sorted by user ID.
func (b *Balances) Group(ctx context.Context, groupID string) ([]calculator.Balance, error) {
	return b.cache.GroupBalances(ctx, groupID, func(ctx context.Context) ([]calculator.Balance, error) {
		start := time.Now()
		snap, err := b.store.GroupSnapshot(ctx, groupID)
		if err != nil {
			return nil, err
		}
		balances := calculator.Aggregate(ledgerFromSnapshot(snap))
		if b.metrics != nil {
			b.metrics.AggregateDuration.Observe(time.Since(start).Seconds())
		}
		slog.Debug("Group balances computed", "group_id", groupID, "users", len(balances))
		return balances, nil
	})
}

// User returns the user's net balance summed over the groups they are an
// active member of.
func (b *Balances) User(ctx context.Context, userID string) (decimal.Decimal, error) {
	return b.cache.UserBalance(ctx, userID, func(ctx context.Context) (decimal.Decimal, error) {
		groupIDs, err := b.store.ListActiveGroupIDs(ctx, userID)
		if err != nil {
			return decimal.Zero, err
		}

		perGroup := make([]decimal.Decimal, len(groupIDs))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxGroupFanOut)
		for i, groupID := range groupIDs {
			g.Go(func() error {
				balances, err := b.Group(gctx, groupID)
				if err != nil {
					return fmt.Errorf("group %s: %w", groupID, err)
				}
				perGroup[i] = calculator.BalanceOf(balances, userID)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return decimal.Zero, err
		}

		total := decimal.Zero
		for _, amount := range perGroup {
			total = total.Add(amount)
		}
		return total, nil
	})
}

// Simplify returns the suggested transfers for balances. A residual left by
// the greedy walk is logged and counted, never returned.
func (b *Balances) Simplify(groupID string, balances []calculator.Balance) []calculator.DebtTransfer {
	transfers, report := calculator.SimplifyWithReport(balances)
	if !report.Clean() {
		level := slog.LevelWarn
		if report.Unmatched == 0 {
			level = slog.LevelDebug
		}
		slog.Log(context.Background(), level, "Debt simplification left a residual",
			"group_id", groupID,
			"residual", report.Residual.String(),
			"unmatched", report.Unmatched,
		)
		if b.metrics != nil {
			b.metrics.ResidualImbalances.Inc()
			b.metrics.ResidualAmount.Observe(report.Residual.InexactFloat64())
		}
	}
	return transfers
}

// Invalidate drops the group entry and the personal entries of userIDs.
// Call it after the write commits and before acknowledging it.
func (b *Balances) Invalidate(ctx context.Context, groupID string, userIDs ...string) error {
	if err := b.cache.Invalidate(ctx, groupID, userIDs...); err != nil {
		slog.Error("Balance cache invalidation failed",
			"group_id", groupID,
			"user_ids", userIDs,
			"error", err,
		)
		return err
	}
	return nil
}

// ledgerFromSnapshot flattens a snapshot into aggregator input. Members are
// the active members; people who left still appear through their ledger rows.
func ledgerFromSnapshot(snap *models.GroupSnapshot) calculator.Ledger {
	ledger := calculator.Ledger{
		Names:       snap.Names,
		Expenses:    make([]calculator.ExpenseRecord, len(snap.Expenses)),
		Splits:      make([]calculator.SplitRecord, len(snap.Splits)),
		Settlements: make([]calculator.SettlementRecord, len(snap.Settlements)),
	}
	if snap.Group != nil {
		ledger.Members = snap.Group.ActiveMemberIDs()
	}
	for i, e := range snap.Expenses {
		ledger.Expenses[i] = calculator.ExpenseRecord{
			ID:      e.ID,
			PayerID: e.PayerID,
			Amount:  e.Amount,
			Deleted: e.Deleted(),
		}
	}
	for i, s := range snap.Splits {
		ledger.Splits[i] = calculator.SplitRecord{
			ExpenseID: s.ExpenseID,
			UserID:    s.UserID,
			Amount:    s.Amount,
		}
	}
	for i, s := range snap.Settlements {
		ledger.Settlements[i] = calculator.SettlementRecord{
			FromUserID: s.FromUserID,
			ToUserID:   s.ToUserID,
			Amount:     s.Amount,
			Status:     string(s.Status),
		}
	}
	return ledger
}

func expenseRecords(expenses []models.Expense) []calculator.ExpenseRecord {
	records := make([]calculator.ExpenseRecord, len(expenses))
	for i, e := range expenses {
		records[i] = calculator.ExpenseRecord{ID: e.ID, PayerID: e.PayerID, Amount: e.Amount, Deleted: e.Deleted()}
	}
	return records
}
