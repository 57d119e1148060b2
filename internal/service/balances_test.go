package service

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/settleup/internal/cache"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/pkg/logging"
)

func TestLedgerFromSnapshot(t *testing.T) {
	snap := &models.GroupSnapshot{
		Group: &models.Group{
			ID: "g1",
			Members: []models.Member{
				{UserID: "a", Status: models.MemberActive},
				{UserID: "b", Status: models.MemberLeft},
				{UserID: "c", Status: models.MemberActive},
			},
		},
		Names: map[string]string{"a": "Alice", "b": "Bob"},
		Expenses: []models.Expense{
			{ID: "e1", PayerID: "a", Amount: d("30")},
			{ID: "e2", PayerID: "b", Amount: d("99"), DeletedAt: 1700000000},
		},
		Splits: []models.Split{
			{ExpenseID: "e1", UserID: "a", Amount: d("10")},
			{ExpenseID: "e1", UserID: "b", Amount: d("10")},
			{ExpenseID: "e1", UserID: "c", Amount: d("10")},
			{ExpenseID: "e2", UserID: "c", Amount: d("99")},
		},
		Settlements: []models.Settlement{
			{FromUserID: "b", ToUserID: "a", Amount: d("10"), Status: models.SettlementCompleted},
			{FromUserID: "c", ToUserID: "a", Amount: d("10"), Status: models.SettlementPending},
		},
	}

	ledger := ledgerFromSnapshot(snap)
	if len(ledger.Members) != 2 || ledger.Members[0] != "a" || ledger.Members[1] != "c" {
		t.Errorf("members = %v, want [a c]", ledger.Members)
	}
	if !ledger.Expenses[1].Deleted {
		t.Error("soft-deleted expense not flagged")
	}

	balances := calculator.Aggregate(ledger)
	want := map[string]string{"a": "10", "b": "0", "c": "-10"}
	if len(balances) != len(want) {
		t.Fatalf("balances = %+v", balances)
	}
	for _, b := range balances {
		if !b.Amount.Equal(d(want[b.UserID])) {
			t.Errorf("balance[%s] = %s, want %s", b.UserID, b.Amount, want[b.UserID])
		}
	}
	if balances[1].UserName != "Bob" || balances[2].UserName != "c" {
		t.Errorf("names = %q/%q, want Bob/c", balances[1].UserName, balances[2].UserName)
	}
}

func TestBalances_SimplifyReportsResidual(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	b := NewBalances(nil, cache.NewBalanceCache(cache.NewMemoryStore(10)), m)

	clean := []calculator.Balance{
		{UserID: "a", Amount: d("10")},
		{UserID: "b", Amount: d("-10")},
	}
	if got := b.Simplify("g1", clean); len(got) != 1 {
		t.Fatalf("transfers = %+v, want one", got)
	}
	if n := testutil.ToFloat64(m.ResidualImbalances); n != 0 {
		t.Errorf("residual events = %v, want 0 for balanced input", n)
	}

	unbalanced := []calculator.Balance{
		{UserID: "a", Amount: d("10")},
		{UserID: "b", Amount: d("-4")},
	}
	transfers := b.Simplify("g1", unbalanced)
	if len(transfers) != 1 || !transfers[0].Amount.Equal(d("4")) {
		t.Errorf("transfers = %+v, want b -> a 4", transfers)
	}
	if n := testutil.ToFloat64(m.ResidualImbalances); n != 1 {
		t.Errorf("residual events = %v, want 1", n)
	}
}

func TestBalances_SimplifyDustLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, slog.LevelDebug))
	t.Cleanup(func() { slog.SetDefault(prev) })

	m := metrics.New(prometheus.NewRegistry())
	b := NewBalances(nil, cache.NewBalanceCache(cache.NewMemoryStore(10)), m)

	dust := []calculator.Balance{
		{UserID: "a", Amount: d("0.01")},
		{UserID: "b", Amount: d("-0.01")},
	}
	if got := b.Simplify("g1", dust); len(got) != 0 {
		t.Fatalf("transfers = %+v, want none", got)
	}
	if n := testutil.ToFloat64(m.ResidualImbalances); n != 1 {
		t.Errorf("residual events = %v, want 1", n)
	}
	out := buf.String()
	if !strings.Contains(out, "DBG") || strings.Contains(out, "WRN") {
		t.Errorf("dust residual should log at debug, got %q", out)
	}

	buf.Reset()
	b.Simplify("g1", []calculator.Balance{
		{UserID: "a", Amount: d("10")},
		{UserID: "b", Amount: d("-4")},
	})
	if !strings.Contains(buf.String(), "WRN") {
		t.Errorf("unmatched residual should log at warn, got %q", buf.String())
	}
}
