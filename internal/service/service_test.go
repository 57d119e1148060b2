package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/cache"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/rpc"
	"github.com/mmynk/settleup/internal/storage/sqlite"
)

// flakyStore is a MemoryStore whose deletes can be made to fail.
type flakyStore struct {
	*cache.MemoryStore
	failDelete atomic.Bool
}

func (f *flakyStore) Delete(ctx context.Context, keys ...string) error {
	if f.failDelete.Load() {
		return errors.New("cache unreachable")
	}
	return f.MemoryStore.Delete(ctx, keys...)
}

type testEnv struct {
	groups   *rpc.GroupServiceClient
	ledger   *rpc.LedgerServiceClient
	balances *rpc.BalanceServiceClient

	store      *sqlite.SQLiteStore
	cacheStore *flakyStore
	metrics    *metrics.Metrics
	jwt        *auth.JWTManager
}

// setupTestServer serves all three services over httptest with auth and
// logging interceptors, backed by a temp SQLite file and an in-memory cache.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cacheStore := &flakyStore{MemoryStore: cache.NewMemoryStore(1000)}
	m := metrics.New(prometheus.NewRegistry())
	balances := NewBalances(store, cache.NewBalanceCache(cacheStore, cache.WithMetrics(m)), m)
	jwtManager := auth.NewJWTManager("test-secret-0123456789", time.Hour)

	opts := connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor())
	mux := http.NewServeMux()
	mux.Handle(rpc.NewGroupServiceHandler(NewGroupService(store, balances), opts))
	mux.Handle(rpc.NewLedgerServiceHandler(NewLedgerService(store, balances, "INR"), opts))
	mux.Handle(rpc.NewBalanceServiceHandler(NewBalanceService(store, balances, "INR"), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		groups:     rpc.NewGroupServiceClient(http.DefaultClient, server.URL),
		ledger:     rpc.NewLedgerServiceClient(http.DefaultClient, server.URL),
		balances:   rpc.NewBalanceServiceClient(http.DefaultClient, server.URL),
		store:      store,
		cacheStore: cacheStore,
		metrics:    m,
		jwt:        jwtManager,
	}
}

// token mints a bearer token for userID without registering the user.
func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.jwt.Generate(&models.User{ID: userID, Email: userID + "@example.com"})
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return tok
}

// register creates a user through the API and returns their token.
func (e *testEnv) register(t *testing.T, userID, name string) string {
	t.Helper()
	tok := e.token(t, userID)
	_, err := e.groups.CreateUser(context.Background(), authed(tok, &rpc.CreateUserRequest{DisplayName: name}))
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", userID, err)
	}
	return tok
}

func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func wantCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	if got := connect.CodeOf(err); got != code {
		t.Fatalf("code = %v, want %v (err: %v)", got, code, err)
	}
}

// dinner registers alice, bob and carol and puts them in one group.
type dinner struct {
	env               *testEnv
	groupID           string
	alice, bob, carol string
}

func setupDinner(t *testing.T) *dinner {
	t.Helper()
	env := setupTestServer(t)
	dn := &dinner{
		env:   env,
		alice: env.register(t, "alice", "Alice"),
		bob:   env.register(t, "bob", "Bob"),
		carol: env.register(t, "carol", "Carol"),
	}

	resp, err := env.groups.CreateGroup(context.Background(), authed(dn.alice, &rpc.CreateGroupRequest{
		Name:      "Dinner",
		MemberIDs: []string{"bob", "carol"},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	dn.groupID = resp.Msg.Group.ID
	return dn
}

func (dn *dinner) balances(t *testing.T, token string) *rpc.GetGroupBalancesResponse {
	t.Helper()
	resp, err := dn.env.balances.GetGroupBalances(context.Background(), authed(token, &rpc.GetGroupBalancesRequest{GroupID: dn.groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	return resp.Msg
}

func (dn *dinner) expense(t *testing.T, token, payer, amount string, splits ...rpc.SplitInput) rpc.Expense {
	t.Helper()
	resp, err := dn.env.ledger.CreateExpense(context.Background(), authed(token, &rpc.CreateExpenseRequest{
		GroupID:     dn.groupID,
		PayerID:     payer,
		Amount:      d(amount),
		Description: "test",
		Splits:      splits,
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

// settle creates a settlement from -> to and has the recipient complete it.
func (dn *dinner) settle(t *testing.T, fromToken, from, toToken, to, amount string) {
	t.Helper()
	ctx := context.Background()
	created, err := dn.env.ledger.CreateSettlement(ctx, authed(fromToken, &rpc.CreateSettlementRequest{
		GroupID:    dn.groupID,
		FromUserID: from,
		ToUserID:   to,
		Amount:     d(amount),
		Method:     "upi",
	}))
	if err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}
	if _, err := dn.env.ledger.CompleteSettlement(ctx, authed(toToken, &rpc.CompleteSettlementRequest{
		SettlementID: created.Msg.Settlement.ID,
	})); err != nil {
		t.Fatalf("CompleteSettlement failed: %v", err)
	}
}

func balanceMap(t *testing.T, balances []rpc.UserBalance) map[string]decimal.Decimal {
	t.Helper()
	out := make(map[string]decimal.Decimal, len(balances))
	sum := decimal.Zero
	for _, b := range balances {
		out[b.UserID] = b.BalanceINR
		sum = sum.Add(b.BalanceINR)
		if b.Currency != "INR" {
			t.Errorf("currency = %q, want INR", b.Currency)
		}
		if !b.BalanceCurrency.Equal(b.BalanceINR) {
			t.Errorf("%s balance_currency = %s, want %s", b.UserID, b.BalanceCurrency, b.BalanceINR)
		}
	}
	if !sum.IsZero() {
		t.Errorf("balances sum to %s, want 0", sum)
	}
	return out
}

func assertBalances(t *testing.T, got []rpc.UserBalance, want map[string]string) {
	t.Helper()
	m := balanceMap(t, got)
	if len(m) != len(want) {
		t.Errorf("got %d balances, want %d: %v", len(m), len(want), m)
	}
	for user, amount := range want {
		if v, ok := m[user]; !ok || !v.Equal(d(amount)) {
			t.Errorf("balance[%s] = %v, want %s", user, v, amount)
		}
	}
}
