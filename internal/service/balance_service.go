package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/rpc"
	"github.com/mmynk/settleup/internal/storage"
)

// BalanceService implements the Connect BalanceService.
type BalanceService struct {
	rpc.UnimplementedBalanceServiceHandler
	store    storage.Store
	balances *Balances
	currency string
}

// NewBalanceService creates a BalanceService reporting amounts in currency.
func NewBalanceService(store storage.Store, balances *Balances, currency string) *BalanceService {
	return &BalanceService{store: store, balances: balances, currency: currency}
}

// GetGroupBalances returns every user's net balance in the group and the
// transfers that would settle them.
func (s *BalanceService) GetGroupBalances(ctx context.Context, req *connect.Request[rpc.GetGroupBalancesRequest]) (*connect.Response[rpc.GetGroupBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("GetGroupBalances request received", "group_id", groupID, "user_id", userID)

	if _, err := requireActiveMember(ctx, s.store, groupID, userID); err != nil {
		return nil, err
	}

	balances, err := s.balances.Group(ctx, groupID)
	if err != nil {
		slog.Error("GetGroupBalances failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	transfers := s.balances.Simplify(groupID, balances)

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"balances", len(balances),
		"transfers", len(transfers),
	)

	return connect.NewResponse(&rpc.GetGroupBalancesResponse{
		GroupID:         groupID,
		Balances:        toRPCBalances(balances, s.currency),
		SimplifiedDebts: toRPCTransfers(transfers, s.currency),
	}), nil
}

// GetUserBalance returns the caller's net balance across their active groups.
func (s *BalanceService) GetUserBalance(ctx context.Context, req *connect.Request[rpc.GetUserBalanceRequest]) (*connect.Response[rpc.GetUserBalanceResponse], error) {
	callerUserID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	userID := req.Msg.UserID
	if userID == "" {
		userID = callerUserID
	}
	slog.Info("GetUserBalance request received", "user_id", userID)

	if userID != callerUserID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you can only view your own balance"))
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		slog.Error("GetUserBalance failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	net, err := s.balances.User(ctx, userID)
	if err != nil {
		slog.Error("GetUserBalance failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetUserBalance successful", "user_id", userID, "net_balance", net.String())

	return connect.NewResponse(&rpc.GetUserBalanceResponse{
		UserID:        user.ID,
		UserName:      user.Name(),
		NetBalanceINR: net.Round(2),
		Currency:      s.currency,
	}), nil
}

// GetGroupSummary totals the group's live expenses.
func (s *BalanceService) GetGroupSummary(ctx context.Context, req *connect.Request[rpc.GetGroupSummaryRequest]) (*connect.Response[rpc.GetGroupSummaryResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("GetGroupSummary request received", "group_id", groupID, "user_id", userID)

	if _, err := requireActiveMember(ctx, s.store, groupID, userID); err != nil {
		return nil, err
	}

	snap, err := s.store.GroupSnapshot(ctx, groupID)
	if err != nil {
		slog.Error("GetGroupSummary failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	summary := calculator.Summarize(expenseRecords(snap.Expenses))

	slog.Info("GetGroupSummary successful", "group_id", groupID, "expense_count", summary.ExpenseCount)

	return connect.NewResponse(&rpc.GetGroupSummaryResponse{
		GroupID: groupID,
		GroupSummary: rpc.GroupSummary{
			TotalAmount:  summary.TotalAmount,
			ExpenseCount: summary.ExpenseCount,
			UniquePayers: summary.UniquePayers,
			Currency:     s.currency,
		},
	}), nil
}
