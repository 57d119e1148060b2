package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/rpc"
	"github.com/mmynk/settleup/internal/storage"
)

// LedgerService implements the Connect LedgerService.
//
// Every write commits first, then invalidates the affected balance entries,
// then responds. A failed invalidation surfaces as Unavailable even though
// the write is durable.
type LedgerService struct {
	rpc.UnimplementedLedgerServiceHandler
	store    storage.Store
	balances *Balances
	currency string
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(store storage.Store, balances *Balances, currency string) *LedgerService {
	return &LedgerService{store: store, balances: balances, currency: currency}
}

// CreateExpense records an expense and its splits. Without splits the amount
// is divided equally among the active members.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[rpc.CreateExpenseRequest]) (*connect.Response[rpc.CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"group_id", msg.GroupID,
		"user_id", userID,
		"amount", msg.Amount.String(),
		"splits_count", len(msg.Splits),
	)

	group, err := requireActiveMember(ctx, s.store, msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	if !validAmount(msg.Amount) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errAmountInvalid)
	}

	payerID := msg.PayerID
	if payerID == "" {
		payerID = userID
	}
	if !group.IsActiveMember(payerID) {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("payer %s is not a group member", payerID))
	}

	shares, err := shareRequests(group, msg.Splits)
	if err != nil {
		return nil, err
	}

	personShares, err := calculator.CalculateSplit(msg.Amount, shares)
	if err != nil {
		slog.Warn("CreateExpense rejected", "group_id", msg.GroupID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	expense := &models.Expense{
		GroupID:     msg.GroupID,
		PayerID:     payerID,
		Amount:      msg.Amount,
		Description: msg.Description,
		CreatedBy:   userID,
		Splits:      make([]models.Split, len(personShares)),
	}
	for i, ps := range personShares {
		expense.Splits[i] = models.Split{UserID: ps.UserID, Amount: ps.Amount}
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "group_id", msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	if err := s.balances.Invalidate(ctx, expense.GroupID, expense.AffectedUsers()...); err != nil {
		return nil, invalidationFailed(err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", expense.GroupID)

	return connect.NewResponse(&rpc.CreateExpenseResponse{
		Expense: toRPCExpense(expense, s.currency),
	}), nil
}

// DeleteExpense soft-deletes an expense. Only its creator may delete it.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[rpc.DeleteExpenseRequest]) (*connect.Response[rpc.DeleteExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	expenseID := req.Msg.ExpenseID
	slog.Info("DeleteExpense request received", "expense_id", expenseID, "user_id", userID)

	if expenseID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("expense_id required"))
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, err := requireActiveMember(ctx, s.store, expense.GroupID, userID); err != nil {
		return nil, err
	}
	if expense.CreatedBy != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only the creator can delete this expense"))
	}

	if err := s.store.SoftDeleteExpense(ctx, expenseID); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("expense already deleted"))
		}
		slog.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		return nil, toConnectError(err)
	}
	if err := s.balances.Invalidate(ctx, expense.GroupID, expense.AffectedUsers()...); err != nil {
		return nil, invalidationFailed(err)
	}

	slog.Info("Expense deleted", "expense_id", expenseID, "group_id", expense.GroupID)

	return connect.NewResponse(&rpc.DeleteExpenseResponse{Success: true}), nil
}

// CreateSettlement records a pending payment between two active members.
// It does not move balances until completed.
func (s *LedgerService) CreateSettlement(ctx context.Context, req *connect.Request[rpc.CreateSettlementRequest]) (*connect.Response[rpc.CreateSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("CreateSettlement request received",
		"group_id", msg.GroupID,
		"from_user_id", msg.FromUserID,
		"to_user_id", msg.ToUserID,
		"amount", msg.Amount.String(),
	)

	group, err := requireActiveMember(ctx, s.store, msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	if msg.FromUserID == "" || msg.ToUserID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("from_user_id and to_user_id required"))
	}
	if msg.FromUserID == msg.ToUserID {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("cannot settle with yourself"))
	}
	if !group.IsActiveMember(msg.FromUserID) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("from user is not a group member"))
	}
	if !group.IsActiveMember(msg.ToUserID) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("to user is not a group member"))
	}
	if !validAmount(msg.Amount) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errAmountInvalid)
	}

	method := models.SettlementMethod(msg.Method)
	if method == "" {
		method = models.MethodCash
	}
	if !method.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown settlement method %q", msg.Method))
	}

	settlement := &models.Settlement{
		GroupID:    msg.GroupID,
		FromUserID: msg.FromUserID,
		ToUserID:   msg.ToUserID,
		Amount:     msg.Amount,
		Method:     method,
		Status:     models.SettlementPending,
		CreatedBy:  userID,
		Note:       msg.Note,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("CreateSettlement failed", "group_id", msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	if err := s.balances.Invalidate(ctx, settlement.GroupID, settlement.FromUserID, settlement.ToUserID); err != nil {
		return nil, invalidationFailed(err)
	}

	slog.Info("Settlement created", "settlement_id", settlement.ID, "group_id", settlement.GroupID)

	return connect.NewResponse(&rpc.CreateSettlementResponse{
		Settlement: toRPCSettlement(settlement, s.currency),
	}), nil
}

// CompleteSettlement confirms a pending settlement. Only the recipient can
// confirm that the money arrived.
func (s *LedgerService) CompleteSettlement(ctx context.Context, req *connect.Request[rpc.CompleteSettlementRequest]) (*connect.Response[rpc.CompleteSettlementResponse], error) {
	status, err := s.transition(ctx, "CompleteSettlement", req.Msg.SettlementID, models.SettlementCompleted,
		func(st *models.Settlement, userID string) bool { return st.ToUserID == userID },
	)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&rpc.CompleteSettlementResponse{Status: string(status)}), nil
}

// CancelSettlement withdraws a pending settlement. Its creator or either
// party may cancel.
func (s *LedgerService) CancelSettlement(ctx context.Context, req *connect.Request[rpc.CancelSettlementRequest]) (*connect.Response[rpc.CancelSettlementResponse], error) {
	status, err := s.transition(ctx, "CancelSettlement", req.Msg.SettlementID, models.SettlementCancelled,
		func(st *models.Settlement, userID string) bool {
			return st.CreatedBy == userID || st.FromUserID == userID || st.ToUserID == userID
		},
	)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&rpc.CancelSettlementResponse{Status: string(status)}), nil
}

// transition moves a pending settlement to status `to` when allowed(caller).
func (s *LedgerService) transition(
	ctx context.Context,
	op, settlementID string,
	to models.SettlementStatus,
	allowed func(*models.Settlement, string) bool,
) (models.SettlementStatus, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	slog.Info(op+" request received", "settlement_id", settlementID, "user_id", userID)

	if settlementID == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, errors.New("settlement_id required"))
	}

	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return "", toConnectError(err)
	}
	if _, err := requireActiveMember(ctx, s.store, settlement.GroupID, userID); err != nil {
		return "", err
	}
	if !allowed(settlement, userID) {
		return "", connect.NewError(connect.CodePermissionDenied, fmt.Errorf("not allowed to mark settlement %s", to))
	}

	if err := s.store.UpdateSettlementStatus(ctx, settlementID, models.SettlementPending, to); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return "", connect.NewError(connect.CodeFailedPrecondition, errors.New("settlement is not pending"))
		}
		slog.Error(op+" failed", "settlement_id", settlementID, "error", err)
		return "", toConnectError(err)
	}
	if err := s.balances.Invalidate(ctx, settlement.GroupID, settlement.FromUserID, settlement.ToUserID); err != nil {
		return "", invalidationFailed(err)
	}

	slog.Info(op+" successful", "settlement_id", settlementID, "group_id", settlement.GroupID, "status", to)
	return to, nil
}

// shareRequests validates split users and converts the wire splits. No
// splits means an equal split over the active members.
func shareRequests(group *models.Group, splits []rpc.SplitInput) ([]calculator.ShareRequest, error) {
	if len(splits) == 0 {
		members := group.ActiveMemberIDs()
		shares := make([]calculator.ShareRequest, len(members))
		for i, id := range members {
			shares[i] = calculator.ShareRequest{UserID: id}
		}
		return shares, nil
	}

	shares := make([]calculator.ShareRequest, len(splits))
	for i, sp := range splits {
		if sp.UserID == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("split user_id required"))
		}
		if !group.IsActiveMember(sp.UserID) {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("split user %s is not a group member", sp.UserID))
		}
		shares[i] = calculator.ShareRequest{
			UserID:     sp.UserID,
			Amount:     nullDecimal(sp.Amount),
			Percentage: nullDecimal(sp.Percentage),
		}
	}
	return shares, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
