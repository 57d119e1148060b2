package service

import (
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/rpc"
)

func toRPCBalances(balances []calculator.Balance, currency string) []rpc.UserBalance {
	out := make([]rpc.UserBalance, len(balances))
	for i, b := range balances {
		amount := b.Amount.Round(2)
		out[i] = rpc.UserBalance{
			UserID:          b.UserID,
			UserName:        b.UserName,
			BalanceINR:      amount,
			BalanceCurrency: amount,
			Currency:        currency,
		}
	}
	return out
}

func toRPCTransfers(transfers []calculator.DebtTransfer, currency string) []rpc.DebtTransfer {
	out := make([]rpc.DebtTransfer, len(transfers))
	for i, t := range transfers {
		out[i] = rpc.DebtTransfer{
			FromUserID:   t.FromUserID,
			FromUserName: t.FromUserName,
			ToUserID:     t.ToUserID,
			ToUserName:   t.ToUserName,
			Amount:       t.Amount.Round(2),
			Currency:     currency,
		}
	}
	return out
}

func toRPCExpense(e *models.Expense, currency string) rpc.Expense {
	splits := make([]rpc.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = rpc.Split{UserID: s.UserID, Amount: s.Amount}
	}
	return rpc.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		Amount:      e.Amount,
		Currency:    currency,
		Description: e.Description,
		Splits:      splits,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

func toRPCSettlement(s *models.Settlement, currency string) rpc.Settlement {
	return rpc.Settlement{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount,
		Currency:   currency,
		Method:     string(s.Method),
		Status:     string(s.Status),
		Note:       s.Note,
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt,
	}
}

func toRPCUser(u *models.User) rpc.User {
	return rpc.User{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
	}
}

func toRPCGroup(g *models.Group) rpc.Group {
	members := make([]rpc.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = rpc.Member{UserID: m.UserID, Status: string(m.Status), JoinedAt: m.JoinedAt}
	}
	return rpc.Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}
