package rpc

import "github.com/shopspring/decimal"

// Money travels as a decimal string ("123.45") so clients never round-trip
// amounts through floating point.

// UserBalance is one member's net position in a group. BalanceCurrency is the
// same amount as BalanceINR, expressed in Currency.
type UserBalance struct {
	UserID          string          `json:"user_id"`
	UserName        string          `json:"user_name"`
	BalanceINR      decimal.Decimal `json:"balance_inr"`
	BalanceCurrency decimal.Decimal `json:"balance_currency"`
	Currency        string          `json:"currency"`
}

// DebtTransfer is one suggested payment that moves balances toward zero.
type DebtTransfer struct {
	FromUserID   string          `json:"from_user_id"`
	FromUserName string          `json:"from_user_name"`
	ToUserID     string          `json:"to_user_id"`
	ToUserName   string          `json:"to_user_name"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// GroupSummary describes the live expenses of a group.
type GroupSummary struct {
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ExpenseCount int             `json:"expense_count"`
	UniquePayers int             `json:"unique_payers"`
	Currency     string          `json:"currency"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupBalancesResponse struct {
	GroupID         string         `json:"group_id"`
	Balances        []UserBalance  `json:"balances"`
	SimplifiedDebts []DebtTransfer `json:"simplified_debts"`
}

type GetUserBalanceRequest struct {
	UserID string `json:"user_id"`
}

type GetUserBalanceResponse struct {
	UserID        string          `json:"user_id"`
	UserName      string          `json:"user_name"`
	NetBalanceINR decimal.Decimal `json:"net_balance_inr"`
	Currency      string          `json:"currency"`
}

type GetGroupSummaryRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupSummaryResponse struct {
	GroupID string `json:"group_id"`
	GroupSummary
}

// SplitInput is one participant of a new expense. Set Amount or Percentage
// on every split, or on none of them for an equal split.
type SplitInput struct {
	UserID     string           `json:"user_id"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

type Split struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PayerID     string          `json:"payer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Splits      []Split         `json:"splits"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
}

type CreateExpenseRequest struct {
	GroupID     string          `json:"group_id"`
	PayerID     string          `json:"payer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Splits      []SplitInput    `json:"splits"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct {
	Success bool `json:"success"`
}

type Settlement struct {
	ID         string          `json:"id"`
	GroupID    string          `json:"group_id"`
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Method     string          `json:"method"`
	Status     string          `json:"status"`
	Note       string          `json:"note,omitempty"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  int64           `json:"created_at"`
}

type CreateSettlementRequest struct {
	GroupID    string          `json:"group_id"`
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Note       string          `json:"note,omitempty"`
}

type CreateSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type CompleteSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type CompleteSettlementResponse struct {
	Status string `json:"status"`
}

type CancelSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type CancelSettlementResponse struct {
	Status string `json:"status"`
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// CreateUserRequest registers the authenticated caller. The user ID comes
// from the bearer token; Email defaults to the token's email claim.
type CreateUserRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

type CreateUserResponse struct {
	User User `json:"user"`
}

type Member struct {
	UserID   string `json:"user_id"`
	Status   string `json:"status"`
	JoinedAt int64  `json:"joined_at"`
}

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// CreateGroupRequest creates a group. The caller is always added as a member.
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type AddMemberResponse struct {
	Group Group `json:"group"`
}

// LeaveGroupRequest removes UserID from the group. An empty UserID means the
// caller.
type LeaveGroupRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id,omitempty"`
}

type LeaveGroupResponse struct {
	Success bool `json:"success"`
}
