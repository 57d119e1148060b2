package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the LedgerService.
const LedgerServiceName = "settleup.v1.LedgerService"

const (
	LedgerServiceCreateExpenseProcedure      = "/settleup.v1.LedgerService/CreateExpense"
	LedgerServiceDeleteExpenseProcedure      = "/settleup.v1.LedgerService/DeleteExpense"
	LedgerServiceCreateSettlementProcedure   = "/settleup.v1.LedgerService/CreateSettlement"
	LedgerServiceCompleteSettlementProcedure = "/settleup.v1.LedgerService/CompleteSettlement"
	LedgerServiceCancelSettlementProcedure   = "/settleup.v1.LedgerService/CancelSettlement"
)

// LedgerServiceHandler serves writes to expenses and settlements.
type LedgerServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	CreateSettlement(context.Context, *connect.Request[CreateSettlementRequest]) (*connect.Response[CreateSettlementResponse], error)
	CompleteSettlement(context.Context, *connect.Request[CompleteSettlementRequest]) (*connect.Response[CompleteSettlementResponse], error)
	CancelSettlement(context.Context, *connect.Request[CancelSettlementRequest]) (*connect.Response[CancelSettlementResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for svc and returns the path
// prefix to mount it on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(LedgerServiceCreateExpenseProcedure,
		connect.NewUnaryHandler(LedgerServiceCreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(LedgerServiceDeleteExpenseProcedure,
		connect.NewUnaryHandler(LedgerServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(LedgerServiceCreateSettlementProcedure,
		connect.NewUnaryHandler(LedgerServiceCreateSettlementProcedure, svc.CreateSettlement, opts...))
	mux.Handle(LedgerServiceCompleteSettlementProcedure,
		connect.NewUnaryHandler(LedgerServiceCompleteSettlementProcedure, svc.CompleteSettlement, opts...))
	mux.Handle(LedgerServiceCancelSettlementProcedure,
		connect.NewUnaryHandler(LedgerServiceCancelSettlementProcedure, svc.CancelSettlement, opts...))
	return "/" + LedgerServiceName + "/", mux
}

// LedgerServiceClient calls a remote LedgerService.
type LedgerServiceClient struct {
	createExpense      *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	deleteExpense      *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	createSettlement   *connect.Client[CreateSettlementRequest, CreateSettlementResponse]
	completeSettlement *connect.Client[CompleteSettlementRequest, CompleteSettlementResponse]
	cancelSettlement   *connect.Client[CancelSettlementRequest, CancelSettlementResponse]
}

// NewLedgerServiceClient creates a client for the service at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	opts = clientOptions(opts)
	return &LedgerServiceClient{
		createExpense: connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](
			httpClient, baseURL+LedgerServiceCreateExpenseProcedure, opts...),
		deleteExpense: connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](
			httpClient, baseURL+LedgerServiceDeleteExpenseProcedure, opts...),
		createSettlement: connect.NewClient[CreateSettlementRequest, CreateSettlementResponse](
			httpClient, baseURL+LedgerServiceCreateSettlementProcedure, opts...),
		completeSettlement: connect.NewClient[CompleteSettlementRequest, CompleteSettlementResponse](
			httpClient, baseURL+LedgerServiceCompleteSettlementProcedure, opts...),
		cancelSettlement: connect.NewClient[CancelSettlementRequest, CancelSettlementResponse](
			httpClient, baseURL+LedgerServiceCancelSettlementProcedure, opts...),
	}
}

func (c *LedgerServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) CreateSettlement(ctx context.Context, req *connect.Request[CreateSettlementRequest]) (*connect.Response[CreateSettlementResponse], error) {
	return c.createSettlement.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) CompleteSettlement(ctx context.Context, req *connect.Request[CompleteSettlementRequest]) (*connect.Response[CompleteSettlementResponse], error) {
	return c.completeSettlement.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) CancelSettlement(ctx context.Context, req *connect.Request[CancelSettlementRequest]) (*connect.Response[CancelSettlementResponse], error) {
	return c.cancelSettlement.CallUnary(ctx, req)
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

func (UnimplementedLedgerServiceHandler) CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("settleup.v1.LedgerService.CreateExpense is not implemented"))
}

func (UnimplementedLedgerServiceHandler) DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("settleup.v1.LedgerService.DeleteExpense is not implemented"))
}

func (UnimplementedLedgerServiceHandler) CreateSettlement(context.Context, *connect.Request[CreateSettlementRequest]) (*connect.Response[CreateSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("settleup.v1.LedgerService.CreateSettlement is not implemented"))
}

func (UnimplementedLedgerServiceHandler) CompleteSettlement(context.Context, *connect.Request[CompleteSettlementRequest]) (*connect.Response[CompleteSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("settleup.v1.LedgerService.CompleteSettlement is not implemented"))
}

func (UnimplementedLedgerServiceHandler) CancelSettlement(context.Context, *connect.Request[CancelSettlementRequest]) (*connect.Response[CancelSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("settleup.v1.LedgerService.CancelSettlement is not implemented"))
}
