package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
)

// BalanceServiceName is the fully-qualified name of the BalanceService.
const BalanceServiceName = "settleup.v1.BalanceService"

const (
	BalanceServiceGetGroupBalancesProcedure = "/settleup.v1.BalanceService/GetGroupBalances"
	BalanceServiceGetUserBalanceProcedure   = "/settleup.v1.BalanceService/GetUserBalance"
	BalanceServiceGetGroupSummaryProcedure  = "/settleup.v1.BalanceService/GetGroupSummary"
)

// BalanceServiceHandler serves balance reads.
type BalanceServiceHandler interface {
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error)
	GetUserBalance(context.Context, *connect.Request[GetUserBalanceRequest]) (*connect.Response[GetUserBalanceResponse], error)
	GetGroupSummary(context.Context, *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GetGroupSummaryResponse], error)
}

// NewBalanceServiceHandler builds an HTTP handler for svc and returns the path
// prefix to mount it on.
func NewBalanceServiceHandler(svc BalanceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(BalanceServiceGetGroupBalancesProcedure,
		connect.NewUnaryHandler(BalanceServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...))
	mux.Handle(BalanceServiceGetUserBalanceProcedure,
		connect.NewUnaryHandler(BalanceServiceGetUserBalanceProcedure, svc.GetUserBalance, opts...))
	mux.Handle(BalanceServiceGetGroupSummaryProcedure,
		connect.NewUnaryHandler(BalanceServiceGetGroupSummaryProcedure, svc.GetGroupSummary, opts...))
	return "/" + BalanceServiceName + "/", mux
}

// BalanceServiceClient calls a remote BalanceService.
type BalanceServiceClient struct {
	getGroupBalances *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	getUserBalance   *connect.Client[GetUserBalanceRequest, GetUserBalanceResponse]
	getGroupSummary  *connect.Client[GetGroupSummaryRequest, GetGroupSummaryResponse]
}

// NewBalanceServiceClient creates a client for the service at baseURL.
func NewBalanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BalanceServiceClient {
	opts = clientOptions(opts)
	return &BalanceServiceClient{
		getGroupBalances: connect.NewClient[GetGroupBalancesRequest, GetGroupBalancesResponse](
			httpClient, baseURL+BalanceServiceGetGroupBalancesProcedure, opts...),
		getUserBalance: connect.NewClient[GetUserBalanceRequest, GetUserBalanceResponse](
			httpClient, baseURL+BalanceServiceGetUserBalanceProcedure, opts...),
		getGroupSummary: connect.NewClient[GetGroupSummaryRequest, GetGroupSummaryResponse](
			httpClient, baseURL+BalanceServiceGetGroupSummaryProcedure, opts...),
	}
}

func (c *BalanceServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetUserBalance(ctx context.Context, req *connect.Request[GetUserBalanceRequest]) (*connect.Response[GetUserBalanceResponse], error) {
	return c.getUserBalance.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetGroupSummary(ctx context.Context, req *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GetGroupSummaryResponse], error) {
	return c.getGroupSummary.CallUnary(ctx, req)
}

// UnimplementedBalanceServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedBalanceServiceHandler struct{}

func (UnimplementedBalanceServiceHandler) GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("settleup.v1.BalanceService.GetGroupBalances is not implemented"))
}

func (UnimplementedBalanceServiceHandler) GetUserBalance(context.Context, *connect.Request[GetUserBalanceRequest]) (*connect.Response[GetUserBalanceResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("settleup.v1.BalanceService.GetUserBalance is not implemented"))
}

func (UnimplementedBalanceServiceHandler) GetGroupSummary(context.Context, *connect.Request[GetGroupSummaryRequest]) (*connect.Response[GetGroupSummaryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("settleup.v1.BalanceService.GetGroupSummary is not implemented"))
}
