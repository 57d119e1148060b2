package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/rpc"
)

// whoAmI answers GetUserBalance with the caller's identity.
type whoAmI struct{ rpc.UnimplementedBalanceServiceHandler }

func (whoAmI) GetUserBalance(ctx context.Context, req *connect.Request[rpc.GetUserBalanceRequest]) (*connect.Response[rpc.GetUserBalanceResponse], error) {
	return connect.NewResponse(&rpc.GetUserBalanceResponse{
		UserID:   GetUserID(ctx),
		UserName: GetEmail(ctx),
	}), nil
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	valid, err := jwtManager.Generate(&models.User{ID: "u1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	path, handler := rpc.NewBalanceServiceHandler(whoAmI{},
		connect.WithInterceptors(RequireAuth(jwtManager), LoggingInterceptor()))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	defer server.Close()

	client := rpc.NewBalanceServiceClient(http.DefaultClient, server.URL)

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
	}{
		{"valid token", "Bearer " + valid, 0},
		{"missing header", "", connect.CodeUnauthenticated},
		{"wrong scheme", "Basic " + valid, connect.CodeUnauthenticated},
		{"empty bearer", "Bearer ", connect.CodeUnauthenticated},
		{"bad token", "Bearer nope", connect.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&rpc.GetUserBalanceRequest{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			resp, err := client.GetUserBalance(context.Background(), req)
			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if resp.Msg.UserID != "u1" || resp.Msg.UserName != "u1@example.com" {
				t.Errorf("identity = %q/%q, want u1/u1@example.com", resp.Msg.UserID, resp.Msg.UserName)
			}
		})
	}
}

func TestGetUserID_Empty(t *testing.T) {
	if got := GetUserID(context.Background()); got != "" {
		t.Errorf("GetUserID() = %q, want empty", got)
	}
	ctx := WithUser(context.Background(), "u1", "e")
	if GetUserID(ctx) != "u1" || GetEmail(ctx) != "e" {
		t.Errorf("WithUser did not store identity")
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	wantErr := connect.NewError(connect.CodeNotFound, errors.New("gone"))
	interceptor := LoggingInterceptor()

	path, handler := rpc.NewBalanceServiceHandler(failing{err: wantErr}, connect.WithInterceptors(interceptor))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	defer server.Close()

	client := rpc.NewBalanceServiceClient(http.DefaultClient, server.URL)
	_, err := client.GetUserBalance(context.Background(), connect.NewRequest(&rpc.GetUserBalanceRequest{}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("code = %v, want NotFound", connect.CodeOf(err))
	}
}

type failing struct {
	rpc.UnimplementedBalanceServiceHandler
	err error
}

func (f failing) GetUserBalance(context.Context, *connect.Request[rpc.GetUserBalanceRequest]) (*connect.Response[rpc.GetUserBalanceResponse], error) {
	return nil, f.err
}
