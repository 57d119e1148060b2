package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/rpc"
	"github.com/mmynk/settleup/internal/storage"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	rpc.UnimplementedGroupServiceHandler
	store    storage.Store
	balances *Balances
}

// NewGroupService creates a GroupService.
func NewGroupService(store storage.Store, balances *Balances) *GroupService {
	return &GroupService{store: store, balances: balances}
}

// CreateUser registers the authenticated caller under the ID in their token.
func (s *GroupService) CreateUser(ctx context.Context, req *connect.Request[rpc.CreateUserRequest]) (*connect.Response[rpc.CreateUserResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateUser request received", "user_id", userID)

	email := strings.TrimSpace(req.Msg.Email)
	if email == "" {
		email = middleware.GetEmail(ctx)
	}

	user := &models.User{
		ID:          userID,
		DisplayName: strings.TrimSpace(req.Msg.DisplayName),
		Email:       email,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		}
		slog.Error("CreateUser failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("User created", "user_id", user.ID)

	return connect.NewResponse(&rpc.CreateUserResponse{User: toRPCUser(user)}), nil
}

// CreateGroup creates a group with the caller and member_ids as members.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[rpc.CreateGroupRequest]) (*connect.Response[rpc.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	slog.Info("CreateGroup request received",
		"name", name,
		"user_id", userID,
		"members_count", len(req.Msg.MemberIDs),
	)

	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group name required"))
	}

	memberIDs := []string{userID}
	seen := map[string]bool{userID: true}
	for _, id := range req.Msg.MemberIDs {
		if id != "" && !seen[id] {
			seen[id] = true
			memberIDs = append(memberIDs, id)
		}
	}

	group := &models.Group{Name: name, Members: make([]models.Member, len(memberIDs))}
	for i, id := range memberIDs {
		group.Members[i] = models.Member{UserID: id, Status: models.MemberActive}
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}
	if err := s.balances.Invalidate(ctx, group.ID, memberIDs...); err != nil {
		return nil, invalidationFailed(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&rpc.CreateGroupResponse{Group: toRPCGroup(group)}), nil
}

// AddMember adds a user to a group the caller belongs to. A user who left is
// reactivated with their history intact.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[rpc.AddMemberRequest]) (*connect.Response[rpc.AddMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID, newUserID := req.Msg.GroupID, req.Msg.UserID
	slog.Info("AddMember request received", "group_id", groupID, "user_id", newUserID)

	if newUserID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user_id required"))
	}
	if _, err := requireActiveMember(ctx, s.store, groupID, userID); err != nil {
		return nil, err
	}

	if err := s.store.AddMember(ctx, groupID, newUserID); err != nil {
		slog.Error("AddMember failed", "group_id", groupID, "user_id", newUserID, "error", err)
		return nil, toConnectError(err)
	}
	if err := s.balances.Invalidate(ctx, groupID, newUserID); err != nil {
		return nil, invalidationFailed(err)
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Member added", "group_id", groupID, "user_id", newUserID)

	return connect.NewResponse(&rpc.AddMemberResponse{Group: toRPCGroup(group)}), nil
}

// LeaveGroup marks the caller as having left. It is refused while the
// caller's balance in the group is not settled to within one cent.
func (s *GroupService) LeaveGroup(ctx context.Context, req *connect.Request[rpc.LeaveGroupRequest]) (*connect.Response[rpc.LeaveGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("LeaveGroup request received", "group_id", groupID, "user_id", userID)

	if req.Msg.UserID != "" && req.Msg.UserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("you can only leave a group yourself"))
	}
	if _, err := requireActiveMember(ctx, s.store, groupID, userID); err != nil {
		return nil, err
	}

	balances, err := s.balances.Group(ctx, groupID)
	if err != nil {
		slog.Error("LeaveGroup failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	if owed := calculator.BalanceOf(balances, userID); owed.Abs().GreaterThan(calculator.DustThreshold) {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("settle your balance of %s before leaving", owed.StringFixed(2)))
	}

	if err := s.store.SetMemberStatus(ctx, groupID, userID, models.MemberLeft); err != nil {
		slog.Error("LeaveGroup failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	if err := s.balances.Invalidate(ctx, groupID, userID); err != nil {
		return nil, invalidationFailed(err)
	}

	slog.Info("Member left", "group_id", groupID, "user_id", userID)

	return connect.NewResponse(&rpc.LeaveGroupResponse{Success: true}), nil
}
