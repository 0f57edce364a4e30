package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/coconutsplit/coconutsplit/internal/ledger"
	"github.com/coconutsplit/coconutsplit/internal/middleware"
	"github.com/coconutsplit/coconutsplit/internal/models"
	"github.com/coconutsplit/coconutsplit/internal/storage"
)

// GroupService manages groups and their membership.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

func groupInfo(group *models.Group) GroupInfo {
	return GroupInfo{
		ID:        group.ID,
		Name:      group.Name,
		CreatedBy: group.CreatedBy,
		ChatID:    group.ChatID,
		MemberIDs: group.MemberIDs,
		CreatedAt: group.CreatedAt,
	}
}

// CreateGroup creates a new group. The caller always becomes a member, along
// with any extra member IDs supplied.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group name is required"))
	}

	memberIDs := []string{userID}
	for _, id := range req.Msg.MemberIDs {
		if id == userID {
			continue
		}
		if _, err := s.store.GetUser(ctx, id); err != nil {
			return nil, asConnectError(err)
		}
		memberIDs = append(memberIDs, id)
	}

	group := &models.Group{
		Name:      req.Msg.Name,
		CreatedBy: userID,
		ChatID:    req.Msg.ChatID,
		MemberIDs: memberIDs,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Group created", "group_id", group.ID, "members", len(group.MemberIDs))
	return connect.NewResponse(&CreateGroupResponse{Group: groupInfo(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, asConnectError(err)
	}
	return connect.NewResponse(&GetGroupResponse{Group: groupInfo(group)}), nil
}

// AddMember adds a user to a group. Only existing members may add users.
// The store seeds zero balance rows between the new member and everyone else.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, asConnectError(err)
	}
	// Joining yourself is allowed; adding someone else requires membership.
	if callerID != req.Msg.UserID && !group.HasMember(callerID) {
		return nil, asConnectError(fmt.Errorf("%w: %s", ledger.ErrNotAGroupMember, callerID))
	}
	if _, err := s.store.GetUser(ctx, req.Msg.UserID); err != nil {
		return nil, asConnectError(err)
	}

	if err := s.store.AddGroupMember(ctx, group.ID, req.Msg.UserID); err != nil {
		slog.Error("AddMember failed", "group_id", group.ID, "user_id", req.Msg.UserID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Member added", "group_id", group.ID, "user_id", req.Msg.UserID)
	return connect.NewResponse(&AddMemberResponse{}), nil
}

// ListMembers returns the users in a group.
func (s *GroupService) ListMembers(ctx context.Context, req *connect.Request[ListMembersRequest]) (*connect.Response[ListMembersResponse], error) {
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, asConnectError(err)
	}

	members, err := s.store.ListGroupMembers(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &ListMembersResponse{Members: make([]UserInfo, 0, len(members))}
	for _, m := range members {
		resp.Members = append(resp.Members, UserInfo{ID: m.ID, DisplayName: m.DisplayName})
	}
	return connect.NewResponse(resp), nil
}
