package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/service"
)

func (s *Server) registerInviteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "inviteToList",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists/{token}/invites",
		Summary:       "Invite to list",
		Description:   "Adds a registered identity to the invite roster and notifies them (owner only)",
		Tags:          []string{"Invitations"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleInviteToList)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokeInvite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{token}/invites/{userId}",
		Summary:     "Revoke invitation",
		Description: "Removes an identity from the invite roster (owner only)",
		Tags:        []string{"Invitations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRevokeInvite)
}

// InviteRequest names the identity to invite. Supply exactly one field.
type InviteRequest struct {
	UserID string `json:"user_id,omitempty" doc:"Identity ID"`
	Email  string `json:"email,omitempty" doc:"Registered e-mail address"`
}

// InviteInput wraps the invite request for Huma.
type InviteInput struct {
	Token string `path:"token" doc:"Share token"`
	Body  InviteRequest
}

// InviteOutput returns the invited identity.
type InviteOutput struct {
	Body *domain.IdentityRef
}

// RevokeInviteInput identifies a roster member.
type RevokeInviteInput struct {
	Token  string `path:"token" doc:"Share token"`
	UserID string `path:"userId" doc:"Identity ID to remove"`
}

func (s *Server) handleInviteToList(ctx context.Context, input *InviteInput) (*InviteOutput, error) {
	ref, err := s.services.Invitations.Invite(ctx, Identity(ctx), input.Token, service.InviteTarget{
		UserID: input.Body.UserID,
		Email:  input.Body.Email,
	})
	if err != nil {
		return nil, err
	}
	return &InviteOutput{Body: ref}, nil
}

func (s *Server) handleRevokeInvite(ctx context.Context, input *RevokeInviteInput) (*struct{}, error) {
	if err := s.services.Invitations.Revoke(ctx, Identity(ctx), input.Token, input.UserID); err != nil {
		return nil, err
	}
	return nil, nil
}
