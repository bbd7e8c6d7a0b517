package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Profile name limits
const (
	MaxProfileNameLength = 100
)

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo      domain.UserRepository
	workspaceRepo domain.WorkspaceRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, workspaceRepo domain.WorkspaceRepository) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		workspaceRepo: workspaceRepo,
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	Workspace *domain.Workspace
	IsNewUser bool
}

// AuthenticateUser handles the Auth0 callback. The user is upserted and gets a
// default workspace on first login.
func (s *AuthService) AuthenticateUser(ctx context.Context, auth0ID, email string, name, pictureURL *string) (*AuthResult, error) {
	user, err := s.userRepo.CreateOrGetByAuth0ID(ctx, auth0ID, email, name, pictureURL)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
		return nil, err
	}

	workspace, err := s.workspaceRepo.GetByUserID(ctx, user.ID)
	if err == nil {
		log.Info().Str("user_id", user.ID.String()).Msg("Existing user authenticated")
		return &AuthResult{User: user, Workspace: workspace}, nil
	}
	if !errors.Is(err, domain.ErrWorkspaceNotFound) {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to get workspace")
		return nil, err
	}

	workspace, err = s.workspaceRepo.Create(ctx, &domain.Workspace{
		UserID: user.ID,
		Name:   domain.DefaultWorkspaceName,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create default workspace")
		return nil, err
	}
	log.Info().Str("user_id", user.ID.String()).Int32("workspace_id", workspace.ID).Msg("Created new user with default workspace")
	return &AuthResult{User: user, Workspace: workspace, IsNewUser: true}, nil
}

// GetUserByAuth0ID retrieves a user by their Auth0 ID
func (s *AuthService) GetUserByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(ctx, auth0ID)
}

// GetWorkspaceByAuth0ID retrieves a user's workspace by their Auth0 ID
func (s *AuthService) GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByUserAuth0ID(ctx, auth0ID)
}

// UpdateProfileName renames the user
func (s *AuthService) UpdateProfileName(ctx context.Context, auth0ID, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if utf8.RuneCountInString(name) > MaxProfileNameLength {
		return nil, domain.ErrNameTooLong
	}
	return s.userRepo.UpdateName(ctx, auth0ID, name)
}

// WorkspaceResolver adapts AuthService to the middleware's workspace lookup
type WorkspaceResolver struct {
	auth *AuthService
}

// NewWorkspaceResolver creates a WorkspaceResolver
func NewWorkspaceResolver(auth *AuthService) *WorkspaceResolver {
	return &WorkspaceResolver{auth: auth}
}

// GetWorkspaceByAuth0ID returns the workspace id of the user
func (r *WorkspaceResolver) GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string) (int32, error) {
	ws, err := r.auth.GetWorkspaceByAuth0ID(ctx, auth0ID)
	if err != nil {
		return 0, err
	}
	return ws.ID, nil
}
