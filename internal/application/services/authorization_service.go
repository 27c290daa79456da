package services

import (
	"context"
	"strings"
	"time"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/repositories"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

// AuthorizationService is the single place a caller's role is decided.
//
// Resolution order, first non-empty wins:
//  1. role stored on the caller's profile
//  2. app_metadata.role from the token
//  3. user_metadata.role from the token, which can only ever yield user
//  4. admin when the email is in the configured admin list
//  5. user
type AuthorizationService struct {
	profiles    repositories.ProfileRepository
	adminEmails map[string]struct{}
	now         func() time.Time
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(profiles repositories.ProfileRepository, adminEmails []string) *AuthorizationService {
	emails := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			emails[e] = struct{}{}
		}
	}
	return &AuthorizationService{
		profiles:    profiles,
		adminEmails: emails,
		now:         time.Now,
	}
}

// ResolveRole fills principal.Role and returns it.
func (s *AuthorizationService) ResolveRole(ctx context.Context, principal *entities.Principal) (string, error) {
	role, err := s.profileRole(ctx, principal.UserID)
	if err != nil {
		return "", err
	}

	if role == "" {
		role = s.tokenRole(principal)
	}

	principal.Role = role
	return role, nil
}

// EnsureProfile creates the caller's profile on first sight, seeding its role
// from the token. An existing role is kept.
func (s *AuthorizationService) EnsureProfile(ctx context.Context, principal *entities.Principal) error {
	if s.profiles == nil {
		return nil
	}
	role := s.tokenRole(principal)
	now := s.now().UTC()
	err := s.profiles.Upsert(ctx, &entities.Profile{
		ID:        principal.UserID,
		Email:     principal.Email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Str("user_id", principal.UserID).Msg("failed to upsert profile")
		return err
	}
	return nil
}

// Authorize resolves the role and fails with FORBIDDEN unless it is one of allowed.
func (s *AuthorizationService) Authorize(ctx context.Context, principal *entities.Principal, allowed ...string) error {
	role, err := s.ResolveRole(ctx, principal)
	if err != nil {
		return err
	}
	for _, a := range allowed {
		if role == a {
			return nil
		}
	}
	return apperrors.NewForbiddenError("you do not have permission to access this resource")
}

func (s *AuthorizationService) profileRole(ctx context.Context, userID string) (string, error) {
	if s.profiles == nil || userID == "" {
		return "", nil
	}
	profile, err := s.profiles.GetByID(ctx, userID)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return knownRole(profile.Role), nil
}

// tokenRole applies steps 2 to 5 of the resolution order.
func (s *AuthorizationService) tokenRole(principal *entities.Principal) string {
	if role := knownRole(principal.AppRole); role != "" {
		return role
	}
	// user_metadata is writable by the account holder.
	if knownRole(principal.MetadataRole) == entities.RoleUser {
		return entities.RoleUser
	}
	if s.isAdminEmail(principal.Email) {
		return entities.RoleAdmin
	}
	return entities.RoleUser
}

func (s *AuthorizationService) isAdminEmail(email string) bool {
	_, ok := s.adminEmails[normalizeEmail(email)]
	return ok
}

func knownRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case entities.RoleAdmin:
		return entities.RoleAdmin
	case entities.RoleUser:
		return entities.RoleUser
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
