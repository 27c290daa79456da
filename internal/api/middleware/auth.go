package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
	"github.com/healthconnect/backend/pkg/config"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

type contextKey string

const principalKey contextKey = "principal"

// Claims are the access token claims issued by the hosted auth service.
type Claims struct {
	jwt.RegisteredClaims
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
}

// RoleResolver decides the role of an authenticated caller.
type RoleResolver interface {
	EnsureProfile(ctx context.Context, principal *entities.Principal) error
	ResolveRole(ctx context.Context, principal *entities.Principal) (string, error)
	Authorize(ctx context.Context, principal *entities.Principal, allowed ...string) error
}

// AuthMiddleware verifies bearer tokens and enforces roles.
type AuthMiddleware struct {
	signingKey []byte
	issuer     string
	audience   string
	roles      RoleResolver
}

// NewAuthMiddleware creates an auth middleware. Tokens are HS256 signed with cfg.JWTSecret.
func NewAuthMiddleware(cfg config.AuthConfig, roles RoleResolver) *AuthMiddleware {
	return &AuthMiddleware{
		signingKey: []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		roles:      roles,
	}
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the caller's principal, role resolved, on the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireAdmin is RequireAuth plus a 403 for callers the authorization service does not resolve to admin.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.authenticate(w, r, entities.RoleAdmin)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// authenticate verifies the token and resolves the caller's role. With allowed
// roles given, callers holding none of them get 403.
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request, allowed ...string) (*entities.Principal, bool) {
	logger := observability.LoggerFromContext(r.Context())

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeError(w, http.StatusUnauthorized, "missing authorization header")
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		writeError(w, http.StatusUnauthorized, "invalid authorization format")
		return nil, false
	}

	claims, err := m.parse(strings.TrimSpace(parts[1]))
	if err != nil {
		logger.Debug().Err(err).Msg("rejected access token")
		writeError(w, http.StatusUnauthorized, "invalid token")
		return nil, false
	}

	principal := &entities.Principal{
		UserID:       claims.Subject,
		Email:        claims.Email,
		AppRole:      metadataRole(claims.AppMetadata),
		MetadataRole: metadataRole(claims.UserMetadata),
	}

	if err := m.roles.EnsureProfile(r.Context(), principal); err != nil {
		logger.Warn().Err(err).Str("user_id", principal.UserID).Msg("profile sync failed")
	}

	if len(allowed) > 0 {
		err = m.roles.Authorize(r.Context(), principal, allowed...)
	} else {
		_, err = m.roles.ResolveRole(r.Context(), principal)
	}
	if apperrors.IsType(err, apperrors.ErrorTypeForbidden) {
		logger.Warn().Str("user_id", principal.UserID).Str("role", principal.Role).Str("path", r.URL.Path).Msg("access denied")
		writeError(w, http.StatusForbidden, "you do not have permission to access this resource")
		return nil, false
	}
	if err != nil {
		logger.Error().Err(err).Str("user_id", principal.UserID).Msg("failed to resolve role")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return principal, true
}

func (m *AuthMiddleware) parse(tokenStr string) (*Claims, error) {
	if len(m.signingKey) == 0 {
		return nil, jwt.ErrTokenUnverifiable
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func metadataRole(metadata map[string]interface{}) string {
	role, _ := metadata["role"].(string)
	return role
}

// WithPrincipal stores the authenticated caller on ctx.
func WithPrincipal(ctx context.Context, principal *entities.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (*entities.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*entities.Principal)
	return principal, ok && principal != nil
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
