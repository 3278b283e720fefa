package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/squad-service/internal/domain"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller acting in one role.
type Principal struct {
	Profile *domain.Profile
	Role    domain.Role
}

// ID returns the caller's profile id.
func (p *Principal) ID() string {
	return p.Profile.ID
}

// IsCoach reports whether the session acts as coach.
func (p *Principal) IsCoach() bool {
	return p.Role == domain.RoleCoach
}

// ProfileLoader resolves the subject of a token.
type ProfileLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	profiles ProfileLoader
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, profiles ProfileLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, profiles: profiles}
}

// Handle enforces authentication for protected routes. Browsers cannot set
// headers on EventSource requests, so an access_token query parameter is
// accepted as a fallback.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	profile, err := m.profiles.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("profile not found")
		}
		return apperrors.MapError(err)
	}
	if !profile.HasRole(claims.Role) {
		return apperrors.NewUnauthorized("role revoked")
	}

	c.Locals(principalKey, &Principal{Profile: profile, Role: claims.Role})
	return c.Next()
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if token := c.Query("access_token"); token != "" {
			return token, nil
		}
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// WithPrincipal stores a principal on the request; used by tests and internal callers.
func WithPrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(principalKey, principal)
}
