package auth

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/squad-service/internal/domain"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// RequireRole admits sessions acting as one of allowed. With no roles given
// it only requires an authenticated principal.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) > 0 && !slices.Contains(allowed, principal.Role) {
			return apperrors.NewForbidden("this action requires the " + string(allowed[0]) + " role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return RequireRole()
}
