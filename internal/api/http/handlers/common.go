package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/squad-service/internal/auth"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func respond(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}

// parseTimeQuery reads an RFC 3339 timestamp from the query string.
func parseTimeQuery(c *fiber.Ctx, key string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, apperrors.NewValidationError(key+" is required", map[string]any{"field": key})
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(key+" must be an RFC 3339 timestamp", map[string]any{"field": key})
	}
	return t, nil
}
