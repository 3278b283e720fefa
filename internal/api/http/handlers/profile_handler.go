package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/squad-service/internal/api/dto"
	"github.com/spec-kit/squad-service/internal/api/validation"
	"github.com/spec-kit/squad-service/internal/service"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profiles  *service.ProfileService
	validator *validation.Validator
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles *service.ProfileService, validator *validation.Validator) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, validator: validator}
}

// Me handles GET /me.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.Get(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.MeResponse{ProfileResponse: profileResponse(profile), ActiveRole: principal.Role})
}

// UpdateMe handles PATCH /me.
func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}

	in := service.ProfileUpdateInput{
		FullName:          req.FullName,
		Position:          req.Position,
		JerseyNumber:      req.JerseyNumber,
		Phone:             req.Phone,
		ClearJerseyNumber: req.ClearJersey,
	}
	if req.BirthDate != nil {
		if raw := strings.TrimSpace(*req.BirthDate); raw == "" {
			in.ClearBirthDate = true
		} else {
			born, err := time.Parse(dateLayout, raw)
			if err != nil {
				return apperrors.NewValidationError("birth_date must be YYYY-MM-DD", map[string]any{"field": "birth_date"})
			}
			in.BirthDate = &born
		}
	}

	profile, err := h.profiles.Update(c.UserContext(), principal, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.MeResponse{ProfileResponse: profileResponse(profile), ActiveRole: principal.Role})
}
