package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/squad-service/internal/api/dto"
	"github.com/spec-kit/squad-service/internal/api/validation"
	"github.com/spec-kit/squad-service/internal/service"
)

// AuthHandler exposes sign-up, sign-in and role endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	validator *validation.Validator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validator *validation.Validator) *AuthHandler {
	return &AuthHandler{auth: authService, validator: validator}
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.SignUp(c.UserContext(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, sessionResponse(session))
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, sessionResponse(session))
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.MeResponse{
		ProfileResponse: profileResponse(principal.Profile),
		ActiveRole:      principal.Role,
	})
}

// SwitchRole handles POST /auth/switch-role.
func (h *AuthHandler) SwitchRole(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.SwitchRole(c.UserContext(), principal, req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, sessionResponse(session))
}

// AddRole handles POST /auth/roles.
func (h *AuthHandler) AddRole(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.AddRole(c.UserContext(), principal, req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, sessionResponse(session))
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return respond(c, http.StatusAccepted, fiber.Map{"status": "sent"})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
