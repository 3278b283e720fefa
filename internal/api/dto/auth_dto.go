package dto

import (
	"time"

	"github.com/spec-kit/squad-service/internal/domain"
)

// SignUpRequest payload for new accounts.
type SignUpRequest struct {
	Email    string      `json:"email" validate:"required,email,max=254"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	FullName string      `json:"full_name" validate:"notblank,max=120"`
	Role     domain.Role `json:"role" validate:"required,role"`
}

// SignInRequest payload for login. Role is optional.
type SignInRequest struct {
	Email    string       `json:"email" validate:"required,email"`
	Password string       `json:"password" validate:"required"`
	Role     *domain.Role `json:"role" validate:"omitempty,role"`
}

// RoleRequest selects or grants a role.
type RoleRequest struct {
	Role domain.Role `json:"role" validate:"required,role"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// PasswordResetRequest asks for a reset link by email.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest sets a new password with a mailed token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponse is returned by sign-up, sign-in and role changes.
type SessionResponse struct {
	Profile ProfileResponse `json:"profile"`
	Role    domain.Role     `json:"role"`
	Auth    AuthResponse    `json:"auth"`
}
