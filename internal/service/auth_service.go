package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/config"
	"github.com/spec-kit/squad-service/internal/domain"
	squadmail "github.com/spec-kit/squad-service/internal/mail"
	"github.com/spec-kit/squad-service/internal/repository"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// AuthService coordinates registration, login and role switching.
type AuthService struct {
	profiles   repository.ProfileRepository
	resets     repository.PasswordResetRepository
	mailer     squadmail.Sender
	logger     *zap.Logger
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	ProfileRepo repository.ProfileRepository
	// ResetRepo and Mailer enable the password reset flow.
	ResetRepo repository.PasswordResetRepository
	Mailer    squadmail.Sender
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		profiles:   deps.ProfileRepo,
		resets:     deps.ResetRepo,
		mailer:     deps.Mailer,
		logger:     logger,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   cfg.Auth.PasswordResetTTL(),
		now:        time.Now,
	}
}

// SignUpInput describes a new account.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Role     domain.Role
}

// Session is an issued access token and the profile it acts for.
type Session struct {
	Profile   *domain.Profile
	Role      domain.Role
	Token     string
	ExpiresAt time.Time
}

// SignUp creates a profile holding one role and signs it in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if !in.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": in.Role})
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min": auth.MinPasswordLength})
	}

	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	profile := &domain.Profile{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
	}
	if err := s.profiles.CreateWithRole(ctx, profile, in.Role); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	return s.issue(profile, in.Role)
}

// SignIn authenticates by email and password. When role is nil the session
// acts as coach if the profile holds that role, otherwise as player.
func (s *AuthService) SignIn(ctx context.Context, email, password string, role *domain.Role) (*Session, error) {
	profile, err := s.profiles.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(profile.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	active, err := pickRole(profile, role)
	if err != nil {
		return nil, err
	}
	return s.issue(profile, active)
}

// SwitchRole re-issues the token for another role the caller holds.
func (s *AuthService) SwitchRole(_ context.Context, principal *auth.Principal, role domain.Role) (*Session, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	if !principal.Profile.HasRole(role) {
		return nil, apperrors.NewForbidden("role not granted")
	}
	return s.issue(principal.Profile, role)
}

// AddRole grants the caller another role and switches to it.
func (s *AuthService) AddRole(ctx context.Context, principal *auth.Principal, role domain.Role) (*Session, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	if err := s.profiles.AddRole(ctx, principal.ID(), role); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByID(ctx, principal.ID())
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return s.issue(profile, role)
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, principal *auth.Principal, currentPassword, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min": auth.MinPasswordLength})
	}
	profile, err := s.profiles.GetByID(ctx, principal.ID())
	if err != nil {
		return notFound(err, "profile")
	}
	if err := auth.ComparePassword(profile.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	profile.PasswordHash = hash
	return s.profiles.Update(ctx, profile)
}

// RequestPasswordReset mails a single-use reset link. Unknown addresses are
// accepted silently so callers cannot probe which emails are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if s.resets == nil || s.mailer == nil {
		return apperrors.NewInternalError(errors.New("password reset not configured"))
	}
	profile, err := s.profiles.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	raw, err := newResetToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	now := s.now()
	if err := s.resets.InvalidateForProfile(ctx, profile.ID, now); err != nil {
		return err
	}
	if err := s.resets.Create(ctx, &repository.PasswordResetToken{
		ProfileID: profile.ID,
		TokenHash: hashResetToken(raw),
		ExpiresAt: now.Add(s.resetTTL),
	}); err != nil {
		return err
	}

	msg := &squadmail.Message{
		To:           []mail.Address{{Name: profile.FullName, Address: profile.Email}},
		Subject:      "Reset your password",
		TemplateName: squadmail.TemplatePasswordReset,
		TemplateData: passwordResetMail{
			Name:             profile.FullName,
			Token:            raw,
			ExpiresInMinutes: int(s.resetTTL / time.Minute),
		},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("password reset mail failed", zap.String("profile_id", profile.ID), zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	return nil
}

// ConfirmPasswordReset consumes a reset token and stores the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if s.resets == nil {
		return apperrors.NewInternalError(errors.New("password reset not configured"))
	}
	if len(newPassword) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min": auth.MinPasswordLength})
	}
	invalid := apperrors.NewValidationError("invalid or expired reset token", nil)

	reset, err := s.resets.GetByHash(ctx, hashResetToken(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invalid
		}
		return err
	}
	now := s.now()
	if !reset.Usable(now) {
		return invalid
	}
	// Hash before consuming so a rejected password leaves the link usable.
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	profile, err := s.profiles.GetByID(ctx, reset.ProfileID)
	if err != nil {
		return notFound(err, "profile")
	}
	if err := s.resets.MarkUsed(ctx, reset.ID, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invalid
		}
		return err
	}
	profile.PasswordHash = hash
	return s.profiles.Update(ctx, profile)
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperrors.NewValidationError("password too long", map[string]any{"max_bytes": auth.MaxPasswordBytes})
	}
	return hash, err
}

type passwordResetMail struct {
	Name             string
	Token            string
	ExpiresInMinutes int
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(profile *domain.Profile, role domain.Role) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(profile.ID, role)
	if err != nil {
		return nil, err
	}
	return &Session{Profile: profile, Role: role, Token: token, ExpiresAt: exp}, nil
}

func pickRole(profile *domain.Profile, requested *domain.Role) (domain.Role, error) {
	if requested != nil {
		if !profile.HasRole(*requested) {
			return "", apperrors.NewForbidden("role not granted")
		}
		return *requested, nil
	}
	if profile.HasRole(domain.RoleCoach) {
		return domain.RoleCoach, nil
	}
	if profile.HasRole(domain.RolePlayer) {
		return domain.RolePlayer, nil
	}
	return "", apperrors.NewForbidden("profile has no role")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
