package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/config"
	"github.com/spec-kit/squad-service/internal/domain"
)

func newAuthService(profiles *memProfiles) *AuthService {
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            bcrypt.MinCost,
	}}
	return NewAuthService(cfg, AuthDependencies{ProfileRepo: profiles})
}

func TestSignUp(t *testing.T) {
	t.Parallel()
	profiles := newMemProfiles()
	svc := newAuthService(profiles)

	session, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "  Coach@Example.COM ",
		Password: "supersecret",
		FullName: " Carla ",
		Role:     domain.RoleCoach,
	})
	require.NoError(t, err)
	assert.Equal(t, "coach@example.com", session.Profile.Email)
	assert.Equal(t, "Carla", session.Profile.FullName)
	assert.Equal(t, domain.RoleCoach, session.Role)
	assert.NotEqual(t, "supersecret", session.Profile.PasswordHash)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Profile.ID, claims.Subject)
	assert.Equal(t, domain.RoleCoach, claims.Role)

	_, err = svc.SignUp(context.Background(), SignUpInput{Email: "coach@example.com", Password: "supersecret", Role: domain.RolePlayer})
	assert.Equal(t, "CONFLICT", errorCode(t, err))
}

func TestSignUp_Validation(t *testing.T) {
	t.Parallel()
	svc := newAuthService(newMemProfiles())

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "a@b.c", Password: "short", Role: domain.RolePlayer})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	_, err = svc.SignUp(context.Background(), SignUpInput{Email: "a@b.c", Password: "longenough", Role: "referee"})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestSignIn(t *testing.T) {
	t.Parallel()
	profiles := newMemProfiles()
	svc := newAuthService(profiles)
	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "dual@example.com", Password: "supersecret", Role: domain.RolePlayer})
	require.NoError(t, err)

	session, err := svc.SignIn(context.Background(), "DUAL@example.com", "supersecret", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RolePlayer, session.Role)

	_, err = svc.SignIn(context.Background(), "dual@example.com", "wrong-password", nil)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	_, err = svc.SignIn(context.Background(), "nobody@example.com", "supersecret", nil)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	coach := domain.RoleCoach
	_, err = svc.SignIn(context.Background(), "dual@example.com", "supersecret", &coach)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestAddAndSwitchRole(t *testing.T) {
	t.Parallel()
	profiles := newMemProfiles()
	svc := newAuthService(profiles)
	session, err := svc.SignUp(context.Background(), SignUpInput{Email: "dual@example.com", Password: "supersecret", Role: domain.RolePlayer})
	require.NoError(t, err)
	principal := &auth.Principal{Profile: session.Profile, Role: session.Role}

	_, err = svc.SwitchRole(context.Background(), principal, domain.RoleCoach)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))

	session, err = svc.AddRole(context.Background(), principal, domain.RoleCoach)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCoach, session.Role)
	assert.True(t, session.Profile.HasRole(domain.RolePlayer))

	principal = &auth.Principal{Profile: session.Profile, Role: session.Role}
	switched, err := svc.SwitchRole(context.Background(), principal, domain.RolePlayer)
	require.NoError(t, err)
	assert.Equal(t, domain.RolePlayer, switched.Role)

	// With both roles, sign-in defaults to coach.
	signedIn, err := svc.SignIn(context.Background(), "dual@example.com", "supersecret", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCoach, signedIn.Role)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	profiles := newMemProfiles()
	svc := newAuthService(profiles)
	session, err := svc.SignUp(context.Background(), SignUpInput{Email: "p@example.com", Password: "supersecret", Role: domain.RolePlayer})
	require.NoError(t, err)
	principal := &auth.Principal{Profile: session.Profile, Role: session.Role}

	err = svc.ChangePassword(context.Background(), principal, "not-it", "brandnewpass")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))

	err = svc.ChangePassword(context.Background(), principal, "supersecret", "tiny")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	require.NoError(t, svc.ChangePassword(context.Background(), principal, "supersecret", "brandnewpass"))
	_, err = svc.SignIn(context.Background(), "p@example.com", "brandnewpass", nil)
	assert.NoError(t, err)
}

func newResettableAuthService(profiles *memProfiles, resets *memResets, sender *captureSender) *AuthService {
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:               "test-secret",
		AccessTokenTTLMinutes:   15,
		BcryptCost:              bcrypt.MinCost,
		PasswordResetTTLMinutes: 20,
	}}
	return NewAuthService(cfg, AuthDependencies{ProfileRepo: profiles, ResetRepo: resets, Mailer: sender})
}

func resetTokenFrom(t *testing.T, sender *captureSender) string {
	t.Helper()
	sent := sender.messages()
	require.NotEmpty(t, sent)
	data, ok := sent[len(sent)-1].TemplateData.(passwordResetMail)
	require.True(t, ok)
	return data.Token
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()
	profiles, resets, sender := newMemProfiles(), newMemResets(), &captureSender{}
	svc := newResettableAuthService(profiles, resets, sender)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{Email: "p@example.com", Password: "supersecret", FullName: "Pau", Role: domain.RolePlayer})
	require.NoError(t, err)

	// Unknown addresses look like success and send nothing.
	require.NoError(t, svc.RequestPasswordReset(ctx, "ghost@example.com"))
	assert.Empty(t, sender.messages())

	require.NoError(t, svc.RequestPasswordReset(ctx, " P@Example.com "))
	msg := sender.messages()[0]
	assert.Equal(t, "p@example.com", msg.To[0].Address)
	token := resetTokenFrom(t, sender)
	assert.Equal(t, 20, msg.TemplateData.(passwordResetMail).ExpiresInMinutes)

	err = svc.ConfirmPasswordReset(ctx, token, "tiny")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
	err = svc.ConfirmPasswordReset(ctx, "made-up", "brandnewpass")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token, "brandnewpass"))
	_, err = svc.SignIn(ctx, "p@example.com", "brandnewpass", nil)
	assert.NoError(t, err)

	// Tokens are single use.
	err = svc.ConfirmPasswordReset(ctx, token, "anotherpass1")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestPasswordResetRejectedPasswordKeepsToken(t *testing.T) {
	t.Parallel()
	profiles, resets, sender := newMemProfiles(), newMemResets(), &captureSender{}
	svc := newResettableAuthService(profiles, resets, sender)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{Email: "p@example.com", Password: "supersecret", Role: domain.RolePlayer})
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "p@example.com"))
	token := resetTokenFrom(t, sender)

	// 40 two-byte runes pass a rune-counted max=72 but exceed bcrypt's byte limit.
	err = svc.ConfirmPasswordReset(ctx, token, strings.Repeat("é", 40))
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token, "brandnewpass"))
	_, err = svc.SignIn(ctx, "p@example.com", "brandnewpass", nil)
	assert.NoError(t, err)
}

func TestPasswordResetTokenLifecycle(t *testing.T) {
	t.Parallel()
	profiles, resets, sender := newMemProfiles(), newMemResets(), &captureSender{}
	svc := newResettableAuthService(profiles, resets, sender)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{Email: "c@example.com", Password: "supersecret", Role: domain.RoleCoach})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "c@example.com"))
	first := resetTokenFrom(t, sender)
	require.NoError(t, svc.RequestPasswordReset(ctx, "c@example.com"))
	second := resetTokenFrom(t, sender)

	// A newer request supersedes older links.
	err = svc.ConfirmPasswordReset(ctx, first, "brandnewpass")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	err = svc.ConfirmPasswordReset(ctx, second, "brandnewpass")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestPasswordResetRequiresMailer(t *testing.T) {
	t.Parallel()
	svc := newAuthService(newMemProfiles())
	err := svc.RequestPasswordReset(context.Background(), "p@example.com")
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, err))
}
