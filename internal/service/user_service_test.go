package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chirpnet/api/internal/config"
	"chirpnet/api/internal/models"
	"chirpnet/api/internal/repository"
	"chirpnet/api/internal/security"
	"chirpnet/api/internal/service/servicetest"
)

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			AccessToken:         config.TokenConfig{Secret: "access-secret", TTL: 15 * time.Minute},
			RefreshToken:        config.TokenConfig{Secret: "refresh-secret", TTL: 24 * time.Hour},
			EmailVerifyToken:    config.TokenConfig{Secret: "verify-secret", TTL: time.Hour},
			ForgotPasswordToken: config.TokenConfig{Secret: "forgot-secret", TTL: 15 * time.Minute},
		},
	}
}

type serviceFixture struct {
	svc    *UserService
	users  *servicetest.FakeUserStore
	tokens *servicetest.FakeRefreshTokenStore
	edges  *servicetest.FakeFollowerStore
	signer *security.TokenService
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	cfg := testAppConfig()
	users := servicetest.NewFakeUserStore()
	tokens := servicetest.NewFakeRefreshTokenStore()
	edges := servicetest.NewFakeFollowerStore()
	signer := security.NewTokenService(cfg.Security)
	svc := NewUserService(users, tokens, edges, signer, nil, cfg, zerolog.Nop())
	return serviceFixture{svc: svc, users: users, tokens: tokens, edges: edges, signer: signer}
}

func TestRegister(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Register(ctx, RegisterInput{
		Name:        "Ann Lee",
		Email:       "a@x.com",
		Password:    "Abcd12!@",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	user, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.VerifyStatusUnverified, user.Verify)
	assert.NotEmpty(t, user.EmailVerifyToken)

	verifyClaims, err := f.signer.Parse(user.EmailVerifyToken, security.KindEmailVerify)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verifyClaims.UserID)

	match, err := security.VerifyPassword("Abcd12!@", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, match)

	accessClaims, err := f.signer.Parse(pair.AccessToken, security.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, models.VerifyStatusUnverified, accessClaims.Verify)

	assert.Equal(t, 1, f.tokens.Count())
}

func TestLoginThenLogout(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "user-1", models.VerifyStatusVerified)
	require.NoError(t, err)
	assert.Equal(t, 1, f.tokens.Count())

	require.NoError(t, f.svc.Logout(ctx, pair.RefreshToken))
	assert.Equal(t, 0, f.tokens.Count())
}

func TestLoginSessionsAreAdditive(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "user-1", models.VerifyStatusVerified)
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "user-1", models.VerifyStatusVerified)
	require.NoError(t, err)

	assert.Equal(t, 2, f.tokens.Count())
}

func TestLogoutMissingTokenIsNoop(t *testing.T) {
	f := newServiceFixture(t)
	assert.NoError(t, f.svc.Logout(context.Background(), "never-issued"))
}

func TestRefreshRotatesRecord(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "user-1", models.VerifyStatusVerified)
	require.NoError(t, err)

	fresh, err := f.svc.Refresh(ctx, "user-1", models.VerifyStatusVerified, pair.RefreshToken)
	require.NoError(t, err)

	_, err = f.tokens.FindByToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, repository.ErrRefreshTokenNotFound)

	_, err = f.tokens.FindByToken(ctx, fresh.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.tokens.Count())
}

func TestVerifyEmail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ann Lee", Email: "a@x.com", Password: "Abcd12!@"})
	require.NoError(t, err)
	user, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	pair, err := f.svc.VerifyEmail(ctx, user.ID)
	require.NoError(t, err)

	user, err = f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerifyStatusVerified, user.Verify)
	assert.Empty(t, user.EmailVerifyToken)

	claims, err := f.signer.Parse(pair.AccessToken, security.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, models.VerifyStatusVerified, claims.Verify)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ann Lee", Email: "a@x.com", Password: "Abcd12!@"})
	require.NoError(t, err)
	user, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, user.ID, user.Verify))
	user, err = f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, user.ForgotPasswordToken)

	claims, err := f.signer.Parse(user.ForgotPasswordToken, security.KindForgotPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	require.NoError(t, f.svc.ResetPassword(ctx, user.ID, "Wxyz34#$"))
	user, err = f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, user.ForgotPasswordToken)

	match, err := security.VerifyPassword("Wxyz34#$", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestFollowIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	outcome, err := f.svc.Follow(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, FollowOutcomeFollowed, outcome)
	assert.Equal(t, 1, f.edges.Count())

	outcome, err = f.svc.Follow(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, FollowOutcomeAlready, outcome)
	assert.Equal(t, 1, f.edges.Count())
}

func TestUnfollowMissingEdge(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	outcome, err := f.svc.Unfollow(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, FollowOutcomeAlreadyUnfollowed, outcome)

	_, err = f.svc.Follow(ctx, "u1", "u2")
	require.NoError(t, err)

	outcome, err = f.svc.Unfollow(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, FollowOutcomeUnfollowed, outcome)
	assert.Equal(t, 0, f.edges.Count())
}

func TestGetProfileNotFound(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.GetProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

type cachedServiceFixture struct {
	serviceFixture
	cache *servicetest.FakeProfileCache
}

func newCachedServiceFixture(t *testing.T) cachedServiceFixture {
	t.Helper()
	f := newServiceFixture(t)
	profiles := servicetest.NewFakeProfileCache()
	f.svc.cache = profiles
	return cachedServiceFixture{serviceFixture: f, cache: profiles}
}

// registerWithUsername creates a user and gives it a public handle.
func (f cachedServiceFixture) registerWithUsername(t *testing.T, email, username string) models.User {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ann Lee", Email: email, Password: "Abcd12!@"})
	require.NoError(t, err)
	user, err := f.users.FindByEmail(ctx, email)
	require.NoError(t, err)
	user, err = f.svc.UpdateMyProfile(ctx, user.ID, models.ProfileUpdate{Username: &username})
	require.NoError(t, err)
	return user
}

func TestGetProfileCachesWithoutSecrets(t *testing.T) {
	f := newCachedServiceFixture(t)
	ctx := context.Background()
	f.registerWithUsername(t, "a@x.com", "ann_lee90")

	_, err := f.svc.GetProfile(ctx, "ann_lee90")
	require.NoError(t, err)
	require.True(t, f.cache.Has("profile:ann_lee90"))

	raw, err := f.cache.Get(ctx, "profile:ann_lee90")
	require.NoError(t, err)
	var cached models.User
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Nil(t, cached.PasswordHash)
	assert.Empty(t, cached.EmailVerifyToken)
	assert.Empty(t, cached.ForgotPasswordToken)
}

func TestUpdateProfileInvalidatesRenamedHandle(t *testing.T) {
	f := newCachedServiceFixture(t)
	ctx := context.Background()
	user := f.registerWithUsername(t, "a@x.com", "old_handle")

	_, err := f.svc.GetProfile(ctx, "old_handle")
	require.NoError(t, err)
	require.True(t, f.cache.Has("profile:old_handle"))

	newHandle := "new_handle"
	_, err = f.svc.UpdateMyProfile(ctx, user.ID, models.ProfileUpdate{Username: &newHandle})
	require.NoError(t, err)

	// The entry under the prior handle must go with the rename, or the
	// old URL keeps serving the stale profile until the TTL expires.
	assert.False(t, f.cache.Has("profile:old_handle"))
	assert.False(t, f.cache.Has("profile:new_handle"))

	_, err = f.svc.GetProfile(ctx, "old_handle")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	fresh, err := f.svc.GetProfile(ctx, "new_handle")
	require.NoError(t, err)
	require.NotNil(t, fresh.Username)
	assert.Equal(t, "new_handle", *fresh.Username)
}

func TestUpdateProfileInvalidatesCurrentHandle(t *testing.T) {
	f := newCachedServiceFixture(t)
	ctx := context.Background()
	user := f.registerWithUsername(t, "a@x.com", "ann_lee90")

	_, err := f.svc.GetProfile(ctx, "ann_lee90")
	require.NoError(t, err)
	require.True(t, f.cache.Has("profile:ann_lee90"))

	bio := "updated bio"
	_, err = f.svc.UpdateMyProfile(ctx, user.ID, models.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.False(t, f.cache.Has("profile:ann_lee90"))
}
