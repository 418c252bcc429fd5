package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"chirpnet/api/internal/config"
	"chirpnet/api/internal/ids"
	"chirpnet/api/internal/models"
	"chirpnet/api/internal/repository"
	"chirpnet/api/internal/security"
)

const profileCacheTTL = 5 * time.Minute

// ProfileCache is the byte-level cache behind public profile lookups.
// A miss is a nil value, not an error. A nil ProfileCache disables
// caching.
type ProfileCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// UserStore is the persistence surface the account service needs from
// the users collection.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	SetEmailVerifyToken(ctx context.Context, id string, token string) error
	MarkVerified(ctx context.Context, id string) error
	SetForgotPasswordToken(ctx context.Context, id string, token string) error
	ResetPassword(ctx context.Context, id string, passwordHash []byte) error
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (models.User, error)
}

type RefreshTokenStore interface {
	Create(ctx context.Context, token models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type FollowerStore interface {
	Exists(ctx context.Context, userID string, followerUserID string) (bool, error)
	Create(ctx context.Context, edge models.Follower) error
	Delete(ctx context.Context, userID string, followerUserID string) (bool, error)
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	users  UserStore
	tokens RefreshTokenStore
	edges  FollowerStore
	signer *security.TokenService
	cache  ProfileCache
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewUserService(
	users UserStore,
	tokens RefreshTokenStore,
	edges FollowerStore,
	signer *security.TokenService,
	cache ProfileCache,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		edges:  edges,
		signer: signer,
		cache:  cache,
		cfg:    cfg,
		log:    log,
	}
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	DateOfBirth time.Time
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (TokenPair, error) {
	userID := ids.New()

	emailVerifyToken, err := s.signer.Sign(security.KindEmailVerify, userID, models.VerifyStatusUnverified)
	if err != nil {
		return TokenPair{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return TokenPair{}, err
	}

	user := models.User{
		ID:               userID,
		Email:            input.Email,
		Name:             input.Name,
		PasswordHash:     passwordHash,
		Verify:           models.VerifyStatusUnverified,
		EmailVerifyToken: emailVerifyToken,
		DateOfBirth:      input.DateOfBirth,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	// Mail dispatch is handled elsewhere; the verify link is only logged.
	s.log.Info().Str("user_id", userID).Str("email", input.Email).
		Str("email_verify_token", emailVerifyToken).Msg("verify email")

	return s.issuePair(ctx, userID, models.VerifyStatusUnverified)
}

func (s *UserService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Login signs a fresh pair and records the refresh token. Prior refresh
// tokens stay valid; sessions are additive.
func (s *UserService) Login(ctx context.Context, userID string, verify models.VerifyStatus) (TokenPair, error) {
	return s.issuePair(ctx, userID, verify)
}

func (s *UserService) issuePair(ctx context.Context, userID string, verify models.VerifyStatus) (TokenPair, error) {
	access, refresh, err := s.signer.SignPair(ctx, userID, verify)
	if err != nil {
		return TokenPair{}, err
	}
	record := models.RefreshToken{
		ID:     ids.New(),
		UserID: userID,
		Token:  refresh,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout removes the matching refresh-token record. A token that is
// already gone is a no-op.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.tokens.DeleteByToken(ctx, refreshToken)
	return err
}

// Refresh rotates the presented refresh token: the old record is removed
// and a fresh pair issued.
func (s *UserService) Refresh(ctx context.Context, userID string, verify models.VerifyStatus, oldToken string) (TokenPair, error) {
	if _, err := s.tokens.DeleteByToken(ctx, oldToken); err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(ctx, userID, verify)
}

func (s *UserService) VerifyEmail(ctx context.Context, userID string) (TokenPair, error) {
	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(ctx, userID, models.VerifyStatusVerified)
}

func (s *UserService) ResendVerifyEmail(ctx context.Context, userID string) error {
	token, err := s.signer.Sign(security.KindEmailVerify, userID, models.VerifyStatusUnverified)
	if err != nil {
		return err
	}
	if err := s.users.SetEmailVerifyToken(ctx, userID, token); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("email_verify_token", token).Msg("resend verify email")
	return nil
}

func (s *UserService) ForgotPassword(ctx context.Context, userID string, verify models.VerifyStatus) error {
	token, err := s.signer.Sign(security.KindForgotPassword, userID, verify)
	if err != nil {
		return err
	}
	if err := s.users.SetForgotPasswordToken(ctx, userID, token); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("forgot_password_token", token).Msg("forgot password email")
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, userID string, newPassword string) error {
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.ResetPassword(ctx, userID, hash)
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, newPassword string) error {
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *UserService) GetMyProfile(ctx context.Context, userID string) (models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// GetProfile serves the public profile, via the cache when warm.
func (s *UserService) GetProfile(ctx context.Context, username string) (models.User, error) {
	if cached, ok := s.cachedProfile(ctx, username); ok {
		return cached, nil
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	s.cacheProfile(ctx, username, user)
	return user, nil
}

// UpdateMyProfile applies the patch and invalidates the cache for both
// the prior and the resulting username, so a renamed profile does not
// keep serving under its old name until the TTL runs out.
func (s *UserService) UpdateMyProfile(ctx context.Context, userID string, update models.ProfileUpdate) (models.User, error) {
	prev, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return models.User{}, err
	}

	if prev.Username != nil {
		s.dropProfileCache(ctx, *prev.Username)
	}
	if user.Username != nil && (prev.Username == nil || *prev.Username != *user.Username) {
		s.dropProfileCache(ctx, *user.Username)
	}
	return user, nil
}

func (s *UserService) Follow(ctx context.Context, userID string, followUserID string) (string, error) {
	exists, err := s.edges.Exists(ctx, userID, followUserID)
	if err != nil {
		return "", err
	}
	if exists {
		return FollowOutcomeAlready, nil
	}
	edge := models.Follower{
		ID:             ids.New(),
		UserID:         userID,
		FollowerUserID: followUserID,
	}
	if err := s.edges.Create(ctx, edge); err != nil {
		return "", err
	}
	return FollowOutcomeFollowed, nil
}

func (s *UserService) Unfollow(ctx context.Context, userID string, followUserID string) (string, error) {
	deleted, err := s.edges.Delete(ctx, userID, followUserID)
	if err != nil {
		return "", err
	}
	if !deleted {
		return FollowOutcomeAlreadyUnfollowed, nil
	}
	return FollowOutcomeUnfollowed, nil
}

const (
	FollowOutcomeFollowed          = "followed"
	FollowOutcomeAlready           = "already_followed"
	FollowOutcomeUnfollowed        = "unfollowed"
	FollowOutcomeAlreadyUnfollowed = "already_unfollowed"
)

func profileCacheKey(username string) string {
	return "profile:" + username
}

func (s *UserService) cachedProfile(ctx context.Context, username string) (models.User, bool) {
	if s.cache == nil {
		return models.User{}, false
	}
	raw, err := s.cache.Get(ctx, profileCacheKey(username))
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("profile cache read failed")
		return models.User{}, false
	}
	if raw == nil {
		return models.User{}, false
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return models.User{}, false
	}
	return user, true
}

func (s *UserService) cacheProfile(ctx context.Context, username string, user models.User) {
	if s.cache == nil {
		return
	}
	// Secrets never enter the cache.
	user.PasswordHash = nil
	user.EmailVerifyToken = ""
	user.ForgotPasswordToken = ""

	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, profileCacheKey(username), raw, profileCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("profile cache write failed")
	}
}

func (s *UserService) dropProfileCache(ctx context.Context, username string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, profileCacheKey(username)); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("profile cache invalidation failed")
	}
}
