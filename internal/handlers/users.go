package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"chirpnet/api/internal/apperror"
	"chirpnet/api/internal/messages"
	"chirpnet/api/internal/middleware"
	"chirpnet/api/internal/models"
	"chirpnet/api/internal/repository"
	"chirpnet/api/internal/security"
	"chirpnet/api/internal/service"
	"chirpnet/api/internal/validation"
)

const ctxAuthenticatedUser = "authenticated_user"

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Username    *string   `json:"username"`
	Verify      string    `json:"verify"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Bio         *string   `json:"bio"`
	Location    *string   `json:"location"`
	Website     *string   `json:"website"`
	Avatar      *string   `json:"avatar"`
	CoverPhoto  *string   `json:"cover_photo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// newUserResponse shapes a user document for clients; password hash and
// the single-use tokens never leave the service.
func newUserResponse(user models.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Username:    user.Username,
		Verify:      string(user.Verify),
		DateOfBirth: user.DateOfBirth,
		Bio:         user.Bio,
		Location:    user.Location,
		Website:     user.Website,
		Avatar:      user.Avatar,
		CoverPhoto:  user.CoverPhoto,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func (h HandlerSet) respondError(c *gin.Context, err error) {
	var se *apperror.ErrorWithStatus
	if errors.As(err, &se) {
		c.JSON(se.Status, gin.H{"message": se.Message})
		return
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": messages.UserNotFound})
		return
	}
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}

func bodyString(body map[string]any, name string) string {
	if raw, ok := body[name]; ok {
		if s, ok := raw.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// --- login ---

func (h HandlerSet) loginValidator() gin.HandlerFunc {
	return validation.Body(
		validation.NewField("email",
			validation.Required(messages.EmailIsRequired),
			validation.IsEmail(messages.EmailIsInvalid),
			validation.Custom(func(ctx context.Context, c *gin.Context, value string, body map[string]any) error {
				user, err := h.users.FindByEmail(ctx, value)
				if err != nil {
					if errors.Is(err, repository.ErrUserNotFound) {
						return errors.New(messages.EmailOrPasswordIncorrect)
					}
					return err
				}
				ok, err := security.VerifyPassword(bodyString(body, "password"), user.PasswordHash)
				if err != nil || !ok {
					return errors.New(messages.EmailOrPasswordIncorrect)
				}
				c.Set(ctxAuthenticatedUser, user)
				return nil
			}),
		),
		validation.NewField("password",
			validation.Required(messages.PasswordIsRequired),
		),
	)
}

func (h HandlerSet) Login(c *gin.Context) {
	userVal, _ := c.Get(ctxAuthenticatedUser)
	user, ok := userVal.(models.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": messages.EmailOrPasswordIncorrect})
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), user.ID, user.Verify)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": messages.LoginSuccess,
		"result":  tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

// --- register ---

func (h HandlerSet) registerValidator() gin.HandlerFunc {
	return validation.Body(
		validation.NewField("name",
			validation.Required(messages.NameIsRequired),
			validation.LengthBetween(3, 100, messages.NameLength),
		),
		validation.NewField("email",
			validation.Required(messages.EmailIsRequired),
			validation.IsEmail(messages.EmailIsInvalid),
			validation.Custom(func(ctx context.Context, _ *gin.Context, value string, _ map[string]any) error {
				exists, err := h.svc.CheckEmailExists(ctx, value)
				if err != nil {
					return err
				}
				if exists {
					return errors.New(messages.EmailAlreadyExists)
				}
				return nil
			}),
		),
		validation.NewField("password",
			validation.Required(messages.PasswordIsRequired),
			validation.StrongPassword(messages.PasswordMustBeStrong),
		),
		validation.NewField("confirm_password",
			validation.Required(messages.ConfirmPasswordIsRequired),
			validation.MatchesField("password", messages.PasswordConfirmationMismatch),
		),
		validation.NewField("date_of_birth",
			validation.ISO8601Date(messages.DateOfBirthMustBeISO8601),
		),
	)
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"date_of_birth"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		dob, _ = time.Parse(time.RFC3339, req.DateOfBirth)
	}

	pair, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Name:        req.Name,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Password:    req.Password,
		DateOfBirth: dob,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": messages.RegisterSuccess,
		"result":  tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

// --- oauth ---

func (h HandlerSet) OAuthGoogle(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Authorization code is required"})
		return
	}

	result, err := h.svc.OAuthGoogle(c.Request.Context(), code)
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := messages.LoginSuccess
	if result.NewUser {
		message = messages.RegisterSuccess
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"result": gin.H{
			"accessToken":  result.AccessToken,
			"refreshToken": result.RefreshToken,
			"newUser":      result.NewUser,
			"verify":       result.Verify,
		},
	})
}

// --- logout / refresh ---

func (h HandlerSet) Logout(c *gin.Context) {
	refreshToken := c.GetString(middleware.CtxRefreshToken)
	if err := h.svc.Logout(c.Request.Context(), refreshToken); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messages.LogoutSuccess})
}

func (h HandlerSet) RefreshToken(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c, middleware.CtxDecodedRefreshToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": messages.RefreshTokenIsRequired})
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), claims.UserID, claims.Verify, c.GetString(middleware.CtxRefreshToken))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": messages.RefreshTokenSuccess,
		"result":  tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

// --- email verification ---

func (h HandlerSet) VerifyEmail(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c, middleware.CtxDecodedEmailVerifyToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": messages.EmailVerifyTokenIsRequired})
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if user.EmailVerifyToken == "" {
		c.JSON(http.StatusOK, gin.H{"message": messages.EmailAlreadyVerified})
		return
	}

	pair, err := h.svc.VerifyEmail(c.Request.Context(), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": messages.EmailVerifySuccess,
		"result":  tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

func (h HandlerSet) ResendVerifyEmail(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c, middleware.CtxDecodedAuthorization)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": messages.AccessTokenIsRequired})
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if user.Verify == models.VerifyStatusVerified {
		c.JSON(http.StatusOK, gin.H{"message": messages.EmailAlreadyVerified})
		return
	}

	if err := h.svc.ResendVerifyEmail(c.Request.Context(), user.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messages.EmailResendVerifySuccess})
}

// --- password reset ---

func (h HandlerSet) forgotPasswordValidator() gin.HandlerFunc {
	return validation.Body(
		validation.NewField("email",
			validation.Required(messages.EmailIsRequired),
			validation.IsEmail(messages.EmailIsInvalid),
			validation.Custom(func(ctx context.Context, c *gin.Context, value string, _ map[string]any) error {
				user, err := h.users.FindByEmail(ctx, value)
				if err != nil {
					if errors.Is(err, repository.ErrUserNotFound) {
						return errors.New(messages.EmailNotFound)
					}
					return err
				}
				c.Set(ctxAuthenticatedUser, user)
				return nil
			}),
		),
	)
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	userVal, _ := c.Get(ctxAuthenticatedUser)
	user, ok := userVal.(models.User)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": messages.UserNotFound})
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), user.ID, user.Verify); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messages.CheckEmailToResetPassword})
}

func (h HandlerSet) VerifyForgotPasswordToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": messages.VerifyForgotPasswordTokenSuccess})
}

func (h HandlerSet) resetPasswordValidator() gin.HandlerFunc {
	return validation.Body(
		validation.NewField("password",
			validation.Required(messages.PasswordIsRequired),
			validation.StrongPassword(messages.PasswordMustBeStrong),
		),
		validation.NewField("confirmPassword",
			validation.Required(messages.ConfirmPasswordIsRequired),
			validation.MatchesField("password", messages.PasswordConfirmationMismatch),
		),
		middleware.ForgotPasswordTokenField("forgotPasswordToken", h.signer, h.users),
	)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c, middleware.CtxDecodedForgotPasswordToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": messages.ForgotPasswordTokenIsRequired})
		return
	}

	var req resetPasswordRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), claims.UserID, req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messages.ResetPasswordSuccess})
}

// --- change password ---

func (h HandlerSet) changePasswordValidator() gin.HandlerFunc {
	return validation.Body(
		validation.NewField("old_password",
			validation.Required(messages.PasswordIsRequired),
			validation.Custom(func(ctx context.Context, c *gin.Context, value string, _ map[string]any) error {
				claims, ok := middleware.ClaimsFrom(c, middleware.CtxDecodedAuthorization)
				if !ok {
					return apperror.Unauthorized(messages.AccessTokenIsRequired)
				}
				user, err := h.users.FindByID(ctx, claims.UserID)
				if err != nil {
					return err
				}
				match, err := security.VerifyPassword(value, user.PasswordHash)
				if err != nil || !match {
					return errors.New(messages.OldPasswordIncorrect)
				}
				return nil
			}),
		),
		validation.NewField("password",
			validation.Required(messages.PasswordIsRequired),
			validation.StrongPassword(messages.PasswordMustBeStrong),
		),
		validation.NewField("confirm_password",
			validation.Required(messages.ConfirmPasswordIsRequired),
			validation.MatchesField("password", messages.PasswordConfirmationMismatch),
		),
	)
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c, middleware.CtxDecodedAuthorization)

	var req changePasswordRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), claims.UserID, req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": messages.ChangePasswordSuccess})
}

// --- profiles ---

func (h HandlerSet) GetMyProfile(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c, middleware.CtxDecodedAuthorization)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": messages.AccessTokenIsRequired})
		return
	}

	user, err := h.svc.GetMyProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": messages.GetProfileSuccess,
		"result":  newUserResponse(user),
	})
}

func (h HandlerSet) GetProfile(c *gin.Context) {
	username := c.Param("username")

	user, err := h.svc.GetProfile(c.Request.Context(), username)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": messages.GetProfileSuccess,
		"result":  newUserResponse(user),
	})
}

func (h HandlerSet) updateMyProfileValidator() gin.HandlerFunc {
	return validation.Body(
		validation.OptionalField("name",
			validation.LengthBetween(3, 100, messages.NameLength),
		),
		validation.OptionalField("date_of_birth",
			validation.ISO8601Date(messages.DateOfBirthMustBeISO8601),
		),
		validation.OptionalField("bio",
			validation.LengthBetween(1, 160, messages.BioLength),
		),
		validation.OptionalField("location",
			validation.LengthBetween(1, 200, messages.LocationLength),
		),
		validation.OptionalField("website",
			validation.LengthBetween(1, 50, messages.WebsiteLength),
		),
		validation.OptionalField("username",
			validation.Username(messages.UsernameInvalid),
			validation.Custom(func(ctx context.Context, _ *gin.Context, value string, _ map[string]any) error {
				_, err := h.users.FindByUsername(ctx, value)
				if err == nil {
					return errors.New(messages.UsernameExists)
				}
				if errors.Is(err, repository.ErrUserNotFound) {
					return nil
				}
				return err
			}),
		),
		validation.OptionalField("avatar",
			validation.LengthBetween(1, 400, messages.ImageURLLength),
		),
		validation.OptionalField("cover_photo",
			validation.LengthBetween(1, 400, messages.ImageURLLength),
		),
	)
}

type updateMyProfileRequest struct {
	Name        *string `json:"name"`
	DateOfBirth *string `json:"date_of_birth"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
	Username    *string `json:"username"`
	Avatar      *string `json:"avatar"`
	CoverPhoto  *string `json:"cover_photo"`
}

func (h HandlerSet) UpdateMyProfile(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c, middleware.CtxDecodedAuthorization)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": messages.AccessTokenIsRequired})
		return
	}

	var req updateMyProfileRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	update := models.ProfileUpdate{
		Name:       req.Name,
		Bio:        req.Bio,
		Location:   req.Location,
		Website:    req.Website,
		Username:   req.Username,
		Avatar:     req.Avatar,
		CoverPhoto: req.CoverPhoto,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			dob, err = time.Parse(time.RFC3339, *req.DateOfBirth)
		}
		if err == nil {
			update.DateOfBirth = &dob
		}
	}

	user, err := h.svc.UpdateMyProfile(c.Request.Context(), claims.UserID, update)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": messages.UpdateMyProfileSuccess,
		"result":  newUserResponse(user),
	})
}

// --- follow graph ---

func (h HandlerSet) followValidator() gin.HandlerFunc {
	return validation.Body(
		validation.NewField("followUserId",
			validation.Required(messages.InvalidUserID),
			validation.Custom(func(ctx context.Context, _ *gin.Context, value string, _ map[string]any) error {
				if _, err := h.users.FindByID(ctx, value); err != nil {
					if errors.Is(err, repository.ErrUserNotFound) {
						return apperror.NotFound(messages.UserNotFound)
					}
					return err
				}
				return nil
			}),
		),
	)
}

type followRequest struct {
	FollowUserID string `json:"followUserId"`
}

func (h HandlerSet) FollowUser(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c, middleware.CtxDecodedAuthorization)

	var req followRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	outcome, err := h.svc.Follow(c.Request.Context(), claims.UserID, req.FollowUserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := messages.FollowUserSuccess
	if outcome == service.FollowOutcomeAlready {
		message = messages.Followed
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h HandlerSet) UnfollowUser(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c, middleware.CtxDecodedAuthorization)

	followUserID := c.Param("userId")
	if _, err := h.users.FindByID(c.Request.Context(), followUserID); err != nil {
		h.respondError(c, err)
		return
	}

	outcome, err := h.svc.Unfollow(c.Request.Context(), claims.UserID, followUserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := messages.UnfollowUserSuccess
	if outcome == service.FollowOutcomeAlreadyUnfollowed {
		message = messages.AlreadyUnfollowed
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
