package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chirpnet/api/internal/apperror"
	"chirpnet/api/internal/messages"
	"chirpnet/api/internal/models"
	"chirpnet/api/internal/repository"
	"chirpnet/api/internal/security"
	"chirpnet/api/internal/service"
	"chirpnet/api/internal/validation"
)

// Context keys for decoded claims attached by the token validators.
const (
	CtxDecodedAuthorization       = "decoded_authorization"
	CtxDecodedRefreshToken        = "decoded_refresh_token"
	CtxDecodedEmailVerifyToken    = "decoded_email_verify_token"
	CtxDecodedForgotPasswordToken = "decoded_forgot_password_token"
	CtxRefreshToken               = "refresh_token"
)

func ClaimsFrom(c *gin.Context, key string) (*security.UserClaims, bool) {
	val, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	claims, ok := val.(*security.UserClaims)
	return claims, ok
}

// AccessToken validates the Authorization bearer token and attaches its
// claims. Any failure is a 401.
func AccessToken(signer *security.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": messages.AccessTokenIsRequired})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := signer.Parse(tokenStr, security.KindAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access token " + err.Error()})
			return
		}

		c.Set(CtxDecodedAuthorization, claims)
		c.Next()
	}
}

// VerifiedUser gates routes that require a verified email. Runs after
// AccessToken.
func VerifiedUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c, CtxDecodedAuthorization)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": messages.AccessTokenIsRequired})
			return
		}
		if claims.Verify != models.VerifyStatusVerified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": messages.EmailNotVerified})
			return
		}
		c.Next()
	}
}

// RefreshTokenField validates the refreshToken body field: signature,
// expiry, kind, and existence in the store. This is the one place token
// consumption is checked against persisted state.
func RefreshTokenField(signer *security.TokenService, tokens service.RefreshTokenStore) validation.Field {
	return validation.NewField("refreshToken",
		validation.Custom(func(ctx context.Context, c *gin.Context, value string, _ map[string]any) error {
			if value == "" {
				return apperror.Unauthorized(messages.RefreshTokenIsRequired)
			}

			claims, err := signer.Parse(value, security.KindRefresh)
			if err != nil {
				return apperror.Unauthorized(messages.RefreshTokenIsInvalid)
			}

			if _, err := tokens.FindByToken(ctx, value); err != nil {
				if errors.Is(err, repository.ErrRefreshTokenNotFound) {
					return apperror.Unauthorized(messages.RefreshTokenNotFound)
				}
				return err
			}

			c.Set(CtxDecodedRefreshToken, claims)
			c.Set(CtxRefreshToken, value)
			return nil
		}),
	)
}

func EmailVerifyTokenField(signer *security.TokenService) validation.Field {
	return validation.NewField("emailVerifyToken",
		validation.Custom(func(_ context.Context, c *gin.Context, value string, _ map[string]any) error {
			if value == "" {
				return apperror.Unauthorized(messages.EmailVerifyTokenIsRequired)
			}

			claims, err := signer.Parse(value, security.KindEmailVerify)
			if err != nil {
				return apperror.Unauthorized(messages.EmailVerifyTokenInvalid)
			}

			c.Set(CtxDecodedEmailVerifyToken, claims)
			return nil
		}),
	)
}

// ForgotPasswordTokenField checks the token against the user's stored
// single-use field so a consumed token cannot be replayed.
func ForgotPasswordTokenField(name string, signer *security.TokenService, users service.UserStore) validation.Field {
	return validation.NewField(name,
		validation.Custom(func(ctx context.Context, c *gin.Context, value string, _ map[string]any) error {
			if value == "" {
				return apperror.Unauthorized(messages.ForgotPasswordTokenIsRequired)
			}

			claims, err := signer.Parse(value, security.KindForgotPassword)
			if err != nil {
				return apperror.Unauthorized(messages.ForgotPasswordTokenInvalid)
			}

			user, err := users.FindByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return apperror.Unauthorized(messages.UserNotFound)
				}
				return err
			}
			if user.ForgotPasswordToken != value {
				return apperror.Unauthorized(messages.ForgotPasswordTokenInvalid)
			}

			c.Set(CtxDecodedForgotPasswordToken, claims)
			return nil
		}),
	)
}
