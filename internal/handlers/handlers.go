package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"chirpnet/api/internal/cache"
	"chirpnet/api/internal/config"
	"chirpnet/api/internal/middleware"
	"chirpnet/api/internal/repository"
	"chirpnet/api/internal/security"
	"chirpnet/api/internal/service"
	"chirpnet/api/internal/storage"
	"chirpnet/api/internal/validation"
)

type HandlerSet struct {
	log    zerolog.Logger
	cfg    *config.AppConfig
	signer *security.TokenService
	users  service.UserStore
	tokens service.RefreshTokenStore
	svc    *service.UserService
	media  *service.MediaService
	db     *pgxpool.Pool
	cache  *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, redisClient *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	followerRepo := repository.NewFollowerRepository(db)
	signer := security.NewTokenService(cfg.Security)
	profiles := cache.NewProfileCache(redisClient)
	svc := service.NewUserService(userRepo, tokenRepo, followerRepo, signer, profiles, cfg, log)
	media := service.NewMediaService(store, log)

	return HandlerSet{
		log:    log,
		cfg:    cfg,
		signer: signer,
		users:  userRepo,
		tokens: tokenRepo,
		svc:    svc,
		media:  media,
		db:     db,
		cache:  redisClient,
	}
}

func (h HandlerSet) Register(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	users := router.Group("/users")
	{
		users.POST("/login", h.loginValidator(), h.Login)
		users.POST("/register", h.registerValidator(), h.RegisterUser)
		users.GET("/oauth/google", h.OAuthGoogle)
		users.POST("/logout",
			middleware.AccessToken(h.signer),
			validation.Body(middleware.RefreshTokenField(h.signer, h.tokens)),
			h.Logout,
		)
		users.POST("/refresh-token",
			validation.Body(middleware.RefreshTokenField(h.signer, h.tokens)),
			h.RefreshToken,
		)
		users.POST("/verify-email",
			validation.Body(middleware.EmailVerifyTokenField(h.signer)),
			h.VerifyEmail,
		)
		users.POST("/resend-verify-email",
			middleware.AccessToken(h.signer),
			h.ResendVerifyEmail,
		)
		users.POST("/forgot-password", h.forgotPasswordValidator(), h.ForgotPassword)
		users.POST("/verify-forgot-password",
			validation.Body(middleware.ForgotPasswordTokenField("forgotPasswordToken", h.signer, h.users)),
			h.VerifyForgotPasswordToken,
		)
		users.POST("/reset-password", h.resetPasswordValidator(), h.ResetPassword)

		users.GET("/my-profile", middleware.AccessToken(h.signer), h.GetMyProfile)
		users.PATCH("/my-profile",
			middleware.AccessToken(h.signer),
			middleware.VerifiedUser(),
			h.updateMyProfileValidator(),
			h.UpdateMyProfile,
		)
		users.GET("/:username", h.GetProfile)

		users.POST("/follow",
			middleware.AccessToken(h.signer),
			middleware.VerifiedUser(),
			h.followValidator(),
			h.FollowUser,
		)
		users.DELETE("/follow/:userId",
			middleware.AccessToken(h.signer),
			middleware.VerifiedUser(),
			h.UnfollowUser,
		)
		users.PUT("/change-password",
			middleware.AccessToken(h.signer),
			middleware.VerifiedUser(),
			h.changePasswordValidator(),
			h.ChangePassword,
		)
	}

	medias := router.Group("/medias")
	medias.Use(middleware.AccessToken(h.signer), middleware.VerifiedUser())
	medias.POST("/upload-image", h.UploadImage)
}
