package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"chirpnet/api/internal/config"
	"chirpnet/api/internal/models"
)

// TokenKind tags each JWT with its purpose. Every kind is signed with its
// own secret, and Parse refuses a token whose embedded kind does not
// match the kind the caller expects, so an email-verify token can never
// pass as an access token even if secrets were ever misconfigured to match.
type TokenKind string

const (
	KindAccess         TokenKind = "access"
	KindRefresh        TokenKind = "refresh"
	KindEmailVerify    TokenKind = "email_verify"
	KindForgotPassword TokenKind = "forgot_password"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrKindMismatch = errors.New("token kind mismatch")
)

type UserClaims struct {
	UserID string              `json:"userId"`
	Kind   TokenKind           `json:"token_type"`
	Verify models.VerifyStatus `json:"verify"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the four token kinds against the
// per-kind secrets and expirations in the security config.
type TokenService struct {
	cfg config.SecurityConfig
}

func NewTokenService(cfg config.SecurityConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

func (s *TokenService) kindConfig(kind TokenKind) (config.TokenConfig, error) {
	switch kind {
	case KindAccess:
		return s.cfg.AccessToken, nil
	case KindRefresh:
		return s.cfg.RefreshToken, nil
	case KindEmailVerify:
		return s.cfg.EmailVerifyToken, nil
	case KindForgotPassword:
		return s.cfg.ForgotPasswordToken, nil
	default:
		return config.TokenConfig{}, fmt.Errorf("unknown token kind %q", kind)
	}
}

func (s *TokenService) Sign(kind TokenKind, userID string, verify models.VerifyStatus) (string, error) {
	kc, err := s.kindConfig(kind)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := UserClaims{
		UserID: userID,
		Kind:   kind,
		Verify: verify,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(kc.TTL)),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(kc.Secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// SignPair signs the access and refresh tokens concurrently; neither
// depends on the other.
func (s *TokenService) SignPair(ctx context.Context, userID string, verify models.VerifyStatus) (access string, refresh string, err error) {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var signErr error
		access, signErr = s.Sign(KindAccess, userID, verify)
		return signErr
	})
	g.Go(func() error {
		var signErr error
		refresh, signErr = s.Sign(KindRefresh, userID, verify)
		return signErr
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Parse verifies the signature and expiry of tokenStr against the secret
// for kind and checks the embedded kind tag.
func (s *TokenService) Parse(tokenStr string, kind TokenKind) (*UserClaims, error) {
	kc, err := s.kindConfig(kind)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenStr, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(kc.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrKindMismatch, claims.Kind, kind)
	}
	return claims, nil
}
