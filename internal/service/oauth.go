package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"chirpnet/api/internal/apperror"
	"chirpnet/api/internal/messages"
	"chirpnet/api/internal/models"
	"chirpnet/api/internal/repository"
	"chirpnet/api/internal/security"
)

// oauthExchangeTimeout bounds the round trips to the provider so an
// unresponsive provider cannot hang the request.
const oauthExchangeTimeout = 10 * time.Second

type OAuthResult struct {
	TokenPair
	NewUser bool
	Verify  models.VerifyStatus
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}

// OAuthGoogle exchanges the authorization code, fetches the Google
// profile, and either logs the matching local account in or registers a
// new one with a synthesized password.
func (s *UserService) OAuthGoogle(ctx context.Context, code string) (OAuthResult, error) {
	oc := s.cfg.GoogleOAuth
	conf := oauth2.Config{
		ClientID:     oc.ClientID,
		ClientSecret: oc.ClientSecret,
		RedirectURL:  oc.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  oc.AuthURL,
			TokenURL: oc.TokenURL,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, oauthExchangeTimeout)
	defer cancel()

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return OAuthResult{}, apperror.BadRequest(fmt.Sprintf("Failed to exchange token: %s", err))
	}

	info, err := fetchGoogleUserInfo(ctx, conf.Client(ctx, token), oc.UserInfoURL)
	if err != nil {
		return OAuthResult{}, apperror.BadRequest(fmt.Sprintf("Failed to get user info: %s", err))
	}

	// Reject before touching the local store.
	if !info.EmailVerified {
		return OAuthResult{}, apperror.BadRequest(messages.GoogleEmailNotVerified)
	}

	user, err := s.users.FindByEmail(ctx, info.Email)
	if err == nil {
		pair, err := s.Login(ctx, user.ID, user.Verify)
		if err != nil {
			return OAuthResult{}, err
		}
		return OAuthResult{TokenPair: pair, NewUser: false, Verify: user.Verify}, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return OAuthResult{}, err
	}

	password, err := security.RandomPassword()
	if err != nil {
		return OAuthResult{}, err
	}
	pair, err := s.Register(ctx, RegisterInput{
		Name:     info.Name,
		Email:    info.Email,
		Password: password,
	})
	if err != nil {
		return OAuthResult{}, err
	}
	return OAuthResult{TokenPair: pair, NewUser: true, Verify: models.VerifyStatusUnverified}, nil
}

func fetchGoogleUserInfo(ctx context.Context, client *http.Client, url string) (googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return googleUserInfo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}
	return info, nil
}
