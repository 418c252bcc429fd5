// Package servicetest provides in-memory store fakes for exercising the
// service and handler layers without a database.
package servicetest

import (
	"context"
	"sync"
	"time"

	"chirpnet/api/internal/models"
	"chirpnet/api/internal/repository"
)

type FakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{users: map[string]models.User{}}
}

func (f *FakeUserStore) Create(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *FakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *FakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *FakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username != nil && *user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *FakeUserStore) mutate(id string, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now()
	f.users[id] = user
	return nil
}

func (f *FakeUserStore) SetEmailVerifyToken(_ context.Context, id string, token string) error {
	return f.mutate(id, func(u *models.User) { u.EmailVerifyToken = token })
}

func (f *FakeUserStore) MarkVerified(_ context.Context, id string) error {
	return f.mutate(id, func(u *models.User) {
		u.EmailVerifyToken = ""
		u.Verify = models.VerifyStatusVerified
	})
}

func (f *FakeUserStore) SetForgotPasswordToken(_ context.Context, id string, token string) error {
	return f.mutate(id, func(u *models.User) { u.ForgotPasswordToken = token })
}

func (f *FakeUserStore) ResetPassword(_ context.Context, id string, hash []byte) error {
	return f.mutate(id, func(u *models.User) {
		u.ForgotPasswordToken = ""
		u.PasswordHash = hash
	})
}

func (f *FakeUserStore) UpdatePassword(_ context.Context, id string, hash []byte) error {
	return f.mutate(id, func(u *models.User) { u.PasswordHash = hash })
}

func (f *FakeUserStore) UpdateProfile(_ context.Context, id string, update models.ProfileUpdate) (models.User, error) {
	err := f.mutate(id, func(u *models.User) {
		if update.Name != nil {
			u.Name = *update.Name
		}
		if update.DateOfBirth != nil {
			u.DateOfBirth = *update.DateOfBirth
		}
		if update.Bio != nil {
			u.Bio = update.Bio
		}
		if update.Location != nil {
			u.Location = update.Location
		}
		if update.Website != nil {
			u.Website = update.Website
		}
		if update.Username != nil {
			u.Username = update.Username
		}
		if update.Avatar != nil {
			u.Avatar = update.Avatar
		}
		if update.CoverPhoto != nil {
			u.CoverPhoto = update.CoverPhoto
		}
	})
	if err != nil {
		return models.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

type FakeRefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func NewFakeRefreshTokenStore() *FakeRefreshTokenStore {
	return &FakeRefreshTokenStore{tokens: map[string]models.RefreshToken{}}
}

func (f *FakeRefreshTokenStore) Create(_ context.Context, token models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.CreatedAt = time.Now()
	f.tokens[token.Token] = token
	return nil
}

func (f *FakeRefreshTokenStore) FindByToken(_ context.Context, token string) (models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.tokens[token]
	if !ok {
		return models.RefreshToken{}, repository.ErrRefreshTokenNotFound
	}
	return record, nil
}

func (f *FakeRefreshTokenStore) DeleteByToken(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token]; !ok {
		return false, nil
	}
	delete(f.tokens, token)
	return true, nil
}

func (f *FakeRefreshTokenStore) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for token, record := range f.tokens {
		if record.CreatedAt.Before(cutoff) {
			delete(f.tokens, token)
			deleted++
		}
	}
	return deleted, nil
}

func (f *FakeRefreshTokenStore) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type FakeFollowerStore struct {
	mu    sync.Mutex
	edges map[[2]string]bool
}

func NewFakeFollowerStore() *FakeFollowerStore {
	return &FakeFollowerStore{edges: map[[2]string]bool{}}
}

func (f *FakeFollowerStore) Exists(_ context.Context, userID, followerUserID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edges[[2]string{userID, followerUserID}], nil
}

func (f *FakeFollowerStore) Create(_ context.Context, edge models.Follower) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges[[2]string{edge.UserID, edge.FollowerUserID}] = true
	return nil
}

func (f *FakeFollowerStore) Delete(_ context.Context, userID, followerUserID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{userID, followerUserID}
	if !f.edges[key] {
		return false, nil
	}
	delete(f.edges, key)
	return true, nil
}

func (f *FakeFollowerStore) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edges)
}

type FakeProfileCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func NewFakeProfileCache() *FakeProfileCache {
	return &FakeProfileCache{entries: map[string][]byte{}}
}

func (f *FakeProfileCache) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key], nil
}

func (f *FakeProfileCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = append([]byte(nil), value...)
	return nil
}

func (f *FakeProfileCache) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func (f *FakeProfileCache) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}
