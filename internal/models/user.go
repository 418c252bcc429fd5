package models

import "time"

type VerifyStatus string

const (
	VerifyStatusUnverified VerifyStatus = "unverified"
	VerifyStatusVerified   VerifyStatus = "verified"
	VerifyStatusBanned     VerifyStatus = "banned"
)

type User struct {
	ID                  string
	Email               string
	Name                string
	Username            *string
	PasswordHash        []byte
	Verify              VerifyStatus
	EmailVerifyToken    string
	ForgotPasswordToken string
	DateOfBirth         time.Time
	Bio                 *string
	Location            *string
	Website             *string
	Avatar              *string
	CoverPhoto          *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ProfileUpdate carries the mutable profile fields; nil means "leave
// unchanged".
type ProfileUpdate struct {
	Name        *string
	DateOfBirth *time.Time
	Bio         *string
	Location    *string
	Website     *string
	Username    *string
	Avatar      *string
	CoverPhoto  *string
}

type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
}

type Follower struct {
	ID             string
	UserID         string
	FollowerUserID string
	CreatedAt      time.Time
}
