package messages

// Response messages returned by the users API. Handlers and validators
// reference these so clients can match on stable strings.
const (
	ValidationError = "Validation error"

	NameIsRequired           = "Name is required"
	NameLength               = "Name must be from 3 to 100 characters"
	EmailIsRequired          = "Email is required"
	EmailIsInvalid           = "Email is invalid"
	EmailAlreadyExists       = "Email already exists"
	EmailOrPasswordIncorrect = "Email or password is incorrect"
	EmailAlreadyVerified     = "Email already verified"
	EmailVerifySuccess       = "Email verify success"
	EmailResendVerifySuccess = "Email resend verify success"
	EmailNotFound            = "Email not found"
	EmailNotVerified         = "Email not verified"

	PasswordIsRequired           = "Password is required"
	PasswordMustBeStrong         = "Password must be 6-50 characters long and contain at least 1 lowercase, 1 uppercase, 1 number and 1 symbol"
	ConfirmPasswordIsRequired    = "Confirm password is required"
	PasswordConfirmationMismatch = "Password confirmation does not match password"
	DateOfBirthMustBeISO8601     = "Date of birth must be ISO8601 format"

	UserNotFound    = "User not found"
	RegisterSuccess = "Register success"
	LoginSuccess    = "Login success"
	LogoutSuccess   = "Logout success"

	AccessTokenIsRequired  = "Access token is required"
	RefreshTokenIsRequired = "Refresh token is required"
	RefreshTokenIsInvalid  = "Refresh token is invalid"
	RefreshTokenNotFound   = "Refresh token not found"
	RefreshTokenSuccess    = "Refresh token success"

	EmailVerifyTokenIsRequired = "Email verify token is required"
	EmailVerifyTokenInvalid    = "Email verify token invalid"

	CheckEmailToResetPassword        = "Check email to reset password"
	ForgotPasswordTokenIsRequired    = "Forgot password token is required"
	ForgotPasswordTokenInvalid       = "Forgot password token invalid"
	VerifyForgotPasswordTokenSuccess = "User verify forgot password token success"
	ResetPasswordSuccess             = "Reset password success"

	GetProfileSuccess      = "Get profile success"
	UpdateMyProfileSuccess = "Update my profile success"
	BioLength              = "Bio must be from 1 to 160 characters"
	LocationLength         = "Location must be from 1 to 200 characters"
	WebsiteLength          = "Website must be from 1 to 50 characters"
	UsernameInvalid        = "User name must be from 4 to 15 characters long and contain only letters, numbers and underscores"
	UsernameExists         = "Username exist"
	ImageURLLength         = "Image url must be from 1 to 400 characters"

	FollowUserSuccess   = "Follow user success"
	InvalidUserID       = "Invalid user id"
	Followed            = "User followed"
	AlreadyUnfollowed   = "User already unfollowed"
	UnfollowUserSuccess = "Unfollow user success"

	OldPasswordIncorrect  = "Old password incorrect"
	ChangePasswordSuccess = "Change password success"

	GoogleEmailNotVerified = "Google account email is not verified"
	UploadImageSuccess     = "Upload image success"
)
