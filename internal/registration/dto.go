package registration

// PreRegisterRequest is the sign-up payload. The account is not
// created until the emailed verification link is opened.
type PreRegisterRequest struct {
	Username   string   `json:"username" validate:"required,min=3,max=40"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8,max=128"`
	Location   string   `json:"location" validate:"omitempty,max=120"`
	Categories []string `json:"categories" validate:"omitempty,dive,max=60"`
	Wishlist   []string `json:"wishlist" validate:"omitempty,dive,max=60"`
}

// ResendVerificationRequest re-issues the confirmation mail.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordRequest kicks off the password-reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the reset with the emailed token.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// VerifyEmailResult reports the committed account.
type VerifyEmailResult struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
