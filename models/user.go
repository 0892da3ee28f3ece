package models

import "time"

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is an account record. Password carries the bcrypt hash and is never
// serialized.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterRequest creates a new unverified account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strong_password"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyOtpRequest consumes a registration OTP.
type VerifyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required"`
}

// ResendOtpRequest reissues a registration OTP.
type ResendOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordRequest issues a password reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyForgotTokenRequest checks that a reset token exists.
type VerifyForgotTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ResetPasswordRequest consumes a reset token and sets a new password.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,strong_password"`
}

// UpdateProfileRequest mutates name and avatar.
type UpdateProfileRequest struct {
	Name   string `json:"name" validate:"omitempty,max=255"`
	Avatar string `json:"avatar" validate:"omitempty,max=500"`
}

// LoginResponse is the sanitized login payload.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
