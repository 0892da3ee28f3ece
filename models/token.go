package models

import "time"

// RegisterOtp is the ephemeral registration verification code, keyed by
// email in the token store. At most one live code exists per email.
type RegisterOtp struct {
	Email     string    `json:"email"`
	Otp       string    `json:"otp"`
	CreatedAt time.Time `json:"created_at"`
}

// ForgotToken is the ephemeral password-reset record. Expires is an absolute
// timestamp checked lazily when the token is consumed.
type ForgotToken struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Expires   time.Time `json:"expires"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given moment.
func (t *ForgotToken) Expired(now time.Time) bool {
	return t.Expires.Before(now)
}
