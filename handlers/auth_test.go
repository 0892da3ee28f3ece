//go:build integration

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"veshop-backend/models"
	"veshop-backend/pkg/config"
	"veshop-backend/pkg/mail"
	"veshop-backend/pkg/testutil"
	"veshop-backend/pkg/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "integration-secret",
		SessionTTL: time.Hour,
		ClientURL:  "http://localhost:3009",
	}
}

func TestIntegration_RegisterVerifyLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	tokens := tokenstore.NewMemoryStore(time.Hour)
	mailer := &mail.MockMailer{}
	cfg := testConfig()
	email := testutil.RandomEmail()

	// 1. Register creates an unverified account and mails an OTP.
	rec := postJSON(t, Register(db, tokens, mailer), "/api/register", models.RegisterRequest{
		Name:     "Nguyễn Văn A",
		Email:    email,
		Password: "matkhau123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	sent, ok := mailer.Last(email)
	require.True(t, ok, "registration must send an OTP mail")

	var verified bool
	require.NoError(t, db.QueryRow("SELECT verified FROM users WHERE email = $1", email).Scan(&verified))
	assert.False(t, verified)

	// 2. Duplicate registration conflicts.
	rec = postJSON(t, Register(db, tokens, mailer), "/api/register", models.RegisterRequest{
		Name:     "Nguyễn Văn A",
		Email:    email,
		Password: "matkhau123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// 3. Wrong OTP is rejected.
	rec = postJSON(t, VerifyOtp(db, tokens), "/api/verify-otp", models.VerifyOtpRequest{
		Email: email,
		Otp:   "000000",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 4. Correct OTP verifies the account and consumes the code.
	rec = postJSON(t, VerifyOtp(db, tokens), "/api/verify-otp", models.VerifyOtpRequest{
		Email: email,
		Otp:   sent.Body,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, db.QueryRow("SELECT verified FROM users WHERE email = $1", email).Scan(&verified))
	assert.True(t, verified)

	rec = postJSON(t, VerifyOtp(db, tokens), "/api/verify-otp", models.VerifyOtpRequest{
		Email: email,
		Otp:   sent.Body,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, "OTP must be single-use")

	// 5. Login returns a usable session token.
	rec = postJSON(t, Login(db, cfg), "/api/login", models.LoginRequest{
		Email:    email,
		Password: "matkhau123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, email, resp.Data.User.Email)

	userID, err := parseJWT(cfg.JWTSecret, resp.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Data.User.ID, userID)

	// 6. Wrong password fails.
	rec = postJSON(t, Login(db, cfg), "/api/login", models.LoginRequest{
		Email:    email,
		Password: "saimatkhau",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 7. An unknown email is a not-found, not a bad credential.
	rec = postJSON(t, Login(db, cfg), "/api/login", models.LoginRequest{
		Email:    testutil.RandomEmail(),
		Password: "matkhau123",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "không tồn tại")
}

func TestIntegration_ResendOtpReplacesCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	tokens := tokenstore.NewMemoryStore(time.Hour)
	mailer := &mail.MockMailer{}
	email := testutil.RandomEmail()

	rec := postJSON(t, Register(db, tokens, mailer), "/api/register", models.RegisterRequest{
		Name:     "Trần Thị B",
		Email:    email,
		Password: "matkhau123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	first, _ := mailer.Last(email)

	rec = postJSON(t, ResendOtp(db, tokens, mailer), "/api/resend-otp", models.ResendOtpRequest{Email: email})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second, _ := mailer.Last(email)

	if first.Body != second.Body {
		// Old code must be dead once replaced.
		rec = postJSON(t, VerifyOtp(db, tokens), "/api/verify-otp", models.VerifyOtpRequest{
			Email: email,
			Otp:   first.Body,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec = postJSON(t, VerifyOtp(db, tokens), "/api/verify-otp", models.VerifyOtpRequest{
		Email: email,
		Otp:   second.Body,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// A verified account cannot request another code.
	rec = postJSON(t, ResendOtp(db, tokens, mailer), "/api/resend-otp", models.ResendOtpRequest{Email: email})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIntegration_ForgotPasswordFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	tokens := tokenstore.NewMemoryStore(time.Hour)
	mailer := &mail.MockMailer{}
	cfg := testConfig()
	email := testutil.RandomEmail()
	testutil.CreateTestUser(t, db, email, "matkhaucu1", models.RoleCustomer)

	// Unknown email is a 404.
	rec := postJSON(t, ForgotPassword(db, tokens, mailer), "/api/forgot-password", models.ForgotPasswordRequest{
		Email: "khongtontai@example.com",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// First request issues a code.
	rec = postJSON(t, ForgotPassword(db, tokens, mailer), "/api/forgot-password", models.ForgotPasswordRequest{Email: email})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// A second request conflicts while the first code is alive.
	rec = postJSON(t, ForgotPassword(db, tokens, mailer), "/api/forgot-password", models.ForgotPasswordRequest{Email: email})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Resend replaces the record unconditionally and mails a link.
	rec = postJSON(t, ResendForgotToken(db, cfg, tokens, mailer), "/api/resend-forgot-token", models.ForgotPasswordRequest{Email: email})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sent, ok := mailer.Last(email)
	require.True(t, ok)
	link, err := url.Parse(sent.Body)
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.Len(t, token, 64, "resend issues a 32-byte hex token")

	// Token existence check passes.
	rec = postJSON(t, VerifyForgotToken(tokens), "/api/verify-forgot-token", models.VerifyForgotTokenRequest{Token: token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, VerifyForgotToken(tokens), "/api/verify-forgot-token", models.VerifyForgotTokenRequest{Token: "deadbeef"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Consume the token.
	rec = postJSON(t, ResetPassword(db, tokens), "/api/reset-passwords", models.ResetPasswordRequest{
		Token:       token,
		NewPassword: "matkhaumoi2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The token is single-use.
	rec = postJSON(t, ResetPassword(db, tokens), "/api/reset-passwords", models.ResetPasswordRequest{
		Token:       token,
		NewPassword: "matkhaumoi3",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The new password logs in, the old one does not.
	rec = postJSON(t, Login(db, cfg), "/api/login", models.LoginRequest{Email: email, Password: "matkhaumoi2"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = postJSON(t, Login(db, cfg), "/api/login", models.LoginRequest{Email: email, Password: "matkhaucu1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIntegration_ExpiredResetToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	// Negative TTL: every issued token is already expired.
	tokens := tokenstore.NewMemoryStore(-time.Minute)
	mailer := &mail.MockMailer{}
	cfg := testConfig()
	email := testutil.RandomEmail()
	testutil.CreateTestUser(t, db, email, "matkhaucu1", models.RoleCustomer)

	rec := postJSON(t, ResendForgotToken(db, cfg, tokens, mailer), "/api/resend-forgot-token", models.ForgotPasswordRequest{Email: email})
	require.Equal(t, http.StatusOK, rec.Code)
	sent, _ := mailer.Last(email)
	link, err := url.Parse(sent.Body)
	require.NoError(t, err)
	token := link.Query().Get("token")

	// Verification only checks existence, so an expired token still passes.
	rec = postJSON(t, VerifyForgotToken(tokens), "/api/verify-forgot-token", models.VerifyForgotTokenRequest{Token: token})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Consumption enforces expiry.
	rec = postJSON(t, ResetPassword(db, tokens), "/api/reset-passwords", models.ResetPasswordRequest{
		Token:       token,
		NewPassword: "matkhaumoi2",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "hết hạn")
}

func TestIntegration_ValidationErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	tokens := tokenstore.NewMemoryStore(time.Hour)
	mailer := &mail.MockMailer{}

	cases := []struct {
		name string
		body models.RegisterRequest
	}{
		{"missing name", models.RegisterRequest{Email: "a@b.com", Password: "matkhau123"}},
		{"bad email", models.RegisterRequest{Name: "A", Email: "not-an-email", Password: "matkhau123"}},
		{"short password", models.RegisterRequest{Name: "A", Email: "a@b.com", Password: "a1"}},
		{"digitless password", models.RegisterRequest{Name: "A", Email: "a@b.com", Password: "matkhau"}},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.body.Email == "a@b.com" {
				tc.body.Email = fmt.Sprintf("a%d@b.com", i)
			}
			rec := postJSON(t, Register(db, tokens, mailer), "/api/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
