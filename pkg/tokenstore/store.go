package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	mathrand "math/rand"
	"time"

	"veshop-backend/models"

	"github.com/redis/go-redis/v9"
)

// Store holds the short-lived auth tokens: registration OTPs keyed by email
// and password-reset tokens indexed both by email and by token value.
type Store interface {
	// IssueOtp generates a numeric code for email, replacing any prior one.
	IssueOtp(ctx context.Context, email string) (*models.RegisterOtp, error)
	// GetOtp returns the live OTP for email or ErrNotFound.
	GetOtp(ctx context.Context, email string) (*models.RegisterOtp, error)
	// DeleteOtp removes the OTP for email. Missing records are not an error.
	DeleteOtp(ctx context.Context, email string) error

	// CreateForgotToken issues a 4-digit reset code with an absolute expiry.
	// Returns ErrConflict while a live record exists for email.
	CreateForgotToken(ctx context.Context, email string) (*models.ForgotToken, error)
	// ReplaceForgotToken deletes any existing record unconditionally and
	// issues a fresh high-entropy token.
	ReplaceForgotToken(ctx context.Context, email string) (*models.ForgotToken, error)
	// GetForgotToken looks a record up by token value or returns ErrNotFound.
	GetForgotToken(ctx context.Context, token string) (*models.ForgotToken, error)
	// DeleteForgotToken removes both indexes of the record.
	DeleteForgotToken(ctx context.Context, t *models.ForgotToken) error
}

var (
	ErrNotFound = errors.New("tokenstore: record not found")
	ErrConflict = errors.New("tokenstore: record already exists")
)

const (
	otpKeyPrefix        = "otp:"
	resetEmailKeyPrefix = "reset:email:"
	resetTokenKeyPrefix = "reset:token:"
)

// generateOtp returns a 6-digit numeric code.
func generateOtp() string {
	return fmt.Sprintf("%06d", mathrand.Intn(1000000))
}

// generateResetCode returns the 4-digit code used by the direct
// forgot-password path.
func generateResetCode() string {
	return fmt.Sprintf("%04d", 1000+mathrand.Intn(9000))
}

// generateResetToken returns the 32-byte random hex token used by the
// resend path. The two formats are deliberately different.
func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RedisStore keeps tokens in Redis. Keys carry a cleanup TTL that is longer
// than the logical reset expiry, so expired reset tokens stay visible to the
// existence check until cleanup, and stale keys never accumulate.
type RedisStore struct {
	client     *redis.Client
	resetTTL   time.Duration
	cleanupTTL time.Duration
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(client *redis.Client, resetTTL, cleanupTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:     client,
		resetTTL:   resetTTL,
		cleanupTTL: cleanupTTL,
	}
}

func (s *RedisStore) IssueOtp(ctx context.Context, email string) (*models.RegisterOtp, error) {
	record := &models.RegisterOtp{
		Email:     email,
		Otp:       generateOtp(),
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	// SET replaces any prior code, so one live OTP per email is structural.
	if err := s.client.Set(ctx, otpKeyPrefix+email, data, s.cleanupTTL).Err(); err != nil {
		return nil, fmt.Errorf("redis set otp: %w", err)
	}

	return record, nil
}

func (s *RedisStore) GetOtp(ctx context.Context, email string) (*models.RegisterOtp, error) {
	data, err := s.client.Get(ctx, otpKeyPrefix+email).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get otp: %w", err)
	}

	var record models.RegisterOtp
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *RedisStore) DeleteOtp(ctx context.Context, email string) error {
	return s.client.Del(ctx, otpKeyPrefix+email).Err()
}

func (s *RedisStore) CreateForgotToken(ctx context.Context, email string) (*models.ForgotToken, error) {
	record := &models.ForgotToken{
		Email:     email,
		Token:     generateResetCode(),
		Expires:   time.Now().Add(s.resetTTL),
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	// SETNX on the email index guards against two valid reset codes
	// circulating for one address at the same time.
	ok, err := s.client.SetNX(ctx, resetEmailKeyPrefix+email, data, s.cleanupTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx reset: %w", err)
	}
	if !ok {
		return nil, ErrConflict
	}

	if err := s.client.Set(ctx, resetTokenKeyPrefix+record.Token, data, s.cleanupTTL).Err(); err != nil {
		return nil, fmt.Errorf("redis set reset token index: %w", err)
	}

	return record, nil
}

func (s *RedisStore) ReplaceForgotToken(ctx context.Context, email string) (*models.ForgotToken, error) {
	// Unconditional delete first: the resend path never conflicts.
	if old, err := s.getForgotByEmail(ctx, email); err == nil {
		if err := s.DeleteForgotToken(ctx, old); err != nil {
			return nil, err
		}
	} else if err != ErrNotFound {
		return nil, err
	}

	token, err := generateResetToken()
	if err != nil {
		return nil, err
	}

	record := &models.ForgotToken{
		Email:     email,
		Token:     token,
		Expires:   time.Now().Add(s.resetTTL),
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(ctx, resetEmailKeyPrefix+email, data, s.cleanupTTL).Err(); err != nil {
		return nil, fmt.Errorf("redis set reset: %w", err)
	}
	if err := s.client.Set(ctx, resetTokenKeyPrefix+record.Token, data, s.cleanupTTL).Err(); err != nil {
		return nil, fmt.Errorf("redis set reset token index: %w", err)
	}

	return record, nil
}

func (s *RedisStore) GetForgotToken(ctx context.Context, token string) (*models.ForgotToken, error) {
	data, err := s.client.Get(ctx, resetTokenKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get reset token: %w", err)
	}

	var record models.ForgotToken
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *RedisStore) DeleteForgotToken(ctx context.Context, t *models.ForgotToken) error {
	return s.client.Del(ctx,
		resetEmailKeyPrefix+t.Email,
		resetTokenKeyPrefix+t.Token,
	).Err()
}

func (s *RedisStore) getForgotByEmail(ctx context.Context, email string) (*models.ForgotToken, error) {
	data, err := s.client.Get(ctx, resetEmailKeyPrefix+email).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get reset: %w", err)
	}

	var record models.ForgotToken
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
