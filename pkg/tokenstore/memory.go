package tokenstore

import (
	"context"
	"sync"
	"time"

	"veshop-backend/models"
)

// MemoryStore is an in-memory Store for tests and single-instance
// development setups without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	otps     map[string]*models.RegisterOtp
	resets   map[string]*models.ForgotToken // by email
	byToken  map[string]*models.ForgotToken
	resetTTL time.Duration
}

// NewMemoryStore creates an in-memory token store.
func NewMemoryStore(resetTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		otps:     make(map[string]*models.RegisterOtp),
		resets:   make(map[string]*models.ForgotToken),
		byToken:  make(map[string]*models.ForgotToken),
		resetTTL: resetTTL,
	}
}

func (s *MemoryStore) IssueOtp(_ context.Context, email string) (*models.RegisterOtp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := &models.RegisterOtp{
		Email:     email,
		Otp:       generateOtp(),
		CreatedAt: time.Now(),
	}
	s.otps[email] = record
	return record, nil
}

func (s *MemoryStore) GetOtp(_ context.Context, email string) (*models.RegisterOtp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.otps[email]
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *MemoryStore) DeleteOtp(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.otps, email)
	return nil
}

func (s *MemoryStore) CreateForgotToken(_ context.Context, email string) (*models.ForgotToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resets[email]; ok {
		return nil, ErrConflict
	}

	record := &models.ForgotToken{
		Email:     email,
		Token:     generateResetCode(),
		Expires:   time.Now().Add(s.resetTTL),
		CreatedAt: time.Now(),
	}
	s.resets[email] = record
	s.byToken[record.Token] = record
	return record, nil
}

func (s *MemoryStore) ReplaceForgotToken(_ context.Context, email string) (*models.ForgotToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.resets[email]; ok {
		delete(s.byToken, old.Token)
		delete(s.resets, email)
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
	s.resets[email] = record
	s.byToken[record.Token] = record
	return record, nil
}

func (s *MemoryStore) GetForgotToken(_ context.Context, token string) (*models.ForgotToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *MemoryStore) DeleteForgotToken(_ context.Context, t *models.ForgotToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.resets, t.Email)
	delete(s.byToken, t.Token)
	return nil
}
