package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/sketchboard/internal/typeid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountsDisabled   = errors.New("accounts are not available")
)

const bcryptCost = 12

// Account is a registered user. Emails are stored lowercased.
type Account struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Accounts persists registered users. CreateAccount returns ErrEmailTaken
// for a duplicate email and AccountByEmail returns ErrAccountNotFound.
type Accounts interface {
	CreateAccount(ctx context.Context, a *Account) error
	AccountByEmail(ctx context.Context, email string) (*Account, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	if s.accounts == nil {
		return nil, ErrAccountsDisabled
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := &Account{
		ID:           typeid.NewUserID(),
		Email:        normalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return s.result(acct)
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if s.accounts == nil {
		return nil, ErrAccountsDisabled
	}

	acct, err := s.accounts.AccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.result(acct)
}

func (s *Service) result(acct *Account) (*AuthResult, error) {
	user := User{ID: acct.ID, Email: acct.Email, DisplayName: acct.DisplayName}
	token, err := s.IssueToken(user, s.ttl)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
