package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

const defaultTTL = 24 * time.Hour

// Service issues and validates HS256 bearer tokens. The token subject is
// the user id. Guests are not stored; registered users live in accounts,
// which may be nil when the store has no account table.
type Service struct {
	accounts  Accounts
	jwtSecret []byte
	ttl       time.Duration
	cost      int
}

func NewService(jwtSecret string, accounts Accounts) *Service {
	return &Service{
		accounts:  accounts,
		jwtSecret: []byte(jwtSecret),
		ttl:       defaultTTL,
		cost:      bcryptCost,
	}
}

// AccountsEnabled reports whether Register and Login are available.
func (s *Service) AccountsEnabled() bool { return s.accounts != nil }

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName"`
}

// Guest creates a fresh anonymous identity and a token for it.
func (s *Service) Guest(displayName string) (*AuthResult, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "Guest"
	}
	user := User{ID: "guest-" + uuid.New().String(), DisplayName: displayName}
	token, err := s.IssueToken(user, s.ttl)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// IssueToken signs a token for user valid for ttl.
func (s *Service) IssueToken(user User, ttl time.Duration) (string, error) {
	if user.ID == "" {
		return "", errors.New("token subject is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"name": user.DisplayName,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if user.Email != "" {
		claims["email"] = user.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken returns the user id a token was issued for.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	user, err := s.Identify(tokenString)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Identify validates a token and returns the identity it carries.
func (s *Service) Identify(tokenString string) (*User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name = userID
	}

	email, _ := claims["email"].(string)

	return &User{ID: userID, Email: email, DisplayName: name}, nil
}
