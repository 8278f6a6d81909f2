package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("secret", nil)
	token, err := svc.IssueToken(User{ID: "u1", DisplayName: "Ada"}, time.Hour)
	require.NoError(t, err)

	id, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	user, err := svc.Identify(token)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.DisplayName)

	_, err = NewService("other", nil).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.IssueToken(User{}, time.Hour)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	svc := NewService("secret", nil)
	token, err := svc.IssueToken(User{ID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRejectsOtherAlgorithms(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"})
	s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewService("secret", nil).ValidateToken(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	svc := NewService("secret", nil)
	h := svc.AuthMiddleware(http.HandlerFunc(NewHandler(svc).Me))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := svc.IssueToken(User{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"u1"}`, rec.Body.String())
}

func TestGuest(t *testing.T) {
	svc := NewService("secret", nil)
	h := NewHandler(svc)

	rec := httptest.NewRecorder()
	h.Guest(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", strings.NewReader(`{"displayName":" Lin "}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var res AuthResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "Lin", res.User.DisplayName)
	assert.True(t, strings.HasPrefix(res.User.ID, "guest-"))

	user, err := svc.Identify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User, *user)

	rec = httptest.NewRecorder()
	h.Guest(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
}

type fakeAccounts map[string]Account

func (f fakeAccounts) CreateAccount(ctx context.Context, a *Account) error {
	if _, ok := f[a.Email]; ok {
		return ErrEmailTaken
	}
	f[a.Email] = *a
	return nil
}

func (f fakeAccounts) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	a, ok := f[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

func newAccountService() (*Service, fakeAccounts) {
	accts := fakeAccounts{}
	svc := NewService("secret", accts)
	svc.cost = bcrypt.MinCost
	return svc, accts
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, accts := newAccountService()

	res, err := svc.Register(ctx, " Ada@Example.com ", "correct horse", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.True(t, strings.HasPrefix(res.User.ID, "user_"))
	assert.NotEqual(t, "correct horse", accts["ada@example.com"].PasswordHash)

	user, err := svc.Identify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User, *user)

	_, err = svc.Register(ctx, "ada@example.com", "another one", "Imposter")
	assert.ErrorIs(t, err, ErrEmailTaken)

	res2, err := svc.Login(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, res2.User.ID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountsDisabled(t *testing.T) {
	svc := NewService("secret", nil)
	assert.False(t, svc.AccountsEnabled())
	_, err := svc.Register(context.Background(), "a@b.c", "password1", "A")
	assert.ErrorIs(t, err, ErrAccountsDisabled)

	rec := httptest.NewRecorder()
	NewHandler(svc).Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c","password":"password1"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountHandlers(t *testing.T) {
	svc, _ := newAccountService()
	h := NewHandler(svc)

	post := func(fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(body)))
		return rec
	}

	rec := post(h.Register, `{"email":"lin@example.com","password":"longenough"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var res AuthResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "lin", res.User.DisplayName)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		want    int
	}{
		{"duplicate", h.Register, `{"email":"lin@example.com","password":"longenough"}`, http.StatusConflict},
		{"short password", h.Register, `{"email":"x@example.com","password":"short"}`, http.StatusBadRequest},
		{"no email", h.Register, `{"password":"longenough"}`, http.StatusBadRequest},
		{"bad body", h.Login, `{`, http.StatusBadRequest},
		{"wrong password", h.Login, `{"email":"lin@example.com","password":"incorrect"}`, http.StatusUnauthorized},
		{"login", h.Login, `{"email":"lin@example.com","password":"longenough"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, post(tt.handler, tt.body).Code)
		})
	}
}
