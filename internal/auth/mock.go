package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type mockUser struct {
	User
	password string
}

// MockService is an in-memory Service with one seeded account
// (test@demo.com / 123456). Emails are compared case-insensitively.
type MockService struct {
	mu     sync.Mutex
	users  []mockUser
	secret []byte
	expiry time.Duration
}

// NewMockService builds a mock auth backend signing tokens with secret.
func NewMockService(secret string, expiry time.Duration) *MockService {
	return &MockService{
		users: []mockUser{
			{User: User{ID: "1", Name: "Mock User", Email: "test@demo.com"}, password: "123456"},
		},
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Claims is the token payload shape shared with a production auth API.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Login implements Service.
func (s *MockService) Login(ctx context.Context, email, password string) (*User, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	email = strings.TrimSpace(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && u.password == password {
			user := u.User
			token, err := s.mint(&user)
			if err != nil {
				return nil, "", err
			}
			return &user, token, nil
		}
	}
	return nil, "", ErrInvalidCredentials
}

// Signup implements Service.
func (s *MockService) Signup(ctx context.Context, name, email, password string) (*User, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return nil, "", ErrEmailRegistered
		}
	}

	user := User{ID: uuid.NewString(), Name: name, Email: email}
	s.users = append(s.users, mockUser{User: user, password: password})

	token, err := s.mint(&user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *MockService) mint(user *User) (string, error) {
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if s.expiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(s.expiry))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
