// Package users handles registration, sign-in and token issuance.
package users

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arcpay/platform/internal/app/domain/user"
	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/pkg/logger"
)

// ErrInvalidCredentials is returned on a failed sign-in.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken is returned when signing up with an existing email.
var ErrEmailTaken = errors.New("user with this email already exists")

const tokenTTL = 24 * time.Hour

// Service manages user accounts and session tokens.
type Service struct {
	store  storage.UserStore
	secret []byte
	log    *logger.Logger
	now    func() time.Time
}

// New creates a users service. The secret signs session tokens and keys
// the password hash.
func New(store storage.UserStore, secret []byte, log *logger.Logger) (*Service, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("auth secret must be at least 16 bytes")
	}
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{
		store:  store,
		secret: secret,
		log:    log,
		now:    time.Now,
	}, nil
}

// SignUp registers a new user and returns it with a session token.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return user.User{}, "", fmt.Errorf("email, password and name are required")
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return user.User{}, "", ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, "", err
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Email:        email,
		Name:         name,
		PasswordHash: s.hashPassword(password),
	})
	if err != nil {
		return user.User{}, "", err
	}

	token, err := s.issueToken(created.ID)
	if err != nil {
		return user.User{}, "", err
	}
	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, token, nil
}

// SignIn verifies credentials and returns the user with a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return user.User{}, "", fmt.Errorf("email and password are required")
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, "", ErrInvalidCredentials
		}
		return user.User{}, "", err
	}
	if subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(s.hashPassword(password))) != 1 {
		return user.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return user.User{}, "", err
	}
	return u, token, nil
}

// VerifyToken validates a session token and returns the user ID it was
// issued for.
func (s *Service) VerifyToken(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("invalid token subject")
	}
	return sub, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) hashPassword(password string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}
