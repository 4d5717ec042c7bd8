package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// AccountLookup resolves accounts for authentication.
type AccountLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (types.User, error)
	FindByUsername(ctx context.Context, username string) ([]types.User, error)
	FindByEmail(ctx context.Context, email string) ([]types.User, error)
}

// TokenClaims is the payload of an access token.
type TokenClaims struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies access tokens.
type AuthService struct {
	users    AccountLookup
	secret   []byte
	tokenTTL time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewAuthService(users AccountLookup, secret string, tokenTTL time.Duration, logger logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Login checks identifier against usernames first and emails second, then
// compares the password with the stored hash.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", err
	}
	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return token, nil
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (types.User, error) {
	users, err := s.users.FindByUsername(ctx, identifier)
	if err != nil {
		return types.User{}, err
	}
	if len(users) > 0 {
		return users[0], nil
	}
	users, err = s.users.FindByEmail(ctx, identifier)
	if err != nil {
		return types.User{}, err
	}
	if len(users) > 0 {
		return users[0], nil
	}
	return types.User{}, ErrInvalidCredentials
}

// IssueToken signs a token for user.
func (s *AuthService) IssueToken(user types.User) (string, error) {
	now := s.now()
	claims := TokenClaims{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies the signature and expiry of tokenString.
func (s *AuthService) ParseToken(tokenString string) (TokenClaims, error) {
	claims := TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return TokenClaims{}, ErrUnauthorized
	}
	if claims.ID == uuid.Nil {
		return TokenClaims{}, ErrUnauthorized
	}
	return claims, nil
}

// Authenticate verifies tokenString and confirms its account still exists.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (TokenClaims, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return TokenClaims{}, err
	}
	if _, err := s.users.FindByID(ctx, claims.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenClaims{}, ErrUnauthorized
		}
		return TokenClaims{}, err
	}
	return claims, nil
}
