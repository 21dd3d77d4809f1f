// Package auth signs administrators in and out of the admin API and keeps
// the session tokens fresh.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"

	"github.com/foxzi/backoffice/internal/apiclient"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoRefreshToken     = errors.New("no refresh token")
)

// refreshSkew is how long before expiry an access token is refreshed
const refreshSkew = time.Minute

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest creates another admin account
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType,omitempty"` // individual, business
}

type User struct {
	ID       any    `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	UserType string `json:"userType,omitempty"`
}

type Response struct {
	User   *User             `json:"user,omitempty"`
	Tokens *apiclient.Tokens `json:"tokens,omitempty"`
}

// Service wraps the admin API session endpoints
type Service struct {
	client *apiclient.Client
	logger *slog.Logger
}

func NewService(client *apiclient.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger.With("component", "auth")}
}

// SignIn authenticates and stores the issued tokens
func (s *Service) SignIn(ctx context.Context, email, password string) (*Response, error) {
	var resp Response
	err := s.client.Post(ctx, "/auth/admin/signin", SignInRequest{Email: email, Password: password}, &resp)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiclient.Message(err))
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if resp.Tokens != nil {
		if err := s.client.SetTokens(ctx, *resp.Tokens); err != nil {
			return nil, fmt.Errorf("store tokens: %w", err)
		}
	}

	s.logger.Info("admin signed in", "email", email)
	return &resp, nil
}

// SignUp creates an admin account. The returned tokens belong to the new
// account and are not stored.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Response, error) {
	if err := ValidateSignUp(req); err != nil {
		return nil, err
	}

	var resp Response
	if err := s.client.Post(ctx, "/api/auth/admin/signup", req, &resp); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	s.logger.Info("admin account created", "email", req.Email)
	return &resp, nil
}

// Refresh exchanges the refresh token for a new pair and stores it
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*apiclient.Tokens, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	var resp struct {
		Tokens *apiclient.Tokens `json:"tokens"`
	}
	err := s.client.Post(ctx, "/auth/refresh", map[string]string{"refreshToken": refreshToken}, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if resp.Tokens == nil {
		return nil, errors.New("refresh token: response carried no tokens")
	}

	if err := s.client.SetTokens(ctx, *resp.Tokens); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	return resp.Tokens, nil
}

// Logout clears the stored tokens
func (s *Service) Logout(ctx context.Context) error {
	return s.client.ClearAuth(ctx)
}

// EnsureFresh refreshes the stored tokens when the access token is about to
// expire. Tokens without a readable expiry are left alone.
func (s *Service) EnsureFresh(ctx context.Context) error {
	store := s.client.TokenStore()
	if store == nil {
		return nil
	}
	tokens, err := store.Tokens(ctx)
	if err != nil {
		return err
	}
	if tokens.AccessToken == "" {
		return nil
	}

	exp, ok := ExpiresAt(tokens.AccessToken)
	if !ok || time.Until(exp) > refreshSkew {
		return nil
	}

	if _, err := s.Refresh(ctx, tokens.RefreshToken); err != nil {
		s.logger.Warn("token refresh failed", "error", err)
		return err
	}
	s.logger.Debug("access token refreshed")
	return nil
}

// ExpiresAt reads the exp claim of a JWT without verifying its signature.
// The console is not the token's audience; the API verifies it.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ValidateSignUp applies the account form rules: a password of at least 8
// characters with upper case, lower case and a digit.
func ValidateSignUp(req SignUpRequest) error {
	if req.Email == "" {
		return errors.New("email is required")
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var upper, lower, digit bool
	for _, r := range req.Password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return errors.New("password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	switch req.UserType {
	case "", "individual", "business":
	default:
		return fmt.Errorf("invalid user type: %s", req.UserType)
	}
	return nil
}
