package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/foxzi/backoffice/internal/apiclient"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newTestService(t *testing.T, handler http.HandlerFunc, tokens *apiclient.MemoryTokens) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewService(apiclient.New(srv.URL, tokens, time.Second), nil)
}

func TestSignInStoresTokens(t *testing.T) {
	tokens := apiclient.NewMemoryTokens(apiclient.Tokens{})
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/admin/signin" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req SignInRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "admin@example.com" || req.Password != "pw" {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte(`{"user":{"id":1,"email":"admin@example.com"},"tokens":{"accessToken":"a","refreshToken":"r"}}`))
	}, tokens)

	resp, err := svc.SignIn(context.Background(), "admin@example.com", "pw")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if resp.User == nil || resp.User.Email != "admin@example.com" {
		t.Errorf("User = %+v", resp.User)
	}

	got, _ := tokens.Tokens(context.Background())
	if got.AccessToken != "a" || got.RefreshToken != "r" {
		t.Errorf("stored tokens = %+v", got)
	}
}

func TestSignInUnauthorized(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	}, apiclient.NewMemoryTokens(apiclient.Tokens{}))

	_, err := svc.SignIn(context.Background(), "admin@example.com", "bad")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignUpDoesNotStoreTokens(t *testing.T) {
	tokens := apiclient.NewMemoryTokens(apiclient.Tokens{AccessToken: "admin"})
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/admin/signup" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer admin" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"user":{"id":2,"email":"new@example.com"},"tokens":{"accessToken":"new","refreshToken":"new"}}`))
	}, tokens)

	_, err := svc.SignUp(context.Background(), SignUpRequest{Email: "new@example.com", Password: "Passw0rdX"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	got, _ := tokens.Tokens(context.Background())
	if got.AccessToken != "admin" {
		t.Errorf("AccessToken = %q, want admin token kept", got.AccessToken)
	}
}

func TestValidateSignUp(t *testing.T) {
	tests := []struct {
		name    string
		req     SignUpRequest
		wantErr string
	}{
		{"valid", SignUpRequest{Email: "a@b.c", Password: "Abcdefg1"}, ""},
		{"valid business", SignUpRequest{Email: "a@b.c", Password: "Abcdefg1", UserType: "business"}, ""},
		{"missing email", SignUpRequest{Password: "Abcdefg1"}, "email is required"},
		{"short", SignUpRequest{Email: "a@b.c", Password: "Ab1"}, "at least 8"},
		{"no digit", SignUpRequest{Email: "a@b.c", Password: "Abcdefgh"}, "one number"},
		{"no upper", SignUpRequest{Email: "a@b.c", Password: "abcdefg1"}, "uppercase"},
		{"bad type", SignUpRequest{Email: "a@b.c", Password: "Abcdefg1", UserType: "robot"}, "invalid user type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignUp(tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateSignUp() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateSignUp() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	tokens := apiclient.NewMemoryTokens(apiclient.Tokens{AccessToken: "old", RefreshToken: "r1"})
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "r1" {
			t.Errorf("refreshToken = %q", body["refreshToken"])
		}
		w.Write([]byte(`{"tokens":{"accessToken":"new","refreshToken":"r2"}}`))
	}, tokens)

	if _, err := svc.Refresh(context.Background(), "r1"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	got, _ := tokens.Tokens(context.Background())
	if got.AccessToken != "new" || got.RefreshToken != "r2" {
		t.Errorf("tokens = %+v", got)
	}

	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrNoRefreshToken) {
		t.Errorf("Refresh(\"\") error = %v, want ErrNoRefreshToken", err)
	}
}

func TestEnsureFresh(t *testing.T) {
	calls := 0
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"tokens":{"accessToken":"new","refreshToken":"r2"}}`))
	}

	t.Run("valid token untouched", func(t *testing.T) {
		calls = 0
		tokens := apiclient.NewMemoryTokens(apiclient.Tokens{
			AccessToken:  signedToken(t, time.Now().Add(time.Hour)),
			RefreshToken: "r1",
		})
		svc := newTestService(t, handler, tokens)
		if err := svc.EnsureFresh(context.Background()); err != nil {
			t.Fatalf("EnsureFresh() error = %v", err)
		}
		if calls != 0 {
			t.Errorf("refresh calls = %d, want 0", calls)
		}
	})

	t.Run("expiring token refreshed", func(t *testing.T) {
		calls = 0
		tokens := apiclient.NewMemoryTokens(apiclient.Tokens{
			AccessToken:  signedToken(t, time.Now().Add(10*time.Second)),
			RefreshToken: "r1",
		})
		svc := newTestService(t, handler, tokens)
		if err := svc.EnsureFresh(context.Background()); err != nil {
			t.Fatalf("EnsureFresh() error = %v", err)
		}
		if calls != 1 {
			t.Errorf("refresh calls = %d, want 1", calls)
		}
		got, _ := tokens.Tokens(context.Background())
		if got.AccessToken != "new" {
			t.Errorf("AccessToken = %q, want new", got.AccessToken)
		}
	})

	t.Run("opaque token untouched", func(t *testing.T) {
		calls = 0
		tokens := apiclient.NewMemoryTokens(apiclient.Tokens{AccessToken: "opaque", RefreshToken: "r1"})
		svc := newTestService(t, handler, tokens)
		if err := svc.EnsureFresh(context.Background()); err != nil {
			t.Fatalf("EnsureFresh() error = %v", err)
		}
		if calls != 0 {
			t.Errorf("refresh calls = %d, want 0", calls)
		}
	})
}

func TestLogoutClearsTokens(t *testing.T) {
	tokens := apiclient.NewMemoryTokens(apiclient.Tokens{AccessToken: "a"})
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {}, tokens)

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	got, _ := tokens.Tokens(context.Background())
	if got.AccessToken != "" {
		t.Errorf("AccessToken = %q, want empty", got.AccessToken)
	}
}
