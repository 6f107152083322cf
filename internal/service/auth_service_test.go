package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/psyscribe/psyscribe/internal/config"
	"github.com/psyscribe/psyscribe/internal/domain"
	"github.com/psyscribe/psyscribe/pkg/auth"
)

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret:          "unit-test-secret-unit-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "psyscribe-api",
	})
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return string(h)
}

func authFixture(t *testing.T, users ...*domain.User) *AuthService {
	t.Helper()
	audit := NewAuditService(&fakeAuditRepo{}, nil, zap.NewNop())
	t.Cleanup(audit.Shutdown)
	return NewAuthService(newFakeUserRepo(users...), testJWTManager(), audit, zap.NewNop())
}

func TestLogin(t *testing.T) {
	const password = "CorrectHorse7Battery"

	tests := []struct {
		name     string
		user     func(t *testing.T) *domain.User
		email    string
		password string
		wantErr  error
	}{
		{
			name: "valid credentials",
			user: func(t *testing.T) *domain.User {
				return &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: true}
			},
			email:    "a@clinic.example",
			password: password,
		},
		{
			name: "wrong password",
			user: func(t *testing.T) *domain.User {
				return &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: true}
			},
			email:    "a@clinic.example",
			password: "NotThePassword1",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "unknown email",
			user: func(t *testing.T) *domain.User {
				return &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: true}
			},
			email:    "nobody@clinic.example",
			password: password,
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "inactive account",
			user: func(t *testing.T) *domain.User {
				return &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: false}
			},
			email:    "a@clinic.example",
			password: password,
			wantErr:  ErrAccountInactive,
		},
		{
			name: "locked account",
			user: func(t *testing.T) *domain.User {
				until := time.Now().Add(10 * time.Minute)
				return &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: true, LockedUntil: &until}
			},
			email:    "a@clinic.example",
			password: password,
			wantErr:  ErrAccountLocked,
		},
		{
			name: "expired lock admits valid credentials",
			user: func(t *testing.T) *domain.User {
				until := time.Now().Add(-time.Minute)
				return &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: true, LockedUntil: &until}
			},
			email:    "a@clinic.example",
			password: password,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := authFixture(t, tt.user(t))

			pair, err := svc.Login(context.Background(), tt.email, tt.password, "10.0.0.1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if pair.AccessToken == "" || pair.RefreshToken == "" {
				t.Error("token pair incomplete")
			}
			if pair.TokenType != "Bearer" {
				t.Errorf("token type = %q, want Bearer", pair.TokenType)
			}
		})
	}
}

func TestLoginLockout(t *testing.T) {
	const password = "CorrectHorse7Battery"
	user := &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: true}
	svc := authFixture(t, user)

	for i := 0; i < 5; i++ {
		if _, err := svc.Login(context.Background(), user.Email, "wrong-password", "10.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	if !user.IsLocked() {
		t.Fatal("account must lock after five failed attempts")
	}

	// Correct credentials do not bypass the lock window.
	if _, err := svc.Login(context.Background(), user.Email, password, "10.0.0.1"); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("err = %v, want ErrAccountLocked", err)
	}
}

func TestLoginResetsFailureCount(t *testing.T) {
	const password = "CorrectHorse7Battery"
	user := &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: true}
	svc := authFixture(t, user)

	for i := 0; i < 3; i++ {
		_, _ = svc.Login(context.Background(), user.Email, "wrong-password", "10.0.0.1")
	}
	if user.FailedLoginCount != 3 {
		t.Fatalf("failed count = %d, want 3", user.FailedLoginCount)
	}

	if _, err := svc.Login(context.Background(), user.Email, password, "10.0.0.1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.FailedLoginCount != 0 {
		t.Errorf("failed count after success = %d, want 0", user.FailedLoginCount)
	}
	if user.LastLoginAt == nil {
		t.Error("successful login must stamp last_login_at")
	}
}

func TestRefreshToken(t *testing.T) {
	const password = "CorrectHorse7Battery"
	user := &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: true}
	svc := authFixture(t, user)

	pair, err := svc.Login(context.Background(), user.Email, password, "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	t.Run("valid refresh token", func(t *testing.T) {
		fresh, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
		if err != nil {
			t.Fatalf("RefreshToken: %v", err)
		}
		if fresh.AccessToken == "" {
			t.Error("refreshed pair missing access token")
		}
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		if _, err := svc.RefreshToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		if _, err := svc.RefreshToken(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("deactivated account cannot refresh", func(t *testing.T) {
		user.IsActive = false
		defer func() { user.IsActive = true }()
		if _, err := svc.RefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestChangePassword(t *testing.T) {
	const password = "CorrectHorse7Battery"

	tests := []struct {
		name    string
		current string
		next    string
		wantErr error
	}{
		{"wrong current password", "not-current", "AnotherStrong1Pass", ErrInvalidCredentials},
		{"too short", password, "Sh0rt", ErrWeakPassword},
		{"missing digit", password, "NoDigitsInHerePass", ErrWeakPassword},
		{"missing upper case", password, "alllowercase7pass", ErrWeakPassword},
		{"accepted", password, "AnotherStrong1Pass", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &domain.User{Email: "a@clinic.example", PasswordHash: hashFor(t, password), Role: domain.RoleClinician, IsActive: true}
			svc := authFixture(t, user)

			err := svc.ChangePassword(context.Background(), user.ID, tt.current, tt.next)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ChangePassword err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChangePassword: %v", err)
			}
			if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.next)) != nil {
				t.Error("stored hash does not match the new password")
			}
		})
	}
}
