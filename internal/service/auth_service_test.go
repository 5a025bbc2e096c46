package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

type fakeUserRepo struct {
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.seq++
	user.ID = fmt.Sprintf("user-%04d", r.seq)
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func newAuthFixture() (*AuthService, *fakeUserRepo) {
	users := newFakeUserRepo()
	cfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}
	return NewAuthService(cfg, users), users
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc, _ := newAuthFixture()

	registered, err := svc.RegisterCitizen(context.Background(), "Ada", "Ada@Example.COM", "correct-horse")
	if err != nil {
		t.Fatalf("RegisterCitizen: %v", err)
	}
	if registered.User.Role != domain.RoleCitizen {
		t.Fatalf("role = %s, want citizen", registered.User.Role)
	}
	if registered.User.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", registered.User.Email)
	}
	if registered.Token == "" {
		t.Fatal("expected a signed token")
	}

	logged, err := svc.Login(context.Background(), "ADA@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.User.ID != registered.User.ID {
		t.Fatalf("login resolved %s, want %s", logged.User.ID, registered.User.ID)
	}

	claims, err := svc.TokenManager().ParseToken(logged.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SubjectID != registered.User.ID || claims.Role != domain.RoleCitizen {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestRegisterRejectsShortPasswordAndDuplicates(t *testing.T) {
	t.Parallel()
	svc, _ := newAuthFixture()

	_, err := svc.RegisterCitizen(context.Background(), "Ada", "ada@example.com", "short")
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}

	if _, err := svc.RegisterCitizen(context.Background(), "Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("RegisterCitizen: %v", err)
	}
	_, err = svc.RegisterCitizen(context.Background(), "Ada Again", "ada@example.com", "correct-horse")
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()
	svc, users := newAuthFixture()
	if _, err := svc.RegisterCitizen(context.Background(), "Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("RegisterCitizen: %v", err)
	}

	if _, err := svc.Login(context.Background(), "ada@example.com", "wrong"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("wrong password: expected UNAUTHORIZED, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "whatever"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("unknown email: expected UNAUTHORIZED, got %v", err)
	}

	for _, user := range users.users {
		user.IsActive = false
	}
	if _, err := svc.Login(context.Background(), "ada@example.com", "correct-horse"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("disabled account: expected UNAUTHORIZED, got %v", err)
	}
}
