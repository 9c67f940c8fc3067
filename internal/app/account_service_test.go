package app_test

import (
	"context"
	"errors"
	"testing"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/domain"
	"vocab-progress-service/internal/infra/memory"
)

func TestSignUpCreatesInitialStats(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserStore()
	progress := memory.NewProgressStore()
	accounts := app.NewAccountService(users, progress, []string{"Admin@Example.com"})

	user, err := accounts.SignUp(ctx, app.SignUpRequest{
		Email:            "  Learner@Example.com ",
		Password:         "secret-pass",
		DisplayName:      "Learner",
		LearningLanguage: domain.LearnSource,
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.Email != "learner@example.com" || user.IsAdmin {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret-pass" {
		t.Fatalf("password must be stored hashed")
	}
	stats, ok, _ := progress.GetStats(ctx, user.ID)
	if !ok || stats != domain.InitialStats() {
		t.Fatalf("expected initial stats, got %+v ok=%v", stats, ok)
	}

	admin, err := accounts.SignUp(ctx, app.SignUpRequest{Email: "admin@example.com", Password: "secret-pass", DisplayName: "Admin"})
	if err != nil {
		t.Fatalf("sign up admin: %v", err)
	}
	if !admin.IsAdmin || admin.LearningLanguage != domain.LearnTarget {
		t.Fatalf("unexpected admin %+v", admin)
	}
}

func TestSignUpValidation(t *testing.T) {
	accounts := app.NewAccountService(memory.NewUserStore(), memory.NewProgressStore(), nil)
	tests := []struct {
		name string
		req  app.SignUpRequest
		want error
	}{
		{name: "missing email", req: app.SignUpRequest{Password: "secret-pass", DisplayName: "x"}, want: domain.ErrInvalidArgument},
		{name: "short password", req: app.SignUpRequest{Email: "a@b.c", Password: "123", DisplayName: "x"}, want: domain.ErrInvalidArgument},
		{name: "missing name", req: app.SignUpRequest{Email: "a@b.c", Password: "secret-pass"}, want: domain.ErrInvalidArgument},
		{name: "bad language", req: app.SignUpRequest{Email: "a@b.c", Password: "secret-pass", DisplayName: "x", LearningLanguage: "klingon"}, want: domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := accounts.SignUp(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	accounts := app.NewAccountService(memory.NewUserStore(), memory.NewProgressStore(), nil)
	req := app.SignUpRequest{Email: "learner@example.com", Password: "secret-pass", DisplayName: "Learner"}
	created, err := accounts.SignUp(ctx, req)
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := accounts.SignUp(ctx, req); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "correct password", email: "LEARNER@example.com", password: "secret-pass"},
		{name: "wrong password", email: "learner@example.com", password: "wrong-pass", wantErr: domain.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "secret-pass", wantErr: domain.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := accounts.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || user.ID != created.ID {
				t.Fatalf("expected login as %s, got %+v err=%v", created.ID, user, err)
			}
		})
	}
}

func TestLoginRepairsMissingStats(t *testing.T) {
	ctx := context.Background()
	progress := &flakyProgressStore{ProgressStore: memory.NewProgressStore(), failPutStats: true}
	accounts := app.NewAccountService(memory.NewUserStore(), progress, nil)
	req := app.SignUpRequest{Email: "learner@example.com", Password: "secret-pass", DisplayName: "Learner"}

	user, err := accounts.SignUp(ctx, req)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
	if _, ok, _ := progress.GetStats(ctx, user.ID); ok {
		t.Fatalf("stats should not exist after the failed write")
	}

	if _, err := accounts.Login(ctx, req.Email, req.Password); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected login to surface the store failure, got %v", err)
	}

	progress.failPutStats = false
	logged, err := accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	stats, ok, _ := progress.GetStats(ctx, logged.ID)
	if !ok || stats != domain.InitialStats() {
		t.Fatalf("expected initial stats after login, got %+v ok=%v", stats, ok)
	}
}
