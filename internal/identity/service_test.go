package identity

import (
	"context"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	ctx := context.Background()
	user, err := svc.Register(ctx, Credentials{Phone: "+919800000001", Password: "s3cret-pass", Name: "Asha"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != RoleCustomer {
		t.Fatalf("expected customer role, got %s", user.Role)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Phone: user.Phone, Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, authed.ID)
	}
	if authed.LastLogin.IsZero() {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Phone: "+919800000002", Password: "s3cret-pass"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, Credentials{Phone: "+919800000002", Password: "wrong-pass"}); err == nil {
		t.Fatalf("expected authentication failure")
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	if _, err := svc.Register(context.Background(), Credentials{Phone: "+919800000003", Password: "s3cret-pass", Role: RoleAdmin}); err == nil {
		t.Fatalf("expected admin self-registration to be rejected")
	}
}
