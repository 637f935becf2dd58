package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"dietario/internal/core"
)

func userStore(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(filepath.Join(t.TempDir(), "users.json"))
}

func profile() core.User {
	return core.User{
		Name: "Mario", Surname: "Rossi", Email: "mario@example.com",
		Sex: "M", Age: 40, InitialWeight: 82.5, Height: 178,
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := userStore(t)

	if err := s.Register(ctx, "mario", "segretissima", profile()); err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := s.Authenticate(ctx, "mario", "segretissima")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.Name != "Mario" {
		t.Fatalf("got profile %+v", u)
	}
	if u.Password == "segretissima" || !strings.HasPrefix(u.Password, "$2") {
		t.Fatalf("password stored in clear or not bcrypt: %q", u.Password)
	}

	if _, err := s.Authenticate(ctx, "mario", "sbagliata"); err != core.ErrInvalidCredentials {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := s.Authenticate(ctx, "nessuno", "x"); err != core.ErrInvalidCredentials {
		t.Fatalf("unknown user: got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	s := userStore(t)

	if err := s.Register(ctx, "mario", "pw", profile()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register(ctx, "mario", "pw2", profile()); err != core.ErrUserExists {
		t.Fatalf("duplicate register: got %v", err)
	}
}

func TestUpdateProfileKeepsPasswordAndAdmin(t *testing.T) {
	ctx := context.Background()
	s := userStore(t)

	if err := s.Register(ctx, "mario", "pw", profile()); err != nil {
		t.Fatalf("register: %v", err)
	}

	updated := profile()
	updated.Age = 41
	updated.Admin = true // must not be settable through a profile edit
	if err := s.UpdateProfile(ctx, "mario", updated, ""); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := s.Authenticate(ctx, "mario", "pw"); err != nil {
		t.Fatalf("old password must still work: %v", err)
	}
	u, err := s.Get(ctx, "mario")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Age != 41 {
		t.Fatalf("age not updated: %+v", u)
	}
	if u.Admin {
		t.Fatalf("admin flag must not change via profile edit")
	}

	if err := s.UpdateProfile(ctx, "mario", updated, "nuova"); err != nil {
		t.Fatalf("update with password: %v", err)
	}
	if _, err := s.Authenticate(ctx, "mario", "nuova"); err != nil {
		t.Fatalf("new password: %v", err)
	}
	if _, err := s.Authenticate(ctx, "mario", "pw"); err != core.ErrInvalidCredentials {
		t.Fatalf("old password should be rejected, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	s := userStore(t)

	if err := s.Register(ctx, "mario", "pw", profile()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Delete(ctx, "mario"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "mario"); err != core.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "mario"); err != core.ErrUserNotFound {
		t.Fatalf("double delete: got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	s := userStore(t)

	users, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}

	if err := s.Register(ctx, "mario", "pw", profile()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register(ctx, "luigi", "pw", profile()); err != nil {
		t.Fatalf("register: %v", err)
	}

	users, err = s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}
