package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"dietario/internal/core"
)

// UserStore keeps all accounts in a single JSON document keyed by
// username. Usernames are immutable; uniqueness is enforced at
// registration only.
type UserStore struct {
	path string
	mu   sync.Mutex
}

func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

func (s *UserStore) load() (map[string]core.User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]core.User{}, nil
		}
		return nil, fmt.Errorf("read users file %s: %w", s.path, err)
	}
	users := map[string]core.User{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode users file %s: %w", s.path, err)
	}
	return users, nil
}

func (s *UserStore) save(users map[string]core.User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create users directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp users file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close users file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace users file %s: %w", s.path, err)
	}
	return nil
}

// Register creates a new account. The password is hashed with bcrypt
// before it ever touches disk.
func (s *UserStore) Register(ctx context.Context, username, password string, profile core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := users[username]; exists {
		return core.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	profile.Password = string(hash)
	users[username] = profile

	if err := s.save(users); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User registered", "username", username)
	return nil
}

// Authenticate checks credentials and returns the stored profile.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return core.User{}, err
	}
	u, ok := users[username]
	if !ok {
		return core.User{}, core.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return core.User{}, core.ErrInvalidCredentials
	}
	return u, nil
}

// Get returns one profile.
func (s *UserStore) Get(ctx context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return core.User{}, err
	}
	u, ok := users[username]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile rewrites the profile fields of an existing account.
// The stored password hash is kept unless newPassword is non-empty.
func (s *UserStore) UpdateProfile(ctx context.Context, username string, profile core.User, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	current, ok := users[username]
	if !ok {
		return core.ErrUserNotFound
	}

	profile.Password = current.Password
	profile.Admin = current.Admin
	if newPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		profile.Password = string(hash)
	}
	users[username] = profile

	if err := s.save(users); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User profile updated", "username", username)
	return nil
}

// Delete removes an account. Meal and measurement records are left in
// place, orphaned; nothing cascades.
func (s *UserStore) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := users[username]; !ok {
		return core.ErrUserNotFound
	}
	delete(users, username)

	if err := s.save(users); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User deleted", "username", username)
	return nil
}

// List returns all accounts keyed by username.
func (s *UserStore) List(ctx context.Context) (map[string]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}
