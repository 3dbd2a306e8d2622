//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/userhub/userhub/internal/model"
	"github.com/userhub/userhub/internal/testutil"
)

// newUserTestEnv connects to the test database, resets the users schema
// and serializes access across packages.
func newUserTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()

	databaseURL := testutil.RequireEnv(t, "TEST_DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	repo, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := testutil.ResetUsersSchema(ctx, databaseURL); err != nil {
		t.Fatalf("reset users schema: %v", err)
	}

	return ctx, repo
}

func newTestUser(i int) *model.User {
	return &model.User{
		FirstName:    fmt.Sprintf("First%d", i),
		LastName:     fmt.Sprintf("Last%d", i),
		Email:        fmt.Sprintf("user%d@example.com", i),
		PasswordHash: "$2a$12$fakefakefakefakefakefakefakefakefakefakefakefakefake",
	}
}

func TestIntegrationUserRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := newTestUser(1)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("CreateUser did not assign an ID")
	}

	byID, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != user.Email {
		t.Errorf("Email mismatch: got %q, want %q", byID.Email, user.Email)
	}
	if byID.PasswordHash != user.PasswordHash {
		t.Errorf("PasswordHash mismatch")
	}

	byEmail, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ID mismatch: got %d, want %d", byEmail.ID, user.ID)
	}
}

func TestIntegrationUserRepository_DuplicateEmail(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := newTestUser(1)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dup := newTestUser(2)
	dup.Email = user.Email
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got: %v", err)
	}

	// Existing record is untouched.
	stored, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if stored.FirstName != user.FirstName {
		t.Errorf("existing record mutated: got %q, want %q", stored.FirstName, user.FirstName)
	}
}

func TestIntegrationUserRepository_GetNotFound(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	if _, err := repo.GetUserByID(ctx, 99999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, "absent@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestIntegrationUserRepository_Update(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := newTestUser(1)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	user.FirstName = "Renamed"
	user.Email = "renamed@example.com"
	if err := repo.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	stored, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if stored.FirstName != "Renamed" || stored.Email != "renamed@example.com" {
		t.Errorf("update not persisted: %+v", stored)
	}
}

func TestIntegrationUserRepository_UpdateEmailCollision(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	a := newTestUser(1)
	b := newTestUser(2)
	if err := repo.CreateUser(ctx, a); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := repo.CreateUser(ctx, b); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	b.Email = a.Email
	if err := repo.UpdateUser(ctx, b); !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got: %v", err)
	}
}

func TestIntegrationUserRepository_Delete(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := newTestUser(1)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := repo.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if err := repo.DeleteUser(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound on second delete, got: %v", err)
	}
}

func TestIntegrationUserRepository_DeleteAll(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	for i := 1; i <= 3; i++ {
		if err := repo.CreateUser(ctx, newTestUser(i)); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	if err := repo.DeleteAllUsers(ctx); err != nil {
		t.Fatalf("DeleteAllUsers failed: %v", err)
	}

	total, err := repo.CountUsers(ctx, UserFilter{})
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if total != 0 {
		t.Errorf("expected 0 users after wipe, got %d", total)
	}
}

func TestIntegrationUserRepository_ListFiltersAndPagination(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	seed := []*model.User{
		{FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", PasswordHash: "h"},
		{FirstName: "Bob", LastName: "Smith", Email: "bob@example.com", PasswordHash: "h"},
		{FirstName: "Carol", LastName: "Jones", Email: "carol@other.org", PasswordHash: "h"},
	}
	for _, u := range seed {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	// search term ORed across name and email fields
	users, err := repo.ListUsers(ctx, UserFilter{Search: "Smith"}, 0, 10)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("search Smith: expected 2 users, got %d", len(users))
	}

	// search ANDed with explicit field filter
	users, err = repo.ListUsers(ctx, UserFilter{Search: "Smith", FirstName: "Bob"}, 0, 10)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].FirstName != "Bob" {
		t.Errorf("combined filter: expected only Bob, got %+v", users)
	}

	// email substring filter
	users, err = repo.ListUsers(ctx, UserFilter{Email: "other.org"}, 0, 10)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].FirstName != "Carol" {
		t.Errorf("email filter: expected only Carol, got %+v", users)
	}

	// newest first, paginated
	page1, err := repo.ListUsers(ctx, UserFilter{}, 0, 2)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(page1) != 2 || page1[0].FirstName != "Carol" {
		t.Errorf("page 1: expected Carol first, got %+v", page1)
	}

	page2, err := repo.ListUsers(ctx, UserFilter{}, 2, 2)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(page2) != 1 || page2[0].FirstName != "Alice" {
		t.Errorf("page 2: expected only Alice, got %+v", page2)
	}

	// limit <= 0 returns everything
	all, err := repo.ListUsers(ctx, UserFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected all 3 users, got %d", len(all))
	}

	total, err := repo.CountUsers(ctx, UserFilter{Search: "Smith"})
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected count 2, got %d", total)
	}
}

func TestIntegrationUserRepository_LikeEscaping(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	u := &model.User{FirstName: "100%", LastName: "Under_score", Email: "pct@example.com", PasswordHash: "h"}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	users, err := repo.ListUsers(ctx, UserFilter{FirstName: "100%"}, 0, 10)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("literal %% filter: expected 1 user, got %d", len(users))
	}

	users, err = repo.ListUsers(ctx, UserFilter{LastName: "r_s"}, 0, 10)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("literal _ filter: expected 1 user, got %d", len(users))
	}
}
