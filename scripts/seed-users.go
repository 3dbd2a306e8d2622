// Command seed-users bootstraps or wipes the users table.
//
// Usage:
//
//	go run ./scripts -database-url=... -email=admin@example.com -password=s3cret
//	go run ./scripts -database-url=... -count=25
//	go run ./scripts -database-url=... -wipe
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/userhub/userhub/internal/auth"
	"github.com/userhub/userhub/internal/model"
	"github.com/userhub/userhub/internal/repository"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "Email for a single bootstrap user")
		password    = flag.String("password", "", "Password for the bootstrap user")
		firstName   = flag.String("first-name", "Admin", "First name for the bootstrap user")
		lastName    = flag.String("last-name", "User", "Last name for the bootstrap user")
		count       = flag.Int("count", 0, "Number of generated sample users to create")
		wipe        = flag.Bool("wipe", false, "Delete every user before seeding")
		cost        = flag.Int("bcrypt-cost", auth.DefaultBcryptCost, "bcrypt cost for seeded passwords")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if *wipe {
		if err := repo.DeleteAllUsers(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "wipe users:", err)
			os.Exit(1)
		}
		fmt.Println("all users deleted")
	}

	hasher := auth.NewPasswordHasher(*cost)

	if *email != "" {
		if *password == "" {
			fmt.Fprintln(os.Stderr, "-password is required with -email")
			os.Exit(1)
		}
		if err := createUser(ctx, repo, hasher, *firstName, *lastName, *email, *password); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Println("created user", *email)
	}

	for i := 0; i < *count; i++ {
		// ULIDs keep generated emails unique across runs.
		id := strings.ToLower(ulid.Make().String())
		sampleEmail := fmt.Sprintf("user-%s@example.com", id)
		if err := createUser(ctx, repo, hasher, "Sample", fmt.Sprintf("User%d", i+1), sampleEmail, id); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}
	if *count > 0 {
		fmt.Printf("created %d sample users\n", *count)
	}
}

func createUser(ctx context.Context, repo *repository.Repository, hasher *auth.PasswordHasher, firstName, lastName, email, password string) error {
	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", email, err)
	}

	user := &model.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create user %s: %w", email, err)
	}
	return nil
}
