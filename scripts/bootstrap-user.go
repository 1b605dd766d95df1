package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bookery/bookery/internal/auth"
	"github.com/bookery/bookery/internal/model"
	"github.com/bookery/bookery/internal/repository"
)

type output struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "admin@bookery.local", "User email")
		name        = flag.String("name", "bootstrap", "User display name")
		password    = flag.String("password", "", "Password; generated when empty")
		tokenSecret = flag.String("token-secret", os.Getenv("TOKEN_SECRET"), "When set, also print a bearer token for the user")
		tokenTTL    = flag.Duration("token-ttl", 168*time.Hour, "Token lifetime when -token-secret is set")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	plaintext := *password
	if plaintext == "" {
		generated, err := generatePassword()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate password:", err)
			os.Exit(1)
		}
		plaintext = generated
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	user, created, err := ensureUser(ctx, repo, *email, *name, plaintext)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{
		UserID: user.ID,
		Email:  user.Email,
	}
	if created {
		out.Password = plaintext
	}

	if *tokenSecret != "" {
		token, err := auth.NewTokenService(*tokenSecret, *tokenTTL).Issue(user.ID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "issue token:", err)
			os.Exit(1)
		}
		out.Token = token
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("user %d (%s)\n", out.UserID, out.Email)
		if out.Password != "" {
			fmt.Println("password:", out.Password)
		}
		if out.Token != "" {
			fmt.Println("token:", out.Token)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// ensureUser returns the existing user for the email, or creates one with
// the given password. The bool reports whether a new user was created.
func ensureUser(ctx context.Context, repo *repository.Repository, email, name, password string) (*model.User, bool, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("look up user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
