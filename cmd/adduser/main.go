// Command adduser provisions an account. Accounts are created out of band
// on purpose: the HTTP API has no registration endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

const minPasswordLength = 8

func main() {
	username := flag.String("username", "", "username for the new account")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentAuth)
	cfg := cli.LoadAndValidateConfig(logger)

	name := strings.TrimSpace(*username)
	if name == "" {
		fmt.Fprintln(os.Stderr, "usage: adduser -username <name>")
		os.Exit(2)
	}

	password, err := promptPassword()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	st := cli.OpenStore(logger, cfg)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := st.CreateUser(ctx, name, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			fmt.Fprintf(os.Stderr, "error: username %q is already taken\n", name)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Printf("created user %q (id %d)\n", user.Username, user.ID)
}

// promptPassword reads the password twice without echo and checks the two
// entries match.
func promptPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(first) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}

	return string(first), nil
}
