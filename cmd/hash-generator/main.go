// Command hash-generator prints a bcrypt hash for a password so ADMIN
// accounts can be seeded or reset directly in the database.
//
// Usage:
//
//	hash-generator -password 'secret1'
//	echo 'secret1' | hash-generator -cost 12
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phrazzld/tasks-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	password := flag.String("password", "", "password to hash; read from stdin when empty")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *password, *cost); err != nil {
		fmt.Fprintf(os.Stderr, "hash-generator: %v\n", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, password string, cost int) error {
	if password == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := generateHash(password, cost)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, hash)
	return err
}

// generateHash applies the same password rules as registration before hashing.
func generateHash(password string, cost int) (string, error) {
	switch {
	case password == "":
		return "", domain.ErrEmptyPassword
	case len(password) < domain.MinPasswordLength:
		return "", domain.ErrPasswordTooShort
	case len(password) > domain.MaxPasswordLength:
		return "", domain.ErrPasswordTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
