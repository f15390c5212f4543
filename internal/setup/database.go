package setup

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// OpenDatabase opens the database and brings its schema up to date.
func OpenDatabase(driver, dsn string) (*db.DB, error) {
	database, err := db.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready", "driver", driver)
	return database, nil
}

// EnsureAdmin creates an admin account with a random password when the
// database has no admin yet. The password is returned only when an account
// was created.
func EnsureAdmin(ctx context.Context, d *db.DB, username string) (string, error) {
	admins, err := store.ListUsers(ctx, d, model.RoleAdmin)
	if err != nil {
		return "", err
	}
	if len(admins) > 0 {
		return "", nil
	}

	password, err := GeneratePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	_, err = store.CreateUser(ctx, d, &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Name:         username,
		Role:         model.RoleAdmin,
	})
	if err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("admin account created", "user", username)
	return password, nil
}

// PrintAdmin prints a newly created admin account to stdout.
func PrintAdmin(username, password string) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// GeneratePassword creates a random password of the given length.
func GeneratePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
