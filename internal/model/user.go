package model

import (
	"fmt"
	"time"
)

// User is an account that can sign in: staff running auctions or a registered bidder.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	CNIC         string     `json:"cnic,omitempty"`
	PAA          string     `json:"paa,omitempty"`
	Status       string     `json:"status"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleBidder  = "bidder"
)

// User statuses.
const (
	UserStatusEnabled  = "Enabled"
	UserStatusDisabled = "Disabled"
	UserStatusPending  = "Pending"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:   3,
		RoleManager: 2,
		RoleBidder:  1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager || role == RoleBidder
}

// ValidUserStatus reports whether status is a known user status.
func ValidUserStatus(status string) bool {
	return status == UserStatusEnabled || status == UserStatusDisabled || status == UserStatusPending
}

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
