package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleBidder, true},
		{RoleManager, RoleAdmin, false},
		{RoleManager, RoleManager, true},
		{RoleManager, RoleBidder, true},
		{RoleBidder, RoleAdmin, false},
		{RoleBidder, RoleManager, false},
		{RoleBidder, RoleBidder, true},
		// Unknown roles fail-closed.
		{"unknown", RoleBidder, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleBidder, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestValidUserStatus(t *testing.T) {
	for _, s := range []string{UserStatusEnabled, UserStatusDisabled, UserStatusPending} {
		if !ValidUserStatus(s) {
			t.Errorf("ValidUserStatus(%q) = false", s)
		}
	}
	if ValidUserStatus("enabled") {
		t.Error("statuses are case sensitive")
	}
}
