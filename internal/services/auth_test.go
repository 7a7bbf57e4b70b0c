package services

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pw      string
		wantErr bool
	}{
		{"valid", "Sup3rSecret", false},
		{"too short", "Ab1", true},
		{"no number", "NoDigitsHere", true},
		{"exactly eight with digit", "abcdefg1", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.pw)
			if (err != nil) != tc.wantErr {
				t.Errorf("validatePassword(%q) error = %v, wantErr %v", tc.pw, err, tc.wantErr)
			}
		})
	}
}

func TestEmailRegex(t *testing.T) {
	valid := []string{"a@b.co", "user.name+tag@example.org"}
	invalid := []string{"", "plainaddress", "@no-local.com", "user@domain", "user@.com"}

	for _, e := range valid {
		if !emailRegex.MatchString(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if emailRegex.MatchString(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := generateToken(32)
	if err != nil {
		t.Fatalf("generateToken failed: %v", err)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars for 32 bytes, got %d", len(a))
	}

	b, _ := generateToken(32)
	if a == b {
		t.Fatal("two tokens should not collide")
	}
	if strings.ToLower(a) != a {
		t.Fatal("token should be lowercase hex")
	}
}
