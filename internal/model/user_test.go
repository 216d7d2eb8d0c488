package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/erazemk/inventar/internal/apperr"
)

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
		{"   1234567   ", true},
		{strings.Repeat("x", MaxPasswordLength), false},
		{"  " + strings.Repeat("x", MaxPasswordLength) + "  ", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
		if err != nil && apperr.Reason(err) != "password_too_short" {
			t.Errorf("ValidatePassword(%q) reason = %q", tt.password, apperr.Reason(err))
		}
	}

	err := ValidatePassword(strings.Repeat("x", MaxPasswordLength+1))
	if !errors.Is(err, apperr.ErrInvalidInput) || apperr.Reason(err) != "password_too_long" {
		t.Errorf("expected password_too_long, got %v", err)
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		reason   string
	}{
		{"operator", ""},
		{"оператор", ""},
		{"   ", "username_required"},
		{"a:b", "username_invalid"},
	}

	for _, tt := range tests {
		err := ValidateUsername(tt.username)
		if tt.reason == "" {
			if err != nil {
				t.Errorf("ValidateUsername(%q) = %v, want nil", tt.username, err)
			}
			continue
		}
		if !errors.Is(err, apperr.ErrInvalidInput) || apperr.Reason(err) != tt.reason {
			t.Errorf("ValidateUsername(%q) = %v, want %s", tt.username, err, tt.reason)
		}
	}
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	data, err := json.Marshal(User{Username: "admin", PasswordHash: "$2a$10$secret"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") || strings.Contains(string(data), "password") {
		t.Errorf("expected password hash to be omitted, got %s", data)
	}
}

func TestNormalizeDescription(t *testing.T) {
	s := func(v string) *string { return &v }

	if NormalizeDescription(nil) != nil {
		t.Error("expected nil to stay nil")
	}
	if NormalizeDescription(s("   ")) != nil {
		t.Error("expected blank description to become nil")
	}
	if got := NormalizeDescription(s("  Въезд ")); got == nil || *got != "Въезд" {
		t.Errorf("expected trimmed description, got %v", got)
	}
}

func TestNewObjectSummary(t *testing.T) {
	sum := NewObjectSummary(Object{Name: "A"}, []Device{{DeviceCount: 2}, {DeviceCount: 5}})
	if sum.DevicesCount != 2 || sum.DeviceCountTotal != 7 {
		t.Errorf("unexpected totals: %+v", sum)
	}

	empty := NewObjectSummary(Object{Name: "B"}, nil)
	data, _ := json.Marshal(empty)
	if !strings.Contains(string(data), `"devices":[]`) {
		t.Errorf("expected empty devices array, got %s", data)
	}
}

func TestObjectAddressWireName(t *testing.T) {
	data, _ := json.Marshal(Object{Name: "A", Address: "Street 1"})
	if !strings.Contains(string(data), `"object_address":"Street 1"`) {
		t.Errorf("expected object_address field, got %s", data)
	}
}
