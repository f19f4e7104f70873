package main

import (
	"errors"
	"strings"
	"testing"
)

func TestRegisterLoginValidate(t *testing.T) {
	db := openTestDB(t)
	a := newTestAuth(t, db)

	id, token, err := a.Register("  commander ", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	gotID, name, err := a.ValidateToken(token)
	if err != nil || gotID != id || name != "commander" {
		t.Fatalf("ValidateToken = %d %q %v", gotID, name, err)
	}

	if _, _, err := a.Register("commander", "secret"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate register err = %v", err)
	}
	if _, _, err := a.Login("commander", "wrong", "1.2.3.4"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, _, err := a.Login("nobody", "secret", "1.2.3.4"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
	loginID, _, err := a.Login("commander", "secret", "1.2.3.4")
	if err != nil || loginID != id {
		t.Errorf("Login = %d, %v", loginID, err)
	}

	if _, _, err := a.ValidateToken(token + "x"); err == nil {
		t.Error("tampered token accepted")
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAuth(t, openTestDB(t))
	for _, tc := range []struct{ user, pass string }{
		{"x", "secret"},
		{strings.Repeat("n", 17), "secret"},
		{"valid", "abc"},
	} {
		if _, _, err := a.Register(tc.user, tc.pass); err == nil {
			t.Errorf("Register(%q, %q) should fail", tc.user, tc.pass)
		}
	}
}

func TestLoginRateLimit(t *testing.T) {
	a := newTestAuth(t, openTestDB(t))
	var err error
	for i := 0; i <= maxLoginAttempts; i++ {
		_, _, err = a.Login("ghost", "pw", "9.9.9.9")
	}
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("err after burst = %v", err)
	}
	if _, _, err := a.Login("ghost", "pw", "8.8.8.8"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("other ip err = %v", err)
	}
}

func TestSecretPersistsAcrossRestarts(t *testing.T) {
	db := openTestDB(t)
	a := newTestAuth(t, db)
	_, token, err := a.Register("pilot", "secret")
	if err != nil {
		t.Fatal(err)
	}
	restarted := newTestAuth(t, db)
	if _, _, err := restarted.ValidateToken(token); err != nil {
		t.Errorf("token rejected after restart: %v", err)
	}
}

func TestIsAdmin(t *testing.T) {
	db := openTestDB(t)
	a := newTestAuth(t, db)
	id, _, _ := a.Register("root", "secret")
	if a.IsAdmin(id) {
		t.Error("new account is admin")
	}
	db.SetAdmin(id, true)
	if !a.IsAdmin(id) || a.IsAdmin(id+1) {
		t.Error("IsAdmin mismatch")
	}
}

func TestGenerateGuestName(t *testing.T) {
	name := GenerateGuestName()
	if !strings.HasPrefix(name, "Guest_") || len(name) != len("Guest_")+6 {
		t.Errorf("guest name %q", name)
	}
}
