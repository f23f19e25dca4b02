package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash equals plaintext")
	}

	if err := CheckPassword(hash, "correct horse battery"); err != nil {
		t.Errorf("CheckPassword() with right password = %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword() with wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestHashPasswordRejectsBadLengths(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("short password: got %v, want ErrPasswordTooShort", err)
	}

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := HashPassword(string(long)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("long password: got %v, want ErrPasswordTooLong", err)
	}
}

func TestCheckPasswordEmptyHash(t *testing.T) {
	// Google-only accounts store no hash and must never pass a password login.
	if err := CheckPassword("", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty hash: got %v, want ErrInvalidCredentials", err)
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(time.Hour)

	sess := store.Create(42, "alice")
	if sess.Token == "" {
		t.Fatal("empty session token")
	}

	got, err := store.Get(sess.Token)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != 42 || got.Username != "alice" {
		t.Errorf("Get() = %+v", got)
	}

	store.Delete(sess.Token)
	if _, err := store.Get(sess.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("after delete: got %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	sess := store.Create(1, "bob")
	time.Sleep(30 * time.Millisecond)

	if _, err := store.Get(sess.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expired session: got %v, want ErrSessionNotFound", err)
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	store := NewSessionStore(time.Hour)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := store.Create(int64(i), "user")
		if seen[s.Token] {
			t.Fatalf("duplicate token %s", s.Token)
		}
		seen[s.Token] = true
	}
}

func TestNilGoogleVerifier(t *testing.T) {
	var v *GoogleVerifier
	if _, err := v.VerifyEmail(context.Background(), "token"); !errors.Is(err, ErrGoogleDisabled) {
		t.Errorf("nil verifier: got %v, want ErrGoogleDisabled", err)
	}
	if NewGoogleVerifier("") != nil {
		t.Error("NewGoogleVerifier(\"\") should return nil")
	}
}
