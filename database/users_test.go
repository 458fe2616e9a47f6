package database

import (
	"errors"
	"testing"
	"time"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db)

	if _, err := users.Create("Alice", "alice@example.com", "hash1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := users.Create("Other Alice", "alice@example.com", "hash2"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email: got %v, want ErrConflict", err)
	}
}

func TestGetUserLookups(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db)

	created, err := users.Create("Alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	byEmail, err := users.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if byEmail.ID != created.ID || byEmail.Password != "hash" {
		t.Errorf("GetByEmail returned wrong user: %+v", byEmail)
	}

	if _, err := users.GetByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email: got %v, want ErrNotFound", err)
	}
	if _, err := users.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestResetTokenLifecycle(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db)

	user, err := users.Create("Alice", "alice@example.com", "oldhash")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	now := time.Now().UTC()
	if err := users.SetResetToken(user.ID, "tokenhash", now.Add(time.Hour)); err != nil {
		t.Fatalf("SetResetToken failed: %v", err)
	}

	found, err := users.GetByResetToken("tokenhash", now)
	if err != nil {
		t.Fatalf("GetByResetToken failed: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("GetByResetToken returned wrong user: %s", found.ID)
	}

	// Expired and unknown tokens look identical to the caller.
	if _, err := users.GetByResetToken("tokenhash", now.Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired token: got %v, want ErrNotFound", err)
	}
	if _, err := users.GetByResetToken("wronghash", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown token: got %v, want ErrNotFound", err)
	}

	// A successful reset clears the token.
	if err := users.ResetPassword(user.ID, "newhash"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if _, err := users.GetByResetToken("tokenhash", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("token after reset: got %v, want ErrNotFound", err)
	}
	got, err := users.GetByID(user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Password != "newhash" {
		t.Errorf("password after reset: got %q, want newhash", got.Password)
	}
	if got.ResetExpires != nil {
		t.Error("reset expiry should be cleared")
	}
}
