package game

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAccountBuilderFlagPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	accounts, err := NewAccountManager(path)
	if err != nil {
		t.Fatalf("NewAccountManager() error = %v", err)
	}
	if err := accounts.Register("Mason", "trowel123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := accounts.SetBuilder("Mason", true); err != nil {
		t.Fatalf("SetBuilder() error = %v", err)
	}

	reloaded, err := NewAccountManager(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if !reloaded.IsBuilder("Mason") {
		t.Fatalf("builder flag did not persist")
	}
	if !reloaded.Authenticate("Mason", "trowel123") {
		t.Fatalf("password did not persist")
	}
	if reloaded.Authenticate("Mason", "wrong-pass") {
		t.Fatalf("wrong password accepted")
	}
}

func TestSetBuilderUnknownAccount(t *testing.T) {
	accounts, err := NewAccountManager(filepath.Join(t.TempDir(), "accounts.json"))
	if err != nil {
		t.Fatalf("NewAccountManager() error = %v", err)
	}
	if err := accounts.SetBuilder("Ghost", true); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("SetBuilder() error = %v, want ErrAccountNotFound", err)
	}
}
