package auth

import (
	"context"
	"testing"

	"stockwatch/pkg/apperr"
	"stockwatch/pkg/store/memory"

	"golang.org/x/crypto/bcrypt"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	acc := NewAccounts(memory.New(), bcrypt.MinCost)

	u, err := acc.Register(ctx, " alice ", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if string(u.HashedPassword) == "pw1" {
		t.Fatal("password stored in plain text")
	}

	if _, err := acc.Register(ctx, "alice", "other"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("duplicate register: expected conflict, got %v", err)
	}

	if _, err := acc.Authenticate(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := acc.Authenticate(ctx, "alice", "wrong"); !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := acc.Authenticate(ctx, "nobody", "pw1"); !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Fatalf("unknown user: got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	acc := NewAccounts(memory.New(), bcrypt.MinCost)

	cases := []struct {
		name, username, password string
	}{
		{"empty username", "  ", "pw"},
		{"empty password", "bob", ""},
		{"long username", string(make([]byte, 151)), "pw"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := acc.Register(ctx, c.username, c.password); !apperr.Is(err, apperr.KindInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	acc := NewAccounts(memory.New(), bcrypt.MinCost)
	if _, err := acc.Register(ctx, "alice", "old"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := acc.ResetPassword(ctx, "alice", "new"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := acc.Authenticate(ctx, "alice", "old"); err == nil {
		t.Fatal("old password still accepted")
	}
	if _, err := acc.Authenticate(ctx, "alice", "new"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if err := acc.ResetPassword(ctx, "ghost", "x"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown user: got %v", err)
	}
}
