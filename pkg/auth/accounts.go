// Package auth holds the credential store operations and the session token service.
package auth

import (
	"context"
	"errors"
	"strings"

	"stockwatch/models"
	"stockwatch/pkg/apperr"

	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the credential store.
type UserRepository interface {
	// CreateUser returns a Conflict error when the username is taken.
	CreateUser(ctx context.Context, u *models.User) error
	// UserByUsername returns a NotFound error when no user matches.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uint, hash []byte) error
}

// Accounts registers and authenticates users.
type Accounts struct {
	users UserRepository
	cost  int
}

func NewAccounts(users UserRepository, bcryptCost int) *Accounts {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Accounts{users: users, cost: bcryptCost}
}

// Register creates a user with a bcrypt password hash.
func (a *Accounts) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.InvalidArgument("username required")
	}
	if len(username) > models.MaxUsernameLen {
		return nil, apperr.InvalidArgument("username too long (max %d)", models.MaxUsernameLen)
	}
	if password == "" {
		return nil, apperr.InvalidArgument("password required")
	}
	// pre-check existing (optimistic)
	if _, err := a.users.UserByUsername(ctx, username); err == nil {
		return nil, apperr.Conflict("user already exists")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	hash, err := a.hash(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, HashedPassword: hash}
	// the store reports a Conflict if another request won the race after the pre-check
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user when the password matches its stored hash.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	user, err := a.users.UserByUsername(ctx, username)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.InvalidArgument("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return nil, apperr.InvalidArgument("invalid credentials")
	}
	return user, nil
}

// ResetPassword replaces the password of an existing user.
func (a *Accounts) ResetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return apperr.InvalidArgument("password required")
	}
	user, err := a.users.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	hash, err := a.hash(password)
	if err != nil {
		return err
	}
	return a.users.UpdatePassword(ctx, user.ID, hash)
}

func (a *Accounts) hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.InvalidArgument("password too long")
	}
	return hash, err
}
