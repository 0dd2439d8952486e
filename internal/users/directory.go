package users

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/cognibank/cognibank/internal/models"
	"github.com/cognibank/cognibank/internal/rpcerr"
)

var (
	ErrAlreadyExists = errors.New("user already exists")
	ErrNotFound      = errors.New("user not found")
)

// Directory is the repository of user records backing the auth and banking
// services. Implementations must serialize concurrent mutations: Modify is the
// only safe way to read-modify-write balances under concurrency.
type Directory interface {
	// Create inserts a new user. The caller-assigned ID must be used as the
	// record's ID. ErrAlreadyExists if the ID is taken.
	Create(ctx context.Context, u *models.User) error

	// Update replaces the given user records as a single atomic write.
	// ErrNotFound if any target ID does not exist; no record is written in
	// that case (no upsert).
	Update(ctx context.Context, users ...*models.User) error

	// Modify loads the users with the given IDs, passes them to fn in the
	// same order, and persists fn's changes atomically. A non-nil error from
	// fn aborts the write and is returned unchanged. ErrNotFound if any ID
	// is absent.
	Modify(ctx context.Context, ids []string, fn func(users []*models.User) error) error

	// FindByID returns the user with the given ID, or nil if absent.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail returns the user with the given email, or nil if absent.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateFromSignUp builds a user from a signUp request and inserts it.
	// The extra payload is validated here, not by the auth service.
	CreateFromSignUp(ctx context.Context, email string, extra json.RawMessage) (*models.User, error)

	// MeInfo converts a user to its public sign-in projection.
	MeInfo(u *models.User) models.MeInfo
}

// newUserFromSignUp validates the signUp extra payload and builds the initial
// user record. Shared by the directory implementations.
func newUserFromSignUp(email string, extra json.RawMessage, initialBalance int64) (*models.User, error) {
	var ex models.SignUpExtra
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &ex); err != nil {
			return nil, rpcerr.Wrap(rpcerr.InvalidArgument, "malformed signUp extra", err)
		}
	}
	if ex.DisplayName == "" {
		return nil, rpcerr.New(rpcerr.InvalidArgument, "signUp extra: displayName is required")
	}
	return &models.User{
		ID:      uuid.NewString(),
		Email:   email,
		Name:    ex.DisplayName,
		Balance: initialBalance,
	}, nil
}

func meInfo(u *models.User) models.MeInfo {
	return models.MeInfo{UserID: u.ID, DisplayName: u.Name}
}
