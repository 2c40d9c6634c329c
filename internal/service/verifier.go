package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"go-auth-service/internal/model"
)

type userFinder interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

// CredentialVerifier checks a presented username/password pair. Unknown
// username, deactivated account and wrong password all return the same
// model.ErrInvalidCredentials, and each path burns exactly one bcrypt
// comparison so response timing does not reveal which branch failed.
type CredentialVerifier struct {
	users     userFinder
	hasher    *SecretHasher
	dummyHash string
}

func NewCredentialVerifier(users userFinder, hasher *SecretHasher) (*CredentialVerifier, error) {
	// Hash of a random throwaway secret, compared against on the
	// unknown-user path to keep its cost equal to a real comparison.
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	return &CredentialVerifier{users: users, hasher: hasher, dummyHash: dummy}, nil
}

func (v *CredentialVerifier) Verify(ctx context.Context, username string, password string) (model.User, error) {
	user, err := v.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		v.hasher.Verify(password, v.dummyHash)
		return model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}

	if !user.IsActive {
		v.hasher.Verify(password, v.dummyHash)
		return model.User{}, model.ErrInvalidCredentials
	}

	if !v.hasher.Verify(password, user.PasswordHash) {
		return model.User{}, model.ErrInvalidCredentials
	}

	return user, nil
}
