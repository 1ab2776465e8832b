package refresh

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by FindByValue when no credential has the value.
	ErrNotFound = errors.New("refresh credential not found")
	// ErrDuplicateCredential is returned by Add when the value is already stored.
	ErrDuplicateCredential = errors.New("refresh credential already exists")
	// ErrInvalidCredential is returned by Add for an empty value or owner.
	ErrInvalidCredential = errors.New("invalid refresh credential")
	// ErrCorruptCredential is returned when a stored record cannot be decoded.
	ErrCorruptCredential = errors.New("refresh credential corrupt")
	// ErrStoreUnavailable wraps backend failures.
	ErrStoreUnavailable = errors.New("refresh store unavailable")
)

// Credential is a stored refresh token and its owner.
type Credential struct {
	Value       string
	OwnerUserID int64
	CreatedAt   time.Time
}

// Store keeps refresh credentials keyed by value. Implementations must be safe for
// concurrent use and atomic per key.
type Store interface {
	// Add stores cred. It returns ErrDuplicateCredential when the value exists.
	Add(ctx context.Context, cred Credential) error
	// FindByValue returns the credential with value or ErrNotFound.
	FindByValue(ctx context.Context, value string) (Credential, error)
	// DeleteByValue removes the credential. Deleting an absent value is not an error.
	DeleteByValue(ctx context.Context, value string) error
}

func validate(cred Credential) error {
	if cred.Value == "" || cred.OwnerUserID == 0 {
		return ErrInvalidCredential
	}
	return nil
}
