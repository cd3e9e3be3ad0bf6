// Package backend defines the narrow command boundary between the keydrop
// client and the vault store that owns persistence and cryptography. The
// client only ever sees these interfaces; pkg-level callers must not assume
// any particular implementation.
package backend

import (
	"context"
	"errors"
)

// EncryptedSentinel is the placeholder stored value for records whose
// plaintext the client cannot read without explicit decryption.
const EncryptedSentinel = "[ENCRYPTED]"

// Errors surfaced across the command boundary.
var (
	ErrAuthenticationFailed = errors.New("backend: authentication failed")
	ErrRecordNotFound       = errors.New("backend: record not found")
	ErrValidation           = errors.New("backend: invalid record fields")
)

// Decrypter decrypts a stored record's value given the master password.
// A wrong password yields an error wrapping ErrAuthenticationFailed.
type Decrypter interface {
	Decrypt(ctx context.Context, recordID, masterPassword string) (string, error)
}

// RecordStore creates and reads vault key records.
type RecordStore interface {
	Create(ctx context.Context, req CreateRequest) (*KeyRecord, error)
	Get(ctx context.Context, id string) (*KeyRecord, error)
	GetByName(ctx context.Context, name string) (*KeyRecord, error)
	List(ctx context.Context) ([]*KeyRecord, error)
}

// ProjectRegistry records which env file a project was imported from.
type ProjectRegistry interface {
	AssociateEnvFile(ctx context.Context, projectPath, envPath, fileName string) error
}
