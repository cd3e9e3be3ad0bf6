package backend

import (
	"fmt"
	"time"
)

// SourceType records how a key entered the vault.
type SourceType string

const (
	SourceManual  SourceType = "manual"
	SourceEnvFile SourceType = "env_file"
)

// Environment is the deployment environment a key belongs to.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvTest        Environment = "test"
	EnvProduction  Environment = "production"
)

// KeyRecord is the persisted entity owned by the vault store. StoredValue is
// either plaintext already in memory (manual/legacy entries) or the
// EncryptedSentinel; the client never holds ciphertext.
type KeyRecord struct {
	ID          string
	Name        string
	Service     string
	Environment Environment
	StoredValue string
	SourceType  SourceType

	// Env-file provenance. ProjectPath is derived from EnvFilePath at import
	// time and is never user-edited afterwards.
	ProjectPath string
	EnvFilePath string
	EnvFileName string

	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

// Encrypted reports whether the record's value requires explicit decryption.
func (r *KeyRecord) Encrypted() bool {
	return r.StoredValue == EncryptedSentinel
}

// CreateRequest is one record creation request emitted by a confirmed import
// or a manual set.
type CreateRequest struct {
	Name        string
	Service     string
	Environment Environment
	Value       string
	SourceType  SourceType
	ProjectPath string
	EnvFilePath string
	EnvFileName string
	Tags        []string
}

// Validate enforces the invariants the store relies on.
func (req *CreateRequest) Validate() error {
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Value == "" {
		return fmt.Errorf("%w: value is required", ErrValidation)
	}
	switch req.SourceType {
	case SourceManual:
	case SourceEnvFile:
		if req.ProjectPath == "" {
			return fmt.Errorf("%w: env_file records require a project path", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown source type %q", ErrValidation, req.SourceType)
	}
	return nil
}
