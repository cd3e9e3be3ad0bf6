// Package localvault is the reference implementation of the vault backend
// boundary: an AES-256-GCM store over sqlite with an Argon2id-derived master
// key. The keydrop client only depends on the backend interfaces; this
// package exists so the client is useful standalone.
package localvault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/keydrop-app/keydrop/internal/backend"
)

const (
	dbFileName = "vault.db"
	dirMode    = 0o700

	// verifierPlaintext is sealed under the vault key at init so a wrong
	// master password is detected before any record is touched.
	verifierPlaintext = "keydrop-key-verifier"
)

var (
	ErrAlreadyInitialized = errors.New("localvault: vault already initialized")
	ErrNotInitialized     = errors.New("localvault: vault not initialized, run init first")
	ErrLocked             = errors.New("localvault: vault is locked")
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	service       TEXT NOT NULL DEFAULT '',
	environment   TEXT NOT NULL DEFAULT 'development',
	ciphertext    BLOB NOT NULL,
	nonce         BLOB NOT NULL,
	source_type   TEXT NOT NULL,
	project_path  TEXT NOT NULL DEFAULT '',
	env_file_path TEXT NOT NULL DEFAULT '',
	env_file_name TEXT NOT NULL DEFAULT '',
	tags          TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL,
	expires_at    TIMESTAMP
);
CREATE TABLE IF NOT EXISTS project_envs (
	project_path  TEXT PRIMARY KEY,
	env_file_path TEXT NOT NULL,
	env_file_name TEXT NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
`

// Vault is a local sqlite-backed vault. It implements backend.RecordStore,
// backend.Decrypter and backend.ProjectRegistry.
type Vault struct {
	dir string

	mu  sync.Mutex
	db  *sql.DB
	key []byte // nil while locked
}

// New creates a handle for the vault at dir (typically ~/.keydrop). No I/O
// happens until Init, Unlock or a read operation.
func New(dir string) *Vault {
	return &Vault{dir: dir}
}

// Init creates the vault directory, database and key material. Fails if a
// vault already exists at the path.
func (v *Vault) Init(masterPassword string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	dbPath := filepath.Join(v.dir, dbFileName)
	if _, err := os.Stat(dbPath); err == nil {
		return ErrAlreadyInitialized
	}

	if err := os.MkdirAll(v.dir, dirMode); err != nil {
		return fmt.Errorf("localvault: creating vault directory: %w", err)
	}

	db, err := openDB(dbPath)
	if err != nil {
		return err
	}
	// Owner read/write only.
	if err := os.Chmod(dbPath, 0o600); err != nil {
		db.Close()
		return fmt.Errorf("localvault: restricting database permissions: %w", err)
	}

	salt := make([]byte, saltLength)
	if err := fillRandom(salt); err != nil {
		db.Close()
		return err
	}

	key := deriveKey([]byte(masterPassword), salt)
	verifierCT, verifierNonce, err := encrypt(key, []byte(verifierPlaintext))
	if err != nil {
		secureWipe(key)
		db.Close()
		return err
	}

	for metaKey, value := range map[string][]byte{
		"salt":           salt,
		"verifier":       verifierCT,
		"verifier_nonce": verifierNonce,
	} {
		if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, metaKey, value); err != nil {
			secureWipe(key)
			db.Close()
			return fmt.Errorf("localvault: writing vault metadata: %w", err)
		}
	}

	v.db = db
	v.key = key
	return nil
}

// Unlock derives the key from the master password and verifies it against
// the stored verifier. A wrong password yields ErrAuthenticationFailed.
func (v *Vault) Unlock(masterPassword string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureOpen(); err != nil {
		return err
	}

	key, err := v.verifyPassword(masterPassword)
	if err != nil {
		return err
	}
	if v.key != nil {
		secureWipe(v.key)
	}
	v.key = key
	return nil
}

// Lock wipes the in-memory key. Reads of non-sensitive metadata still work;
// anything touching plaintext requires Unlock again.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.key != nil {
		secureWipe(v.key)
		v.key = nil
	}
}

// Close locks the vault and closes the database.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.key != nil {
		secureWipe(v.key)
		v.key = nil
	}
	if v.db != nil {
		err := v.db.Close()
		v.db = nil
		return err
	}
	return nil
}

// Create encrypts the request's value under the vault key and inserts the
// record. The vault must be unlocked.
func (v *Vault) Create(ctx context.Context, req backend.CreateRequest) (*backend.KeyRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureOpen(); err != nil {
		return nil, err
	}
	if v.key == nil {
		return nil, ErrLocked
	}

	ciphertext, nonce, err := encrypt(v.key, []byte(req.Value))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &backend.KeyRecord{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Service:     req.Service,
		Environment: req.Environment,
		StoredValue: backend.EncryptedSentinel,
		SourceType:  req.SourceType,
		ProjectPath: req.ProjectPath,
		EnvFilePath: req.EnvFilePath,
		EnvFileName: req.EnvFileName,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = v.db.ExecContext(ctx, `
		INSERT INTO records (id, name, service, environment, ciphertext, nonce,
			source_type, project_path, env_file_path, env_file_name, tags,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Service, string(rec.Environment), ciphertext, nonce,
		string(rec.SourceType), rec.ProjectPath, rec.EnvFilePath, rec.EnvFileName,
		strings.Join(rec.Tags, ","), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: record %q already exists", backend.ErrValidation, rec.Name)
		}
		return nil, fmt.Errorf("localvault: inserting record: %w", err)
	}
	return rec, nil
}

// Get returns a record by ID. The stored value is always the sentinel;
// plaintext only leaves the store through Decrypt.
func (v *Vault) Get(ctx context.Context, id string) (*backend.KeyRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensureOpen(); err != nil {
		return nil, err
	}
	return v.scanRecord(v.db.QueryRowContext(ctx, selectRecords+` WHERE id = ?`, id))
}

// GetByName returns a record by its unique name.
func (v *Vault) GetByName(ctx context.Context, name string) (*backend.KeyRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensureOpen(); err != nil {
		return nil, err
	}
	return v.scanRecord(v.db.QueryRowContext(ctx, selectRecords+` WHERE name = ?`, name))
}

// List returns all records ordered by name.
func (v *Vault) List(ctx context.Context) ([]*backend.KeyRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := v.db.QueryContext(ctx, selectRecords+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("localvault: listing records: %w", err)
	}
	defer rows.Close()

	var records []*backend.KeyRecord
	for rows.Next() {
		rec, err := v.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Decrypt implements the decrypt(keyId, masterPassword) command: the key is
// re-derived per call, so Decrypt works on a locked vault and never changes
// the lock state.
func (v *Vault) Decrypt(ctx context.Context, recordID, masterPassword string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureOpen(); err != nil {
		return "", err
	}

	var ciphertext, nonce []byte
	err := v.db.QueryRowContext(ctx,
		`SELECT ciphertext, nonce FROM records WHERE id = ?`, recordID).
		Scan(&ciphertext, &nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return "", backend.ErrRecordNotFound
	}
	if err != nil {
		return "", fmt.Errorf("localvault: reading record: %w", err)
	}

	key, err := v.verifyPassword(masterPassword)
	if err != nil {
		return "", err
	}
	defer secureWipe(key)

	plaintext, err := decrypt(key, ciphertext, nonce)
	if err != nil {
		return "", fmt.Errorf("localvault: %w", backend.ErrAuthenticationFailed)
	}
	return string(plaintext), nil
}

// AssociateEnvFile records which env file a project was last imported from.
// Last write wins per project path.
func (v *Vault) AssociateEnvFile(ctx context.Context, projectPath, envPath, fileName string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ensureOpen(); err != nil {
		return err
	}

	_, err := v.db.ExecContext(ctx, `
		INSERT INTO project_envs (project_path, env_file_path, env_file_name, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_path) DO UPDATE SET
			env_file_path = excluded.env_file_path,
			env_file_name = excluded.env_file_name,
			updated_at    = excluded.updated_at`,
		projectPath, envPath, fileName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("localvault: associating project: %w", err)
	}
	return nil
}

const selectRecords = `
	SELECT id, name, service, environment, source_type, project_path,
		env_file_path, env_file_name, tags, created_at, updated_at, expires_at
	FROM records`

type rowScanner interface {
	Scan(dest ...any) error
}

func (v *Vault) scanRecord(row rowScanner) (*backend.KeyRecord, error) {
	var rec backend.KeyRecord
	var environment, sourceType, tags string
	var expiresAt sql.NullTime

	err := row.Scan(&rec.ID, &rec.Name, &rec.Service, &environment, &sourceType,
		&rec.ProjectPath, &rec.EnvFilePath, &rec.EnvFileName, &tags,
		&rec.CreatedAt, &rec.UpdatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localvault: scanning record: %w", err)
	}

	rec.Environment = backend.Environment(environment)
	rec.SourceType = backend.SourceType(sourceType)
	rec.StoredValue = backend.EncryptedSentinel
	if tags != "" {
		rec.Tags = strings.Split(tags, ",")
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		rec.ExpiresAt = &t
	}
	return &rec, nil
}

// verifyPassword derives a key from the password and checks it against the
// stored verifier. Caller must hold v.mu. The returned key is owned by the
// caller and must be wiped when done.
func (v *Vault) verifyPassword(masterPassword string) ([]byte, error) {
	var salt, verifier, verifierNonce []byte
	for metaKey, dest := range map[string]*[]byte{
		"salt":           &salt,
		"verifier":       &verifier,
		"verifier_nonce": &verifierNonce,
	} {
		if err := v.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaKey).Scan(dest); err != nil {
			return nil, fmt.Errorf("localvault: reading vault metadata %q: %w", metaKey, err)
		}
	}

	key := deriveKey([]byte(masterPassword), salt)
	if _, err := decrypt(key, verifier, verifierNonce); err != nil {
		secureWipe(key)
		return nil, fmt.Errorf("localvault: %w", backend.ErrAuthenticationFailed)
	}
	return key, nil
}

// ensureOpen lazily opens the database. Caller must hold v.mu.
func (v *Vault) ensureOpen() error {
	if v.db != nil {
		return nil
	}
	dbPath := filepath.Join(v.dir, dbFileName)
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNotInitialized
		}
		return fmt.Errorf("localvault: checking vault database: %w", err)
	}
	db, err := openDB(dbPath)
	if err != nil {
		return err
	}
	v.db = db
	return nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("localvault: opening database: %w", err)
	}
	// modernc sqlite is single-writer; serialize access.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("localvault: applying schema: %w", err)
	}
	return db, nil
}
