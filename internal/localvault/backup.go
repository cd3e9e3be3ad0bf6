package localvault

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/keydrop-app/keydrop/internal/backend"
)

// Backup file layout: magic | salt | nonce | ciphertext. The ciphertext is
// the vault database encrypted under a key derived from the master password
// with a salt generated fresh for each backup, never the vault's own salt.
const (
	backupMagic  = "KDBK1"
	backupPrefix = "backup-"
	backupSuffix = ".kdb"
)

var ErrInvalidBackup = errors.New("localvault: not a keydrop backup file")

// Backup writes an encrypted snapshot of the vault database into dir and
// prunes older snapshots beyond keep (keep <= 0 retains everything). The
// master password is verified first so a typo cannot produce a backup that
// only decrypts with the wrong password.
func (v *Vault) Backup(dir, masterPassword string, keep int) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureOpen(); err != nil {
		return "", err
	}
	key, err := v.verifyPassword(masterPassword)
	if err != nil {
		return "", err
	}
	secureWipe(key)

	dbBytes, err := os.ReadFile(filepath.Join(v.dir, dbFileName))
	if err != nil {
		return "", fmt.Errorf("localvault: reading vault database: %w", err)
	}

	salt := make([]byte, saltLength)
	if err := fillRandom(salt); err != nil {
		return "", err
	}
	backupKey := deriveKey([]byte(masterPassword), salt)
	defer secureWipe(backupKey)

	ciphertext, nonce, err := encrypt(backupKey, dbBytes)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(backupMagic)
	buf.Write(salt)
	buf.Write(nonce)
	buf.Write(ciphertext)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("localvault: creating backup directory: %w", err)
	}
	name := backupPrefix + time.Now().UTC().Format("20060102-150405") + backupSuffix
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("localvault: writing backup: %w", err)
	}

	if err := pruneBackups(dir, keep); err != nil {
		return path, err
	}
	return path, nil
}

// Restore decrypts a backup into this vault's directory. It refuses to
// overwrite an existing vault. The database is written to a temp file and
// renamed into place so a failed restore never leaves a partial vault.
func (v *Vault) Restore(backupPath, masterPassword string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	dbPath := filepath.Join(v.dir, dbFileName)
	if _, err := os.Stat(dbPath); err == nil {
		return ErrAlreadyInitialized
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("localvault: reading backup: %w", err)
	}
	if len(data) < len(backupMagic)+saltLength+nonceLength+1 ||
		string(data[:len(backupMagic)]) != backupMagic {
		return ErrInvalidBackup
	}
	rest := data[len(backupMagic):]
	salt, rest := rest[:saltLength], rest[saltLength:]
	nonce, ciphertext := rest[:nonceLength], rest[nonceLength:]

	backupKey := deriveKey([]byte(masterPassword), salt)
	defer secureWipe(backupKey)

	dbBytes, err := decrypt(backupKey, ciphertext, nonce)
	if err != nil {
		return backend.ErrAuthenticationFailed
	}
	defer secureWipe(dbBytes)

	if err := os.MkdirAll(v.dir, 0o700); err != nil {
		return fmt.Errorf("localvault: creating vault directory: %w", err)
	}
	tmp := dbPath + ".restore"
	if err := os.WriteFile(tmp, dbBytes, 0o600); err != nil {
		return fmt.Errorf("localvault: writing restored database: %w", err)
	}
	if err := os.Rename(tmp, dbPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("localvault: activating restored database: %w", err)
	}
	return nil
}

// Backups lists backup files in dir, newest first.
func Backups(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("localvault: reading backup directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupSuffix) {
			names = append(names, name)
		}
	}
	// Timestamped names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func pruneBackups(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	names, err := Backups(dir)
	if err != nil {
		return err
	}
	for _, name := range names[min(keep, len(names)):] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("localvault: pruning backup %s: %w", name, err)
		}
	}
	return nil
}
