package ingest

import (
	"path/filepath"
	"strings"

	"github.com/keydrop-app/keydrop/internal/backend"
	"github.com/keydrop-app/keydrop/internal/editor"
	"github.com/keydrop-app/keydrop/internal/envfile"
)

// supportedPrefixes are the recognized environment-file names, matched
// against the basename (exact, case-sensitive). A name is also supported
// when it carries one of these as a dotted suffix chain, e.g.
// "config.env.production".
var supportedPrefixes = []string{
	".env",
	".env.local",
	".env.development",
	".env.production",
	".env.staging",
	".env.test",
}

// Batch is one detected environment file pending user confirmation. At most
// one batch is active at a time; a new detection replaces a pending one.
type Batch struct {
	SourcePath   string
	ProjectPath  string
	FileName     string
	Variables    []envfile.Variable
	EditorStatus editor.Status
}

// Importable returns the variables classified as secret; only these may
// become vault records, though every variable is shown to the user.
func (b *Batch) Importable() []envfile.Variable {
	var out []envfile.Variable
	for _, v := range b.Variables {
		if v.IsSecret {
			out = append(out, v)
		}
	}
	return out
}

// SecretCount is the number of importable variables in the batch.
func (b *Batch) SecretCount() int {
	n := 0
	for _, v := range b.Variables {
		if v.IsSecret {
			n++
		}
	}
	return n
}

// Supported reports whether a path names a recognized environment file.
func Supported(path string) bool {
	base := filepath.Base(path)
	for _, prefix := range supportedPrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
		// Allow a leading project qualifier: "config.env.production".
		if strings.Contains(base, prefix+".") || strings.HasSuffix(base, prefix) {
			return true
		}
	}
	return false
}

// InferEnvironment maps an env-file name to the environment its records
// belong to. Only a ".production" suffix marks records as production;
// every other supported suffix, ".staging" and ".test" included, falls
// back to development, the conservative default.
func InferEnvironment(fileName string) backend.Environment {
	if strings.HasSuffix(fileName, ".production") {
		return backend.EnvProduction
	}
	return backend.EnvDevelopment
}
