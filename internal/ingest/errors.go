package ingest

import (
	"fmt"
	"strings"
)

// NoSupportedFilesError reports that nothing in a drop/selection matched a
// recognized environment-file name. It carries every rejected filename so
// the user can see what was refused.
type NoSupportedFilesError struct {
	Rejected []string
}

func (e *NoSupportedFilesError) Error() string {
	if len(e.Rejected) == 0 {
		return "ingest: no file paths resolvable from selection"
	}
	return fmt.Sprintf("ingest: no supported environment files among: %s",
		strings.Join(e.Rejected, ", "))
}

// FileError is a per-file ingestion failure (unreadable, permission denied).
// The pipeline reports it and continues with the next candidate.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("ingest: %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
