// Package ingest turns environment files discovered on disk into staged
// import batches and, on confirmation, into vault record creation requests.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/keydrop-app/keydrop/internal/backend"
	"github.com/keydrop-app/keydrop/internal/editor"
	"github.com/keydrop-app/keydrop/internal/envfile"
	"github.com/keydrop-app/keydrop/internal/project"
)

// FileReader resolves a file's contents. Implementations must honor ctx.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// OSFileReader reads from the local filesystem, refusing symlinks the same
// way the rest of the client does for user-supplied paths.
type OSFileReader struct{}

func (OSFileReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("refusing to read symlink: %s", abs)
	}
	return os.ReadFile(abs)
}

// Tracker is the slice of editor.Tracker the pipeline needs; liveness is
// advisory and must never fail ingestion.
type Tracker interface {
	Status(ctx context.Context, projectPath string) editor.Status
}

// Pipeline orchestrates file selection -> filtering -> parsing ->
// classification -> staged batch -> confirmed import.
type Pipeline struct {
	reader   FileReader
	resolver project.Resolver
	tracker  Tracker
	store    backend.RecordStore
	registry backend.ProjectRegistry
	logger   *zap.Logger

	mu     sync.Mutex
	active *Batch
}

// Options configures a Pipeline. Reader and Resolver default to the local
// filesystem implementations; Tracker may be nil (status Unknown).
type Options struct {
	Reader   FileReader
	Resolver project.Resolver
	Tracker  Tracker
	Logger   *zap.Logger
}

// NewPipeline wires an ingestion pipeline against the vault store boundary.
func NewPipeline(store backend.RecordStore, registry backend.ProjectRegistry, opts Options) *Pipeline {
	p := &Pipeline{
		reader:   opts.Reader,
		resolver: opts.Resolver,
		tracker:  opts.Tracker,
		store:    store,
		registry: registry,
		logger:   opts.Logger,
	}
	if p.reader == nil {
		p.reader = OSFileReader{}
	}
	if p.resolver == nil {
		p.resolver = project.MarkerResolver{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// FilterSupported keeps only paths naming recognized environment files.
// An empty result is a NoSupportedFilesError listing every rejected file.
func FilterSupported(paths []string) ([]string, error) {
	var supported, rejected []string
	for _, path := range paths {
		if Supported(path) {
			supported = append(supported, path)
		} else {
			rejected = append(rejected, filepath.Base(path))
		}
	}
	if len(supported) == 0 {
		return nil, &NoSupportedFilesError{Rejected: rejected}
	}
	return supported, nil
}

// Ingest attempts the supported files in input order and stages the first
// one that ingests successfully as the active batch, replacing any pending
// batch. Later files are not processed once a batch exists. Per-file I/O
// failures are returned alongside the batch so they can be reported; if
// every file fails, the last error is the overall error.
func (p *Pipeline) Ingest(ctx context.Context, paths []string) (*Batch, []*FileError, error) {
	supported, err := FilterSupported(paths)
	if err != nil {
		return nil, nil, err
	}

	var fileErrs []*FileError
	for _, path := range supported {
		if err := ctx.Err(); err != nil {
			return nil, fileErrs, err
		}

		batch, err := p.ingestOne(ctx, path)
		if err != nil {
			fe := &FileError{Path: path, Err: err}
			fileErrs = append(fileErrs, fe)
			p.logger.Warn("env file ingestion failed",
				zap.String("path", path),
				zap.Error(err))
			continue
		}

		p.mu.Lock()
		p.active = batch
		p.mu.Unlock()

		p.logger.Info("staged import batch",
			zap.String("file", batch.FileName),
			zap.String("project_path", batch.ProjectPath),
			zap.Int("variables", len(batch.Variables)),
			zap.Int("secrets", batch.SecretCount()))
		return batch, fileErrs, nil
	}

	return nil, fileErrs, fileErrs[len(fileErrs)-1]
}

// ingestOne runs the strictly sequential per-file flow: read -> resolve
// project -> parse -> classify -> liveness query.
func (p *Pipeline) ingestOne(ctx context.Context, path string) (*Batch, error) {
	data, err := p.reader.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	projectPath, err := p.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}

	vars := envfile.Parse(string(data))

	status := editor.StatusUnknown
	if p.tracker != nil {
		status = p.tracker.Status(ctx, projectPath)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &Batch{
		SourcePath:   abs,
		ProjectPath:  projectPath,
		FileName:     filepath.Base(path),
		Variables:    vars,
		EditorStatus: status,
	}, nil
}

// Active returns the batch currently pending confirmation, if any.
func (p *Pipeline) Active() *Batch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Discard drops the pending batch without importing anything.
func (p *Pipeline) Discard() {
	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()
}

// Requests builds the record creation requests a confirmed import would
// emit: one per secret variable, names sanitized and deduplicated,
// environment inferred from the filename, env-file provenance attached.
// Non-secret variables are never offered for import.
func Requests(batch *Batch) []backend.CreateRequest {
	importable := batch.Importable()
	env := InferEnvironment(batch.FileName)
	service := filepath.Base(batch.ProjectPath)

	names := make([]string, len(importable))
	for i, v := range importable {
		names[i] = sanitizeRecordName(v.Name)
	}
	names = dedupeNames(names)

	reqs := make([]backend.CreateRequest, 0, len(importable))
	for i, v := range importable {
		reqs = append(reqs, backend.CreateRequest{
			Name:        names[i],
			Service:     service,
			Environment: env,
			Value:       v.RawValue,
			SourceType:  backend.SourceEnvFile,
			ProjectPath: batch.ProjectPath,
			EnvFilePath: batch.SourcePath,
			EnvFileName: batch.FileName,
		})
	}
	return reqs
}

// SkippedRecord is a variable that was not imported, with the reason.
type SkippedRecord struct {
	Name   string
	Reason string
}

// Outcome is the result of a confirmed import.
type Outcome struct {
	Created []*backend.KeyRecord
	Skipped []SkippedRecord
}

// Confirm imports the batch: every secret variable becomes a vault record
// unless a record with the same name already exists (duplicates are skipped,
// not overwritten). After the records are created, the project is associated
// with the env file in the registry. The pending batch is consumed.
func (p *Pipeline) Confirm(ctx context.Context, batch *Batch) (*Outcome, error) {
	if batch == nil {
		return nil, errors.New("ingest: no batch to confirm")
	}

	outcome := &Outcome{}
	for _, req := range Requests(batch) {
		existing, err := p.store.GetByName(ctx, req.Name)
		if err != nil && !errors.Is(err, backend.ErrRecordNotFound) {
			return outcome, fmt.Errorf("ingest: checking for duplicate %q: %w", req.Name, err)
		}
		if existing != nil {
			outcome.Skipped = append(outcome.Skipped, SkippedRecord{
				Name:   req.Name,
				Reason: "already exists",
			})
			continue
		}

		record, err := p.store.Create(ctx, req)
		if err != nil {
			return outcome, fmt.Errorf("ingest: creating record %q: %w", req.Name, err)
		}
		outcome.Created = append(outcome.Created, record)
	}

	if err := p.registry.AssociateEnvFile(ctx, batch.ProjectPath, batch.SourcePath, batch.FileName); err != nil {
		return outcome, fmt.Errorf("ingest: associating project with env file: %w", err)
	}

	p.mu.Lock()
	if p.active == batch {
		p.active = nil
	}
	p.mu.Unlock()

	p.logger.Info("import confirmed",
		zap.String("file", batch.FileName),
		zap.Int("created", len(outcome.Created)),
		zap.Int("skipped", len(outcome.Skipped)))
	return outcome, nil
}
