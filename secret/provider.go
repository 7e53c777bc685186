package secret

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider reads a secret from a named environment variable.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// Name returns "env".
func (p *EnvProvider) Name() string { return "env" }

// Resolve returns the value of the environment variable ref.
func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.lookup(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrNotFound, ref)
	}
	return v, nil
}

// FileProvider reads a secret from a file, as mounted by container
// orchestrators under /run/secrets. A single trailing newline is dropped.
type FileProvider struct {
	fsys fs.FS
}

// NewFileProvider creates a provider reading from the host filesystem.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// NewFileProviderFS creates a provider reading relative paths from fsys.
func NewFileProviderFS(fsys fs.FS) *FileProvider {
	return &FileProvider{fsys: fsys}
}

// Name returns "file".
func (p *FileProvider) Name() string { return "file" }

// Resolve returns the contents of the file at ref.
func (p *FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	var (
		data []byte
		err  error
	)
	if p.fsys != nil {
		data, err = fs.ReadFile(p.fsys, strings.TrimPrefix(ref, "/"))
	} else {
		data, err = os.ReadFile(ref)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

var (
	_ Provider = (*EnvProvider)(nil)
	_ Provider = (*FileProvider)(nil)
)
