package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/erp/connector/internal/infrastructure/auth"
)

// TokenRedeemer validates and consumes download tokens
type TokenRedeemer interface {
	Verify(token, file string) (*auth.DownloadClaims, error)
	Redeem(ctx context.Context, token, file string) (*auth.DownloadClaims, error)
}

// Resolver maps a download request to a file inside the export directory
type Resolver struct {
	tokens TokenRedeemer
}

// NewResolver creates a Resolver
func NewResolver(tokens TokenRedeemer) *Resolver {
	return &Resolver{tokens: tokens}
}

// Resolve verifies the token for file, then checks that file names a regular
// file directly inside exportDir after symlink resolution, and finally redeems
// the token. Requests without a valid token get ErrForbidden whether or not the
// file exists. The token is only consumed once the file is known to be servable.
func (r *Resolver) Resolve(ctx context.Context, exportDir, file, token string) (string, error) {
	if file == "" || token == "" {
		return "", ErrForbidden
	}
	if file != filepath.Base(file) || file == "." || file == ".." {
		return "", ErrForbidden
	}
	if _, err := r.tokens.Verify(token, file); err != nil {
		return "", fmt.Errorf("%w: %w", ErrForbidden, err)
	}

	if exportDir == "" {
		return "", fmt.Errorf("%w: export directory not configured", ErrFileNotFound)
	}
	dir, err := canonical(exportDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	path, err := canonical(filepath.Join(dir, file))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrFileNotFound
		}
		return "", ErrForbidden
	}
	if !within(dir, path) {
		return "", ErrForbidden
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", ErrFileNotFound
	}
	if !info.Mode().IsRegular() {
		return "", ErrForbidden
	}

	if _, err := r.tokens.Redeem(ctx, token, file); err != nil {
		return "", fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return path, nil
}
