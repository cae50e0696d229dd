// Package download turns exported files into links operators can open and
// serves them back without letting a request escape the export directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/erp/connector/internal/infrastructure/auth"
)

// DownloadPath is the API route that serves exported files
const DownloadPath = "/api/v1/files/download"

var (
	// ErrForbidden is returned for paths outside the export directory and for rejected tokens
	ErrForbidden = errors.New("download forbidden")
	// ErrFileNotFound is returned when the requested file does not exist
	ErrFileNotFound = errors.New("file not found")
)

// TokenIssuer signs download tokens
type TokenIssuer interface {
	Issue(file string) (*auth.DownloadToken, error)
}

// LinkerConfig configures a Linker
type LinkerConfig struct {
	// PublicRoot is a directory served statically at PublicBaseURL
	PublicRoot    string
	PublicBaseURL string
	// BaseURL prefixes links to the download endpoint
	BaseURL string
}

// Linker builds the link of an exported file: a direct URL when the file
// lies under the public root, a tokenized download endpoint link otherwise
type Linker struct {
	config LinkerConfig
	tokens TokenIssuer
}

// NewLinker creates a Linker. tokens may be nil when every export is public.
func NewLinker(config LinkerConfig, tokens TokenIssuer) *Linker {
	return &Linker{config: config, tokens: tokens}
}

// Link implements exportapp.LinkBuilder
func (l *Linker) Link(_ context.Context, absPath string) (string, error) {
	if rel, ok := l.publicPath(absPath); ok {
		return strings.TrimRight(l.config.PublicBaseURL, "/") + "/" + escapePath(rel), nil
	}

	if l.tokens == nil {
		return "", fmt.Errorf("%s is outside the public root and no token issuer is configured", absPath)
	}
	name := filepath.Base(absPath)
	tok, err := l.tokens.Issue(name)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("file", name)
	q.Set("token", tok.Token)
	return strings.TrimRight(l.config.BaseURL, "/") + DownloadPath + "?" + q.Encode(), nil
}

// publicPath returns absPath relative to the public root when it lies inside it
func (l *Linker) publicPath(absPath string) (string, bool) {
	if l.config.PublicRoot == "" || l.config.PublicBaseURL == "" {
		return "", false
	}
	root, err := canonical(l.config.PublicRoot)
	if err != nil {
		return "", false
	}
	file, err := canonical(absPath)
	if err != nil {
		return "", false
	}
	if !within(root, file) {
		return "", false
	}
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func escapePath(rel string) string {
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// canonical resolves symlinks and makes path absolute
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// within reports whether path is strictly below dir. Both must be canonical.
func within(dir, path string) bool {
	return strings.HasPrefix(path, strings.TrimRight(dir, string(os.PathSeparator))+string(os.PathSeparator))
}
