package download

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erp/connector/internal/infrastructure/auth"
	"github.com/erp/connector/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens(t *testing.T) *auth.DownloadTokenService {
	t.Helper()
	used := cache.NewInMemoryUsedTokenStore(0)
	t.Cleanup(func() { _ = used.Close() })
	svc, err := auth.NewDownloadTokenService(auth.DownloadTokenConfig{
		Secret: "test-secret-key-at-least-32-chars",
		TTL:    time.Minute,
		Issuer: "test",
	}, used)
	require.NoError(t, err)
	return svc
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("a;b\n"), 0o644))
	return path
}

func TestLinker_PublicRoot(t *testing.T) {
	root := t.TempDir()
	exports := filepath.Join(root, "erp exports")
	require.NoError(t, os.Mkdir(exports, 0o755))
	path := writeFile(t, exports, "202503071430_CLIENTS.csv")

	linker := NewLinker(LinkerConfig{
		PublicRoot:    root,
		PublicBaseURL: "https://shop.example.com/uploads/",
	}, nil)

	link, err := linker.Link(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/uploads/erp%20exports/202503071430_CLIENTS.csv", link)
}

func TestLinker_TokenLink(t *testing.T) {
	exports := t.TempDir()
	path := writeFile(t, exports, "202503071430_CLIENTS.csv")
	tokens := newTokens(t)

	linker := NewLinker(LinkerConfig{
		PublicRoot:    t.TempDir(),
		PublicBaseURL: "https://shop.example.com/uploads",
		BaseURL:       "https://erp.example.com/",
	}, tokens)

	link, err := linker.Link(context.Background(), path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://erp.example.com"+DownloadPath+"?"))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "202503071430_CLIENTS.csv", u.Query().Get("file"))

	resolved, err := NewResolver(tokens).Resolve(context.Background(), exports, u.Query().Get("file"), u.Query().Get("token"))
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestLinker_NoIssuer(t *testing.T) {
	_, err := NewLinker(LinkerConfig{}, nil).Link(context.Background(), "/tmp/x.csv")
	assert.Error(t, err)
}

func TestResolver(t *testing.T) {
	exports := t.TempDir()
	outside := t.TempDir()
	writeFile(t, exports, "clients.csv")
	secret := writeFile(t, outside, "secret.csv")
	require.NoError(t, os.Symlink(secret, filepath.Join(exports, "link.csv")))
	require.NoError(t, os.Mkdir(filepath.Join(exports, "sub.csv"), 0o755))

	tokens := newTokens(t)
	resolver := NewResolver(tokens)
	ctx := context.Background()

	issue := func(name string) string {
		tok, err := tokens.Issue(name)
		require.NoError(t, err)
		return tok.Token
	}

	t.Run("valid token", func(t *testing.T) {
		token := issue("clients.csv")
		path, err := resolver.Resolve(ctx, exports, "clients.csv", token)
		require.NoError(t, err)
		assert.Equal(t, "clients.csv", filepath.Base(path))

		_, err = resolver.Resolve(ctx, exports, "clients.csv", token)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.ErrorIs(t, err, auth.ErrTokenUsed)
	})

	t.Run("traversal", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, exports, "../"+filepath.Base(outside)+"/secret.csv", issue("secret.csv"))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("symlink escaping the directory", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, exports, "link.csv", issue("link.csv"))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, exports, "sub.csv", issue("sub.csv"))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing file keeps the token", func(t *testing.T) {
		token := issue("gone.csv")
		_, err := resolver.Resolve(ctx, exports, "gone.csv", token)
		assert.ErrorIs(t, err, ErrFileNotFound)

		writeFile(t, exports, "gone.csv")
		_, err = resolver.Resolve(ctx, exports, "gone.csv", token)
		assert.NoError(t, err)
	})

	t.Run("token for another file", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, exports, "clients.csv", issue("other.csv"))
		assert.ErrorIs(t, err, ErrForbidden)
		assert.ErrorIs(t, err, auth.ErrFileMismatch)
	})

	t.Run("missing parameters", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, exports, "", "x")
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = resolver.Resolve(ctx, exports, "clients.csv", "")
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = resolver.Resolve(ctx, "", "clients.csv", "x")
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = resolver.Resolve(ctx, "", "clients.csv", issue("clients.csv"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("missing file with a bad token", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, exports, "absent.csv", "not-a-token")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.NotErrorIs(t, err, ErrFileNotFound)

		_, err = resolver.Resolve(ctx, exports, "absent.csv", issue("clients.csv"))
		assert.ErrorIs(t, err, ErrForbidden)
		assert.ErrorIs(t, err, auth.ErrFileMismatch)
	})
}
