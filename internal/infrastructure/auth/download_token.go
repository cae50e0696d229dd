package auth

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DownloadScope is the only scope a download token may carry
const DownloadScope = "erp_export_download"

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidScope     = errors.New("token scope does not allow downloads")
	ErrFileMismatch     = errors.New("token was issued for another file")
	ErrTokenUsed        = errors.New("token has already been used")
	ErrMissingSecret    = errors.New("download token secret is not configured")
)

// UsedTokens remembers consumed token ids
type UsedTokens interface {
	MarkUsed(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// DownloadClaims binds a token to one exported file
type DownloadClaims struct {
	jwt.RegisteredClaims
	File  string `json:"file"`
	Scope string `json:"scope"`
}

// DownloadToken is a signed token with its expiry
type DownloadToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DownloadTokenConfig configures a DownloadTokenService
type DownloadTokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// DownloadTokenService issues and redeems single-use download tokens
type DownloadTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	used   UsedTokens
	now    func() time.Time
}

// NewDownloadTokenService creates a token service. An empty secret is an error.
func NewDownloadTokenService(cfg DownloadTokenConfig, used UsedTokens) (*DownloadTokenService, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &DownloadTokenService{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		issuer: cfg.Issuer,
		used:   used,
		now:    time.Now,
	}, nil
}

// Issue signs a token for the file name (base name only)
func (s *DownloadTokenService) Issue(file string) (*DownloadToken, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &DownloadClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   filepath.Base(file),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		File:  filepath.Base(file),
		Scope: DownloadScope,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download token: %w", err)
	}
	return &DownloadToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// Redeem validates the token for file and consumes it. A token succeeds once.
func (s *DownloadTokenService) Redeem(ctx context.Context, tokenString, file string) (*DownloadClaims, error) {
	claims, err := s.Verify(tokenString, file)
	if err != nil {
		return nil, err
	}

	if s.used != nil {
		ttl := time.Minute
		if claims.ExpiresAt != nil {
			if remaining := claims.ExpiresAt.Sub(s.now()); remaining > 0 {
				ttl = remaining
			}
		}
		first, err := s.used.MarkUsed(ctx, claims.ID, ttl)
		if err != nil {
			return nil, err
		}
		if !first {
			return nil, ErrTokenUsed
		}
	}
	return claims, nil
}

// Verify checks signature, expiry, scope and file binding without marking
// the token as used
func (s *DownloadTokenService) Verify(tokenString, file string) (*DownloadClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Scope != DownloadScope {
		return nil, ErrInvalidScope
	}
	if claims.File == "" || claims.File != filepath.Base(file) || file != filepath.Base(file) {
		return nil, ErrFileMismatch
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *DownloadTokenService) parse(tokenString string) (*DownloadClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(tokenString, &DownloadClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*DownloadClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
