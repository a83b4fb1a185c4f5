package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/keramika/internal/kv"
)

const revokedPrefix = "revoked:"

// RevokeSession adds a session token's JTI to the revocation list. The
// entry expires together with the token.
func RevokeSession(ctx context.Context, s *kv.Store, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.Now())
	if ttl <= 0 {
		return nil
	}
	if _, err := s.Set(ctx, revokedPrefix+jti, []byte("1"), ttl); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// IsSessionRevoked checks if a session token's JTI has been revoked.
func IsSessionRevoked(ctx context.Context, s *kv.Store, jti string) (bool, error) {
	_, err := s.Get(ctx, revokedPrefix+jti)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking session revocation: %w", err)
	}
	return true, nil
}

const adminPasswordKey = "secret:admin"

// GetAdminPasswordHash returns the stored admin password hash, or "" if none
// has been generated yet.
func GetAdminPasswordHash(ctx context.Context, s *kv.Store) (string, error) {
	e, err := s.Get(ctx, adminPasswordKey)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting admin password: %w", err)
	}
	return string(e.Value), nil
}

// InitAdminPasswordHash stores hash unless a hash is already stored. It
// returns the hash in effect and whether it is the one passed in.
func InitAdminPasswordHash(ctx context.Context, s *kv.Store, hash string) (string, bool, error) {
	_, err := s.SetIfVersion(ctx, adminPasswordKey, []byte(hash), 0, 0)
	if err != nil && !errors.Is(err, kv.ErrConflict) {
		return "", false, fmt.Errorf("storing admin password: %w", err)
	}
	stored, err := GetAdminPasswordHash(ctx, s)
	if err != nil {
		return "", false, err
	}
	return stored, stored == hash, nil
}
