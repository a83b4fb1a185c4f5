package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

const (
	settingsKey      = "settings"
	sessionSecretKey = "secret:session"
)

// GetSettings returns the stored settings merged over the defaults, or the
// defaults when nothing has been saved.
func GetSettings(ctx context.Context, s *kv.Store) (model.Settings, int64, error) {
	settings := model.DefaultSettings()
	version, err := s.GetJSON(ctx, settingsKey, &settings)
	if errors.Is(err, kv.ErrNotFound) {
		return model.DefaultSettings(), 0, nil
	}
	if err != nil {
		return model.Settings{}, 0, fmt.Errorf("getting settings: %w", err)
	}
	return settings, version, nil
}

// UpdateSettings applies fn to the current settings and saves the result.
// An error from fn aborts the update.
func UpdateSettings(ctx context.Context, s *kv.Store, fn func(*model.Settings) error) (*model.Settings, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		settings, version, err := GetSettings(ctx, s)
		if err != nil {
			return nil, err
		}
		if err := fn(&settings); err != nil {
			return nil, err
		}
		_, err = s.SetJSONIfVersion(ctx, settingsKey, settings, version, 0)
		if errors.Is(err, kv.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("saving settings: %w", err)
		}
		return &settings, nil
	}
	return nil, fmt.Errorf("saving settings: %w", ErrConflict)
}

// GetSessionSecret retrieves the session signing secret from the store.
// If no secret exists, it generates one, stores it, and returns it.
// A conditional create followed by a read keeps concurrent startups from
// ending up with different secrets.
func GetSessionSecret(ctx context.Context, s *kv.Store) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := s.SetIfVersion(ctx, sessionSecretKey, []byte(candidate), 0, 0)
	if err != nil && !errors.Is(err, kv.ErrConflict) {
		return "", fmt.Errorf("storing session secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	e, err := s.Get(ctx, sessionSecretKey)
	if err != nil {
		return "", fmt.Errorf("querying session secret: %w", err)
	}
	return string(e.Value), nil
}
