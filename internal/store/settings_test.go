package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/keramika/internal/db"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

func newTestKV(t *testing.T) *kv.Store {
	t.Helper()
	return kv.New(db.NewTestDB(t))
}

func TestGetSessionSecret_GeneratesAndPersists(t *testing.T) {
	s := newTestKV(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetSessionSecret(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetSessionSecret(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestGetSettingsDefaults(t *testing.T) {
	s := newTestKV(t)

	settings, version, err := GetSettings(context.Background(), s)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 for defaults, got %d", version)
	}
	if settings.SiteName != "Pottery Studio" {
		t.Errorf("expected default site name, got %q", settings.SiteName)
	}
}

func TestUpdateSettingsMerges(t *testing.T) {
	s := newTestKV(t)
	ctx := context.Background()

	_, err := UpdateSettings(ctx, s, func(st *model.Settings) error {
		st.SiteName = "Keramika Ana"
		st.InstagramURL = "https://instagram.com/keramika"
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	settings, version, _ := GetSettings(ctx, s)
	if settings.SiteName != "Keramika Ana" || settings.InstagramURL == "" {
		t.Errorf("update not persisted: %+v", settings)
	}
	if settings.BusinessHours.Sunday != "Closed" {
		t.Errorf("expected untouched defaults kept, got %q", settings.BusinessHours.Sunday)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
}

func TestUpdateSettingsAbort(t *testing.T) {
	s := newTestKV(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := UpdateSettings(ctx, s, func(*model.Settings) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if _, version, _ := GetSettings(ctx, s); version != 0 {
		t.Errorf("expected nothing stored, got version %d", version)
	}
}
