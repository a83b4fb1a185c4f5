// Package store implements the content repository on top of the kv store.
// Every entity lives under its own key, "<collection>/<id>", and updates
// are version-checked so concurrent writers cannot silently overwrite each
// other.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

// maxUpdateAttempts bounds read-modify-write retries on version conflicts.
const maxUpdateAttempts = 5

// ErrConflict is returned when an update keeps losing races.
var ErrConflict = kv.ErrConflict

func newID() string {
	return uuid.NewString()
}

func itemKey(prefix, id string) string {
	return prefix + id
}

// getRecord loads key into a new T. It returns nil without error when the
// key is absent.
func getRecord[T any](ctx context.Context, s *kv.Store, key string) (*T, int64, error) {
	var v T
	version, err := s.GetJSON(ctx, key, &v)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return &v, version, nil
}

// listRecords decodes every record under prefix. Undecodable records are
// reported as errors.
func listRecords[T any](ctx context.Context, s *kv.Store, prefix string) ([]T, error) {
	entries, err := s.Scan(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", e.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// createRecord stores v under a key that must not exist yet.
func createRecord(ctx context.Context, s *kv.Store, key string, v any) error {
	_, err := s.SetJSONIfVersion(ctx, key, v, 0, 0)
	return err
}

// updateRecord applies fn to the record at key and writes it back if no
// other writer changed it in between, retrying on conflict. It returns nil
// without error when the key is absent. An error from fn aborts the update.
func updateRecord[T any](ctx context.Context, s *kv.Store, key string, fn func(*T) error) (*T, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		v, version, err := getRecord[T](ctx, s, key)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		if err := fn(v); err != nil {
			return nil, err
		}
		_, err = s.SetJSONIfVersion(ctx, key, v, version, kv.KeepTTL)
		if errors.Is(err, kv.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("updating %s: %w", key, ErrConflict)
}

// textSlot is implemented by the pointer types of translatable text.
type textSlot[T any] interface {
	*T
	Fields() map[string]string
	SetField(field, value string)
}

// stageText writes after into the hr slot and mirrors each changed field
// into the en slot as a placeholder until its translation arrives.
func stageText[T any, P textSlot[T]](tr *model.Translations[T], after T) []model.TextChange {
	changes := model.Changes(P(&tr.HR).Fields(), P(&after).Fields())
	tr.HR = after
	for _, c := range changes {
		P(&tr.EN).SetField(c.Field, c.Source)
	}
	return changes
}

// applyText stores translated text into the en slot for every field whose
// hr text is still the one that was translated.
func applyText[T any, P textSlot[T]](tr *model.Translations[T], texts []model.TranslatedText) {
	hr := P(&tr.HR).Fields()
	for _, t := range texts {
		if hr[t.Field] == t.Source {
			P(&tr.EN).SetField(t.Field, t.Text)
		}
	}
}
