package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

const (
	submissionsPrefix = "contact_submissions/"
	pendingPrefix     = "contact:"
)

// ListContactSubmissions returns the admin inbox, newest first.
func ListContactSubmissions(ctx context.Context, s *kv.Store) ([]model.ContactSubmission, error) {
	subs, err := listRecords[model.ContactSubmission](ctx, s, submissionsPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing contact submissions: %w", err)
	}
	slices.SortStableFunc(subs, func(a, b model.ContactSubmission) int {
		return b.SubmittedAt.Compare(a.SubmittedAt)
	})
	return subs, nil
}

// AddContactSubmission stores sub unless a submission with the same ID
// already exists. It reports whether sub was stored.
func AddContactSubmission(ctx context.Context, s *kv.Store, sub model.ContactSubmission) (bool, error) {
	err := createRecord(ctx, s, itemKey(submissionsPrefix, sub.ID), sub)
	if errors.Is(err, kv.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("adding contact submission: %w", err)
	}
	return true, nil
}

// SetContactReplied marks a submission as replied or not. It returns nil if
// the submission doesn't exist.
func SetContactReplied(ctx context.Context, s *kv.Store, id string, replied bool) (*model.ContactSubmission, error) {
	sub, err := updateRecord(ctx, s, itemKey(submissionsPrefix, id), func(sub *model.ContactSubmission) error {
		sub.Replied = replied
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating contact submission: %w", err)
	}
	return sub, nil
}

// DeleteContactSubmission removes a message from the admin inbox.
func DeleteContactSubmission(ctx context.Context, s *kv.Store, id string) error {
	if err := s.Delete(ctx, itemKey(submissionsPrefix, id)); err != nil {
		return fmt.Errorf("deleting contact submission: %w", err)
	}
	return nil
}

// SavePendingContact stores a new pending contact that expires after ttl.
func SavePendingContact(ctx context.Context, s *kv.Store, p model.PendingContact, ttl time.Duration) error {
	if _, err := s.SetJSONIfVersion(ctx, pendingPrefix+p.Token, p, 0, ttl); err != nil {
		return fmt.Errorf("saving pending contact: %w", err)
	}
	return nil
}

// GetPendingContact returns a live pending contact and its version, or nil
// if the token is unknown or expired.
func GetPendingContact(ctx context.Context, s *kv.Store, token string) (*model.PendingContact, int64, error) {
	p, version, err := getRecord[model.PendingContact](ctx, s, pendingPrefix+token)
	if err != nil {
		return nil, 0, fmt.Errorf("getting pending contact: %w", err)
	}
	return p, version, nil
}

// SavePendingContactIfVersion rewrites a pending contact without changing
// its expiry. It returns kv.ErrConflict if the record changed since version.
func SavePendingContactIfVersion(ctx context.Context, s *kv.Store, p model.PendingContact, version int64) error {
	if _, err := s.SetJSONIfVersion(ctx, pendingPrefix+p.Token, p, version, kv.KeepTTL); err != nil {
		return fmt.Errorf("saving pending contact: %w", err)
	}
	return nil
}

// DeletePendingContact removes an unconfirmed contact request.
func DeletePendingContact(ctx context.Context, s *kv.Store, token string) error {
	if err := s.Delete(ctx, pendingPrefix+token); err != nil {
		return fmt.Errorf("deleting pending contact: %w", err)
	}
	return nil
}
