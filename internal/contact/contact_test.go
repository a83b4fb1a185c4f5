package contact

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/keramika/internal/db"
	"github.com/erazemk/keramika/internal/jobs"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/mail"
	"github.com/erazemk/keramika/internal/model"
	"github.com/erazemk/keramika/internal/store"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func newTestService(t *testing.T, sender mail.Sender) (*Service, *kv.Store) {
	t.Helper()
	s := kv.New(db.NewTestDB(t))
	svc := NewService(s, sender, jobs.Inline{}, "https://keramika.example/", "studio@keramika.example")
	svc.NewToken = func() string { return "tok-1" }
	return svc, s
}

func validRequest() Request {
	return Request{Name: "Ana", Email: "ana@example.com", Message: "Zanima me vrč.", ProductName: "Vrč", Locale: model.LocaleEN}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", validRequest(), false},
		{"missing name", Request{Email: "a@b.hr", Message: "x"}, true},
		{"missing message", Request{Name: "Ana", Email: "a@b.hr", Message: "  "}, true},
		{"bad email", Request{Name: "Ana", Email: "ana@example", Message: "x"}, true},
		{"space in email", Request{Name: "Ana", Email: "a na@example.com", Message: "x"}, true},
		{"too long", Request{Name: "Ana", Email: "a@b.hr", Message: strings.Repeat("a", MaxMessageLength+1)}, true},
	}
	for _, tt := range tests {
		err := tt.req.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestSubmitStoresPendingAndSendsLink(t *testing.T) {
	sender := &fakeSender{}
	svc, s := newTestService(t, sender)
	ctx := context.Background()

	p, err := svc.Submit(ctx, validRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := p.ExpiresAt.Sub(p.CreatedAt); got != 24*time.Hour {
		t.Errorf("expected 24h expiry, got %s", got)
	}

	stored, _, _ := store.GetPendingContact(ctx, s, "tok-1")
	if stored == nil || stored.Confirmed {
		t.Fatalf("expected unconfirmed pending contact, got %+v", stored)
	}

	e, _ := s.Get(ctx, "contact:tok-1")
	if d := e.ExpiresAt.Sub(time.Now()); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("expected kv expiry about 24h out, got %s", d)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Text, "https://keramika.example/en/confirm-contact/tok-1") {
		t.Errorf("expected confirmation link in email, got %q", sender.sent[0].Text)
	}
	if sender.sent[0].To[0] != "ana@example.com" {
		t.Errorf("expected email to visitor, got %v", sender.sent[0].To)
	}
}

func TestSubmitSendFailureRemovesPending(t *testing.T) {
	svc, s := newTestService(t, &fakeSender{err: errors.New("smtp down")})
	ctx := context.Background()

	_, err := svc.Submit(ctx, validRequest())
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	p, _, _ := store.GetPendingContact(ctx, s, "tok-1")
	if p != nil {
		t.Error("expected pending contact removed after send failure")
	}
}

// blockingSender waits for the context to end, like a relay that never answers.
type blockingSender struct{}

func (blockingSender) Send(ctx context.Context, _ mail.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSubmitBoundsSend(t *testing.T) {
	svc, s := newTestService(t, blockingSender{})
	svc.SendTimeout = 50 * time.Millisecond
	ctx := context.Background()

	start := time.Now()
	_, err := svc.Submit(ctx, validRequest())
	if !errors.Is(err, ErrDelivery) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected delivery deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Submit took %v", elapsed)
	}
	if p, _, _ := store.GetPendingContact(ctx, s, "tok-1"); p != nil {
		t.Error("expected pending contact removed after timeout")
	}
}

func TestSubmitUsesCurrentSiteName(t *testing.T) {
	sender := &fakeSender{}
	svc, s := newTestService(t, sender)
	ctx := context.Background()

	if _, err := store.UpdateSettings(ctx, s, func(st *model.Settings) error {
		st.SiteName = "Keramika Iva"
		return nil
	}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if _, err := svc.Submit(ctx, validRequest()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := sender.sent[0].Subject; !strings.HasSuffix(got, " | Keramika Iva") {
		t.Errorf("expected current site name in subject, got %q", got)
	}
}

func TestConfirm(t *testing.T) {
	sender := &fakeSender{}
	svc, s := newTestService(t, sender)
	ctx := context.Background()

	svc.Submit(ctx, validRequest())

	p, err := svc.Confirm(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !p.Confirmed || p.ConfirmedAt == nil {
		t.Errorf("expected confirmed contact, got %+v", p)
	}

	subs, _ := store.ListContactSubmissions(ctx, s)
	if len(subs) != 1 || subs[0].ID != "tok-1" || subs[0].ProductName != "Vrč" {
		t.Errorf("expected submission in inbox, got %+v", subs)
	}

	// Confirmation email plus studio notification.
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	note := sender.sent[1]
	if note.To[0] != "studio@keramika.example" || note.ReplyTo != "ana@example.com" {
		t.Errorf("unexpected notification %+v", note)
	}

	// Confirming again succeeds without another notification.
	if _, err := svc.Confirm(ctx, "tok-1"); err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Errorf("expected no second notification, got %d emails", len(sender.sent))
	}
}

func TestConfirmKeepsExpiry(t *testing.T) {
	svc, s := newTestService(t, &fakeSender{})
	ctx := context.Background()
	now := time.Now()
	s.SetClock(func() time.Time { return now })

	svc.Submit(ctx, validRequest())
	now = now.Add(time.Hour)
	svc.Confirm(ctx, "tok-1")

	now = now.Add(24 * time.Hour)
	if _, err := svc.Confirm(ctx, "tok-1"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected token expired 24h after submit, got %v", err)
	}
}

func TestConfirmUnknownToken(t *testing.T) {
	svc, _ := newTestService(t, &fakeSender{})
	if _, err := svc.Confirm(context.Background(), "nope"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestConfirmNotificationFailureStillConfirms(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newTestService(t, sender)
	ctx := context.Background()

	svc.Submit(ctx, validRequest())
	sender.err = errors.New("smtp down")

	p, err := svc.Confirm(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !p.Confirmed {
		t.Error("expected confirmation despite notification failure")
	}
}
