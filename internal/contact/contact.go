// Package contact implements the double opt-in contact form: a visitor's
// message is held under a random token until they click the link emailed to
// them, and only then reaches the studio.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/erazemk/keramika/internal/jobs"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/mail"
	"github.com/erazemk/keramika/internal/model"
	"github.com/erazemk/keramika/internal/store"
)

var (
	// ErrInvalid wraps every validation failure of a Request.
	ErrInvalid = errors.New("invalid contact request")
	// ErrInvalidToken is returned for unknown or expired confirmation tokens.
	ErrInvalidToken = errors.New("link expired or invalid")
	// ErrDelivery is returned when the confirmation email could not be sent.
	ErrDelivery = errors.New("failed to send confirmation email")
)

// DefaultTTL is how long a confirmation link stays valid.
const DefaultTTL = 24 * time.Hour

// DefaultSendTimeout bounds the confirmation email sent during Submit.
const DefaultSendTimeout = 30 * time.Second

const maxConfirmAttempts = 3

// MaxMessageLength caps the message in runes.
const MaxMessageLength = 5000

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Request is a contact form submission.
type Request struct {
	Name        string       `json:"name" schema:"name"`
	Email       string       `json:"email" schema:"email"`
	Message     string       `json:"message" schema:"message"`
	ProductName string       `json:"productName" schema:"productName"`
	ProductID   string       `json:"productId" schema:"productId"`
	Locale      model.Locale `json:"locale" schema:"locale"`
}

// Validate trims the request and checks required fields.
func (r *Request) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)

	if r.Name == "" || r.Email == "" || r.Message == "" {
		return fmt.Errorf("%w: all fields are required", ErrInvalid)
	}
	if !emailPattern.MatchString(r.Email) {
		return fmt.Errorf("%w: invalid email address", ErrInvalid)
	}
	if utf8.RuneCountInString(r.Message) > MaxMessageLength {
		return fmt.Errorf("%w: message is too long", ErrInvalid)
	}
	return nil
}

// Service runs the confirmation flow.
type Service struct {
	KV   *kv.Store
	Mail mail.Sender
	Jobs jobs.Dispatcher

	// BaseURL is the public site root used to build confirmation links.
	BaseURL string
	// StudioEmail receives confirmed messages.
	StudioEmail string
	TTL         time.Duration
	SendTimeout time.Duration

	NewToken func() string
}

// NewService returns a service with the default TTL and UUID tokens.
func NewService(s *kv.Store, sender mail.Sender, d jobs.Dispatcher, baseURL, studioEmail string) *Service {
	return &Service{
		KV:          s,
		Mail:        sender,
		Jobs:        d,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		StudioEmail: studioEmail,
		TTL:         DefaultTTL,
		SendTimeout: DefaultSendTimeout,
		NewToken:    uuid.NewString,
	}
}

// ConfirmationURL returns the link a visitor clicks to confirm token.
func (s *Service) ConfirmationURL(locale model.Locale, token string) string {
	return fmt.Sprintf("%s/%s/confirm-contact/%s", s.BaseURL, locale, token)
}

// Submit stores req as pending and emails the visitor a confirmation link.
// If the email cannot be sent the pending record is removed again.
func (s *Service) Submit(ctx context.Context, req Request) (*model.PendingContact, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	locale, _ := model.ParseLocale(string(req.Locale))

	now := s.KV.Now().UTC()
	p := model.PendingContact{
		Token:       s.NewToken(),
		Name:        req.Name,
		Email:       req.Email,
		Message:     req.Message,
		ProductName: req.ProductName,
		ProductID:   req.ProductID,
		Locale:      locale,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.TTL),
	}
	if err := store.SavePendingContact(ctx, s.KV, p, s.TTL); err != nil {
		return nil, err
	}

	msg, err := mail.ConfirmationMessage(p.Email, mail.Confirmation{
		Name:        p.Name,
		ProductName: p.ProductName,
		URL:         s.ConfirmationURL(locale, p.Token),
		SiteName:    s.siteName(ctx),
		Locale:      locale,
	})
	if err == nil {
		err = s.send(ctx, msg)
	}
	if err != nil {
		if delErr := store.DeletePendingContact(context.WithoutCancel(ctx), s.KV, p.Token); delErr != nil {
			slog.Error("failed to remove pending contact", "error", delErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return &p, nil
}

// Confirm marks the pending contact for token as confirmed, files it in the
// admin inbox and queues the studio notification. Confirming twice succeeds
// without notifying again.
func (s *Service) Confirm(ctx context.Context, token string) (*model.PendingContact, error) {
	for attempt := 0; attempt < maxConfirmAttempts; attempt++ {
		p, version, err := store.GetPendingContact(ctx, s.KV, token)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrInvalidToken
		}
		if p.Confirmed {
			return p, nil
		}

		now := s.KV.Now().UTC()
		sub := p.Submission(now)
		if _, err := store.AddContactSubmission(ctx, s.KV, sub); err != nil {
			return nil, err
		}

		p.Confirmed = true
		p.ConfirmedAt = &now
		err = store.SavePendingContactIfVersion(ctx, s.KV, *p, version)
		if errors.Is(err, kv.ErrConflict) {
			// Someone else confirmed first; the next read returns early.
			continue
		}
		if err != nil {
			return nil, err
		}

		s.notify(sub)
		return p, nil
	}
	return nil, fmt.Errorf("confirming contact: %w", kv.ErrConflict)
}

func (s *Service) send(ctx context.Context, msg mail.Message) error {
	if s.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.SendTimeout)
		defer cancel()
	}
	return s.Mail.Send(ctx, msg)
}

// siteName returns the current site name from settings, or "" when they
// cannot be read.
func (s *Service) siteName(ctx context.Context) string {
	settings, _, err := store.GetSettings(ctx, s.KV)
	if err != nil {
		slog.Warn("failed to read settings for confirmation email", "error", err)
		return ""
	}
	return settings.SiteName
}

func (s *Service) notify(sub model.ContactSubmission) {
	if s.StudioEmail == "" {
		slog.Warn("no studio email configured, skipping contact notification", "id", sub.ID)
		return
	}
	s.Jobs.Dispatch("contact-notification", func(ctx context.Context) error {
		msg, err := mail.NotificationMessage(s.StudioEmail, mail.Notification{
			Name:        sub.Name,
			Email:       sub.Email,
			Message:     sub.Message,
			ProductName: sub.ProductName,
			ProductID:   sub.ProductID,
			SubmittedAt: sub.SubmittedAt,
		})
		if err != nil {
			return err
		}
		return s.Mail.Send(ctx, msg)
	})
}
