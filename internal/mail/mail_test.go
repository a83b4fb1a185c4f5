package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/keramika/internal/model"
)

func TestComposeMultipart(t *testing.T) {
	m := Message{
		To:      []string{"ana@example.com"},
		ReplyTo: "studio@example.com",
		Subject: "Potvrdite svoju poruku",
		Text:    "Pozdrav Ana",
		HTML:    "<p>Pozdrav Ana</p>",
	}
	raw, err := compose("Keramika <noreply@example.com>", m, time.Now())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if got := msg.Header.Get("Reply-To"); got != "studio@example.com" {
		t.Errorf("unexpected Reply-To %q", got)
	}
	subject, _ := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	if subject != m.Subject {
		t.Errorf("unexpected subject %q", subject)
	}
	if !strings.HasSuffix(msg.Header.Get("Message-ID"), "@example.com>") {
		t.Errorf("unexpected Message-ID %q", msg.Header.Get("Message-ID"))
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/alternative" {
		t.Fatalf("unexpected content type %q: %v", mediaType, err)
	}
	mr := multipart.NewReader(msg.Body, params["boundary"])
	var types []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		types = append(types, p.Header.Get("Content-Type"))
	}
	if len(types) != 2 || !strings.HasPrefix(types[0], "text/plain") || !strings.HasPrefix(types[1], "text/html") {
		t.Errorf("unexpected parts %v", types)
	}
}

func TestComposePlain(t *testing.T) {
	raw, err := compose("noreply@example.com", Message{To: []string{"a@example.com"}, Subject: "Hi", Text: "body"}, time.Now())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	msg, _ := mail.ReadMessage(bytes.NewReader(raw))
	body, _ := io.ReadAll(msg.Body)
	if string(body) != "body" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestConfirmationMessageLocales(t *testing.T) {
	tests := []struct {
		locale  model.Locale
		subject string
		word    string
	}{
		{model.LocaleHR, "Potvrdite svoju poruku", "Pozdrav"},
		{model.LocaleEN, "Confirm your message", "Hello"},
		{"", "Potvrdite svoju poruku", "Pozdrav"},
	}
	for _, tt := range tests {
		m, err := ConfirmationMessage("ana@example.com", Confirmation{
			Name:        "Ana",
			ProductName: "Vrč",
			URL:         "https://example.com/hr/confirm-contact/abc",
			Locale:      tt.locale,
		})
		if err != nil {
			t.Fatalf("ConfirmationMessage(%q): %v", tt.locale, err)
		}
		if m.Subject != tt.subject {
			t.Errorf("locale %q: subject %q, want %q", tt.locale, m.Subject, tt.subject)
		}
		if !strings.Contains(m.Text, tt.word+" Ana") || !strings.Contains(m.Text, "Vrč") {
			t.Errorf("locale %q: unexpected text %q", tt.locale, m.Text)
		}
		if !strings.Contains(m.HTML, "https://example.com/hr/confirm-contact/abc") {
			t.Errorf("locale %q: html missing link", tt.locale)
		}
	}
}

func TestNotificationEscapesHTML(t *testing.T) {
	m, err := NotificationMessage("studio@example.com", Notification{
		Name:        "Ana",
		Email:       "ana@example.com",
		Message:     "<script>alert(1)</script>",
		SubmittedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("NotificationMessage: %v", err)
	}
	if m.ReplyTo != "ana@example.com" {
		t.Errorf("expected reply-to visitor, got %q", m.ReplyTo)
	}
	if strings.Contains(m.HTML, "<script>") {
		t.Error("expected message to be escaped in html")
	}
	if !strings.Contains(m.Text, "<script>alert(1)</script>") {
		t.Error("expected raw message in text body")
	}
}

func TestEnvelopeAddress(t *testing.T) {
	if got := envelopeAddress("Keramika <noreply@example.com>"); got != "noreply@example.com" {
		t.Errorf("unexpected address %q", got)
	}
	if got := envelopeAddress("noreply@example.com"); got != "noreply@example.com" {
		t.Errorf("unexpected address %q", got)
	}
}

func TestSMTPSendHonorsContext(t *testing.T) {
	// A relay that accepts connections but never sends its greeting.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	s := &SMTP{Addr: ln.Addr().String(), From: "studio@example.com"}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.Send(ctx, Message{To: []string{"ana@example.com"}, Subject: "Bok", Text: "x"})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Send still blocked after the context deadline")
	}
}

func TestSMTPSendCanceledContext(t *testing.T) {
	s := &SMTP{Addr: "127.0.0.1:1", From: "studio@example.com"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, Message{To: []string{"ana@example.com"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled, got %v", err)
	}
}
