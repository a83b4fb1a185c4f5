package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/erazemk/keramika/internal/model"
)

//go:embed templates
var templatesFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/*.txt"))
)

type confirmationCopy struct {
	Subject  string
	Greeting string
	Intro    string
	Product  string
	Button   string
	Expiry   string
	Ignore   string
}

var confirmationCopies = map[model.Locale]confirmationCopy{
	model.LocaleHR: {
		Subject:  "Potvrdite svoju poruku",
		Greeting: "Pozdrav",
		Intro:    "hvala na poruci. Kliknite na poveznicu ispod kako biste potvrdili da ste je poslali vi.",
		Product:  "Proizvod",
		Button:   "Potvrdi poruku",
		Expiry:   "Poveznica vrijedi 24 sata.",
		Ignore:   "Ako niste poslali ovu poruku, slobodno zanemarite ovaj email.",
	},
	model.LocaleEN: {
		Subject:  "Confirm your message",
		Greeting: "Hello",
		Intro:    "thank you for your message. Click the link below to confirm that you sent it.",
		Product:  "Product",
		Button:   "Confirm message",
		Expiry:   "The link is valid for 24 hours.",
		Ignore:   "If you did not send this message, you can ignore this email.",
	},
}

// Confirmation holds the data of a contact confirmation email.
type Confirmation struct {
	Name        string
	ProductName string
	URL         string
	SiteName    string
	Locale      model.Locale
}

// ConfirmationMessage renders the email asking a visitor to confirm their
// contact request.
func ConfirmationMessage(to string, c Confirmation) (Message, error) {
	words, ok := confirmationCopies[c.Locale]
	if !ok {
		words = confirmationCopies[model.DefaultLocale]
	}
	data := struct {
		Confirmation
		Copy confirmationCopy
	}{c, words}

	text, html, err := render("confirmation", data)
	if err != nil {
		return Message{}, err
	}
	subject := words.Subject
	if c.SiteName != "" {
		subject += " | " + c.SiteName
	}
	return Message{To: []string{to}, Subject: subject, Text: text, HTML: html}, nil
}

// Notification holds a confirmed contact request for the studio.
type Notification struct {
	Name        string
	Email       string
	Message     string
	ProductName string
	ProductID   string
	SubmittedAt time.Time
}

// NotificationMessage renders the email telling the studio about a
// confirmed contact request. Replies go straight to the visitor.
func NotificationMessage(to string, n Notification) (Message, error) {
	text, html, err := render("notification", n)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		ReplyTo: n.Email,
		Subject: "New Contact Form Submission from " + n.Name,
		Text:    text,
		HTML:    html,
	}, nil
}

func render(name string, data any) (string, string, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return "", "", fmt.Errorf("rendering %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return "", "", fmt.Errorf("rendering %s html: %w", name, err)
	}
	return text.String(), html.String(), nil
}
