// Package translate machine-translates Croatian content into English.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/erazemk/keramika/internal/model"
)

// DefaultBaseURL is the public MyMemory endpoint.
const DefaultBaseURL = "https://api.mymemory.translated.net"

// ErrRejected is returned when the service answers but refuses to translate.
// Retrying will not help.
var ErrRejected = errors.New("translation rejected")

const maxResponseBytes = 1 << 20

var tracer = otel.Tracer("github.com/erazemk/keramika/internal/translate")

// Translator translates text between locales.
type Translator interface {
	Translate(ctx context.Context, text string, from, to model.Locale) (string, error)
}

// Client calls the MyMemory translation API.
type Client struct {
	BaseURL string
	// Email raises the anonymous daily quota when set.
	Email string
	HTTP  *http.Client
}

// NewClient returns a client with a 10 second timeout.
func NewClient(baseURL, email string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Email:   email,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Translate returns text in the target locale. Blank text translates to the
// empty string without a request.
func (c *Client) Translate(ctx context.Context, text string, from, to model.Locale) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	ctx, span := tracer.Start(ctx, "translate")
	defer span.End()
	span.SetAttributes(
		attribute.String("translate.langpair", string(from)+"|"+string(to)),
		attribute.Int("translate.length", len(text)),
	)

	out, err := c.do(ctx, text, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (c *Client) do(ctx context.Context, text string, from, to model.Locale) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", string(from)+"|"+string(to))
	if c.Email != "" {
		q.Set("de", c.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building translation request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling translation service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading translation response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("translation service returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: http status %d", ErrRejected, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("translation service returned invalid json")
	}
	if status := gjson.GetBytes(body, "responseStatus").Int(); status != http.StatusOK {
		return "", fmt.Errorf("%w: response status %d: %s", ErrRejected, status,
			gjson.GetBytes(body, "responseDetails").String())
	}

	translated := gjson.GetBytes(body, "responseData.translatedText")
	if !translated.Exists() {
		return "", fmt.Errorf("%w: missing translated text", ErrRejected)
	}
	return translated.String(), nil
}
