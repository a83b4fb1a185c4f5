package translate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/erazemk/keramika/internal/jobs"
	"github.com/erazemk/keramika/internal/model"
)

// ApplyFunc stores finished translations for one entity.
type ApplyFunc func(ctx context.Context, texts []model.TranslatedText) error

// Pipeline translates changed Croatian fields after they have been saved.
// The English slot already holds the Croatian text as a fallback, so a
// translation that never succeeds leaves the entity readable.
type Pipeline struct {
	translator Translator
	jobs       jobs.Dispatcher

	// MaxTries bounds calls per field, including the first.
	MaxTries uint
	// InitialInterval is the first backoff delay between tries.
	InitialInterval time.Duration
}

// NewPipeline returns a pipeline that runs translations on d.
func NewPipeline(t Translator, d jobs.Dispatcher) *Pipeline {
	return &Pipeline{
		translator:      t,
		jobs:            d,
		MaxTries:        3,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Schedule dispatches a job translating changes and passing the results to
// apply. Fields that could not be translated keep their fallback text.
func (p *Pipeline) Schedule(name string, changes []model.TextChange, apply ApplyFunc) {
	if len(changes) == 0 {
		return
	}
	p.jobs.Dispatch(name, func(ctx context.Context) error {
		texts := p.translateAll(ctx, name, changes)
		if len(texts) == 0 {
			return nil
		}
		return apply(ctx, texts)
	})
}

func (p *Pipeline) translateAll(ctx context.Context, name string, changes []model.TextChange) []model.TranslatedText {
	var texts []model.TranslatedText
	for _, c := range changes {
		out, err := p.translate(ctx, c.Source)
		if err != nil {
			slog.Warn("translation failed, keeping original text",
				"job", name, "field", c.Field, "error", err)
			continue
		}
		texts = append(texts, model.TranslatedText{Field: c.Field, Source: c.Source, Text: out})
	}
	return texts
}

func (p *Pipeline) translate(ctx context.Context, text string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval

	return backoff.Retry(ctx, func() (string, error) {
		out, err := p.translator.Translate(ctx, text, model.LocaleHR, model.LocaleEN)
		if errors.Is(err, ErrRejected) {
			return "", backoff.Permanent(err)
		}
		return out, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(p.MaxTries))
}
