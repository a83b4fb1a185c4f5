package api

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/erazemk/keramika/internal/model"
)

// supportedTags is indexed in step with supportedLocales.
var (
	supportedTags    = []language.Tag{language.Croatian, language.English}
	supportedLocales = []model.Locale{model.LocaleHR, model.LocaleEN}
	localeMatcher    = language.NewMatcher(supportedTags)
)

// requestLocale picks the response locale: the locale query parameter,
// then Accept-Language, then Croatian.
func requestLocale(r *http.Request) model.Locale {
	if q := r.URL.Query().Get("locale"); q != "" {
		l, _ := model.ParseLocale(q)
		return l
	}
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return model.DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return model.DefaultLocale
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return model.DefaultLocale
	}
	return supportedLocales[idx]
}
