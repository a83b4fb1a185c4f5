package model

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
)

// LocalizedText is a settings string with a copy per locale. It decodes
// from either an object or a plain string, which fills both slots.
type LocalizedText struct {
	HR string `json:"hr"`
	EN string `json:"en"`
}

// UnmarshalJSON accepts either a {"hr","en"} object or a plain string,
// which is used for both locales.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.HR, t.EN = s, s
		return nil
	}
	type plain LocalizedText
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("localized text: %w", err)
	}
	*t = LocalizedText(p)
	return nil
}

// Get returns the text for l.
func (t LocalizedText) Get(l Locale) string {
	if l == LocaleEN {
		return t.EN
	}
	return t.HR
}

// fill copies whichever slot is set into an empty one.
func (t *LocalizedText) fill() {
	if t.HR == "" {
		t.HR = t.EN
	}
	if t.EN == "" {
		t.EN = t.HR
	}
}

// BusinessHours holds opening hours as display strings.
type BusinessHours struct {
	Monday    string `json:"monday" default:"9:00 AM - 5:00 PM"`
	Tuesday   string `json:"tuesday" default:"9:00 AM - 5:00 PM"`
	Wednesday string `json:"wednesday" default:"9:00 AM - 5:00 PM"`
	Thursday  string `json:"thursday" default:"9:00 AM - 5:00 PM"`
	Friday    string `json:"friday" default:"9:00 AM - 5:00 PM"`
	Saturday  string `json:"saturday" default:"10:00 AM - 3:00 PM"`
	Sunday    string `json:"sunday" default:"Closed"`
}

// Settings is the site-wide configuration edited by the studio.
type Settings struct {
	SiteName      string        `json:"siteName" default:"Pottery Studio"`
	Tagline       LocalizedText `json:"tagline" default:"{\"hr\":\"Ručno Izrađena Keramika s Ljubavlju\",\"en\":\"Handcrafted Pottery with Love\"}"`
	AboutText     LocalizedText `json:"aboutText"`
	ContactEmail  string        `json:"contactEmail" default:"contact@potterystudio.com"`
	ContactPhone  string        `json:"contactPhone" default:"+1 (555) 123-4567"`
	StudioAddress string        `json:"studioAddress" default:"123 Pottery Lane, Artisan Quarter, Creative City, CC 12345"`
	InstagramURL  string        `json:"instagramUrl"`
	FacebookURL   string        `json:"facebookUrl"`
	TwitterURL    string        `json:"twitterUrl"`
	BusinessHours BusinessHours `json:"businessHours"`
}

// DefaultSettings returns the settings used before the studio saves any.
func DefaultSettings() Settings {
	var s Settings
	setDefaults(&s)
	return s
}

// Public returns a copy in which tagline and about text carry both locales.
func (s Settings) Public() Settings {
	if s.Tagline == (LocalizedText{}) {
		s.Tagline = DefaultSettings().Tagline
	}
	s.Tagline.fill()
	s.AboutText.fill()
	return s
}

// Validate checks the fields an admin may break.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.SiteName) == "" {
		return invalid("siteName", "is required")
	}
	if s.ContactEmail != "" {
		if _, err := mail.ParseAddress(s.ContactEmail); err != nil {
			return invalid("contactEmail", "is not a valid email address")
		}
	}
	return nil
}
