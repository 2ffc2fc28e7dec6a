package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a supported UI language. The zero value means "not chosen yet".
type Language string

const (
	Ukrainian Language = "ua"
	English   Language = "en"
)

// Default is used for rendering until a chat picks a language.
const Default = Ukrainian

var Supported = []Language{Ukrainian, English}

var (
	ukBase, _ = language.Ukrainian.Base()
	enBase, _ = language.English.Base()
)

func (l Language) Valid() bool {
	return l == Ukrainian || l == English
}

// OrDefault returns l, or Default when l is unset or unknown.
func (l Language) OrDefault() Language {
	if l.Valid() {
		return l
	}
	return Default
}

// Parse accepts the stored codes as well as BCP 47 tags ("uk", "en-GB").
func Parse(s string) (Language, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if l := Language(s); l.Valid() {
		return l, true
	}
	return FromLocale(s)
}

// FromLocale maps a client locale tag such as Discord's "uk" or "en-US".
func FromLocale(tag string) (Language, bool) {
	if tag == "" {
		return "", false
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", false
	}
	base, _ := t.Base()
	switch base {
	case ukBase:
		return Ukrainian, true
	case enBase:
		return English, true
	}
	return "", false
}
