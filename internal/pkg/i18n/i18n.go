// Package i18n holds the user-facing strings in Japanese and English.
package i18n

import (
	"errors"
	"strings"

	"github.com/ougirez/ricech4/internal/pkg/constants"
	"golang.org/x/text/language"
)

type Lang string

const (
	Japanese Lang = "ja"
	English  Lang = "en"

	Default = Japanese
)

var (
	supported = []Lang{Japanese, English}
	matcher   = language.NewMatcher([]language.Tag{language.Japanese, language.English})
)

func Supported() []Lang {
	out := make([]Lang, len(supported))
	copy(out, supported)
	return out
}

// Parse accepts an exact supported language code.
func Parse(s string) (Lang, bool) {
	l := Lang(strings.ToLower(strings.TrimSpace(s)))
	for _, sl := range supported {
		if l == sl {
			return l, true
		}
	}
	return "", false
}

// Match picks the best supported language for an Accept-Language header,
// falling back to Default.
func Match(acceptLanguage string) Lang {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return supported[idx]
}

// T returns the message for key with {name} placeholders replaced from the
// name/value pairs in kv. Unknown keys render as "[lang:key]".
func T(lang Lang, key string, kv ...string) string {
	msg, ok := catalog[lang][key]
	if !ok {
		return "[" + string(lang) + ":" + key + "]"
	}
	if len(kv) < 2 {
		return msg
	}

	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var errorKeys = []struct {
	err error
	key string
}{
	{constants.ErrInvalidInput, KeyErrInvalidInput},
	{constants.ErrUnsupportedPrefecture, KeyErrUnsupportedPrefecture},
	{constants.ErrMissingCoefficient, KeyErrMissingCoefficient},
	{constants.ErrSessionNotFound, KeyErrSessionNotFound},
	{constants.ErrCellNotFound, KeyErrCellNotFound},
	{constants.ErrNoAreaSelected, KeyNoSelection},
	{constants.ErrGridUnavailable, KeyErrGridUnavailable},
	{constants.ErrDBNotFound, KeyErrNotFound},
}

// ErrorKey maps an error to its catalog key, KeyErrInternal when unknown.
func ErrorKey(err error) string {
	for _, ek := range errorKeys {
		if errors.Is(err, ek.err) {
			return ek.key
		}
	}
	return KeyErrInternal
}

// Messages returns a copy of the catalog for lang, nil when unsupported.
func Messages(lang Lang) map[string]string {
	src, ok := catalog[lang]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
