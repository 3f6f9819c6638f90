package httpapi

import (
	"net/http"
	"strings"

	"storefront/catnav/internal/domain"

	"golang.org/x/text/language"
)

// Base languages written right to left.
var rtlBases = map[string]struct{}{
	"ar": {}, "he": {}, "fa": {}, "ur": {},
	"ps": {}, "sd": {}, "ug": {}, "yi": {},
}

// DirectionFromRequest resolves the text direction of a request: an
// explicit ?dir wins, then the ?hl locale, then Accept-Language.
func DirectionFromRequest(r *http.Request) domain.Direction {
	q := r.URL.Query()
	if dir := q.Get("dir"); dir != "" {
		return domain.ParseDirection(strings.ToLower(dir))
	}
	if hl := q.Get("hl"); hl != "" {
		return DirectionOfLocale(hl)
	}

	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return domain.DirectionLTR
	}
	return directionOfTag(tags[0])
}

// DirectionOfLocale maps a BCP 47 locale such as "ar-EG" to its direction.
// Unparseable locales are left-to-right.
func DirectionOfLocale(locale string) domain.Direction {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return domain.DirectionLTR
	}
	return directionOfTag(tag)
}

func directionOfTag(tag language.Tag) domain.Direction {
	base, _ := tag.Base()
	if _, ok := rtlBases[base.String()]; ok {
		return domain.DirectionRTL
	}
	return domain.DirectionLTR
}
