package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageCode identifies one member of the supported language set.
type LanguageCode string

// Product languages. The catalog is always edited in exactly these two.
const (
	LanguageEnglish  LanguageCode = "en"
	LanguageGeorgian LanguageCode = "ka"
)

// DefaultLanguages is the ordered language set used when nothing is configured.
var DefaultLanguages = []LanguageCode{LanguageEnglish, LanguageGeorgian}

// String implements fmt.Stringer.
func (c LanguageCode) String() string {
	return string(c)
}

// Name returns the English display name of the language ("Georgian" for "ka").
// Falls back to the raw code when the tag is unknown.
func (c LanguageCode) Name() string {
	tag, err := language.Parse(string(c))
	if err != nil {
		return string(c)
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return string(c)
	}
	return name
}

// ParseLanguages parses a comma separated list such as "en,ka".
// Codes are validated as BCP 47 base languages, lowercased and de-duplicated
// while keeping their order.
func ParseLanguages(raw string) ([]LanguageCode, error) {
	var codes []LanguageCode
	seen := make(map[LanguageCode]bool)

	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag, err := language.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", part, err)
		}
		base, _ := tag.Base()
		code := LanguageCode(strings.ToLower(base.String()))
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}

	if len(codes) == 0 {
		return nil, fmt.Errorf("language list is empty")
	}
	return codes, nil
}
