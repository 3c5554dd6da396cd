package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// DefaultLocale is both the initial locale and the universal fallback.
const DefaultLocale = "en"

// Language is one entry of the language selector.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Available lists the selectable languages, English first.
var Available = []Language{
	{"en", "English"},
	{"ar", "العربية"},
	{"de", "Deutsch"},
	{"es", "Español"},
	{"fr", "Français"},
	{"hi", "हिन्दी"},
	{"it", "Italiano"},
	{"ja", "日本語"},
	{"ko", "한국어"},
	{"nl", "Nederlands"},
	{"ps", "پښتو"},
	{"ru", "Русский"},
	{"so", "Soomaali"},
	{"sw", "Kiswahili"},
	{"ta", "தமிழ்"},
	{"th", "ไทย"},
	{"ur", "اردو"},
	{"zh", "中文"},
	{"pt", "Português"},
	{"ee", "Ewe"},
	{"wo", "Wolof"},
	{"ak", "Twi"},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(Available))
	for _, l := range Available {
		tags = append(tags, language.Make(l.Code))
	}
	return language.NewMatcher(tags)
}()

// Normalize reduces a BCP 47 tag such as "pt-BR" to its base code ("pt").
// It rejects anything that is not a well-formed tag, which also keeps
// codes safe to use in file paths and URLs.
func Normalize(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", code, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// Negotiate picks the best available locale for an Accept-Language header.
func Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	return Available[idx].Code
}

// IsAvailable reports whether code is in the language selector.
func IsAvailable(code string) bool {
	for _, l := range Available {
		if l.Code == code {
			return true
		}
	}
	return false
}
