package profile

import "golang.org/x/text/language"

// DefaultLanguage is used when neither the caller nor the browser names a
// supported language.
const DefaultLanguage = "en"

var supportedLanguages = []language.Tag{language.English, language.Arabic}

var languageMatcher = language.NewMatcher(supportedLanguages)

// NormalizeLanguage picks a supported base language from an explicit
// preference, falling back to an Accept-Language header, then to English.
func NormalizeLanguage(preferred, acceptLanguage string) string {
	var tags []language.Tag
	if t, err := language.Parse(preferred); err == nil {
		tags = append(tags, t)
	}
	if accepted, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		tags = append(tags, accepted...)
	}
	if lang, ok := matchLanguage(tags...); ok {
		return lang
	}
	return DefaultLanguage
}

// SupportedLanguage reports the supported base language for pref, if any.
func SupportedLanguage(pref string) (string, bool) {
	t, err := language.Parse(pref)
	if err != nil {
		return "", false
	}
	return matchLanguage(t)
}

func matchLanguage(tags ...language.Tag) (string, bool) {
	if len(tags) == 0 {
		return "", false
	}
	_, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	base, _ := supportedLanguages[idx].Base()
	return base.String(), true
}
