package compose

import (
	"regexp"
	"strings"
)

var (
	markupRe  = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`\s+`)
	newlineRe = regexp.MustCompile(`[\r\n]+`)
)

// StripMarkup reduces an HTML body to its visible text: tags become spaces,
// runs of whitespace collapse to one.
func StripMarkup(html string) string {
	text := markupRe.ReplaceAllString(html, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// deriveSubject takes the first maxLen characters of the source body,
// collapses embedded newlines and trims the result. An empty result is
// replaced with the fallback subject.
func deriveSubject(source string, maxLen int) string {
	runes := []rune(source)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	subject := strings.TrimSpace(newlineRe.ReplaceAllString(string(runes), " "))
	if subject == "" {
		return fallbackSubject
	}
	return subject
}
