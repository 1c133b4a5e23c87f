package ai

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxFunFactRunes caps stored fun facts.
const MaxFunFactRunes = 400

var funFactPolicy = bluemonday.StrictPolicy()

// SanitizeFunFact strips markup from model output, collapses whitespace
// and truncates on a word boundary.
func SanitizeFunFact(raw string) string {
	text := html.UnescapeString(funFactPolicy.Sanitize(raw))
	text = strings.NewReplacer("**", "", "__", "", "`", "").Replace(text)
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, `"'`)

	if utf8.RuneCountInString(text) <= MaxFunFactRunes {
		return text
	}
	runes := []rune(text)[:MaxFunFactRunes]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > MaxFunFactRunes/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "…"
}
