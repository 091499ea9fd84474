package naming

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	trailingParenRegex = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
	romanNumeralRegex  = regexp.MustCompile(`^M{0,4}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)
	seriesMarkerRegex  = regexp.MustCompile(`^[A-Za-z]?\d+[A-Za-z]?$`)
)

// Club-type abbreviations that are part of the club name and must survive normalization.
var protectedAbbreviations = map[string]struct{}{
	"CC": {},
	"GC": {},
	"RC": {},
	"PC": {},
	"TC": {},
	"AC": {},
}

// NormalizeClubName canonicalizes a scraped club or team string to its club name.
//
// Rules apply in a fixed order: keep the part before " - ", drop a trailing
// parenthetical, strip trailing series markers, then clean punctuation and title-case.
func NormalizeClubName(raw string) string {
	value := collapseSpaces(raw)
	if idx := strings.Index(value, separator); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	value = stripTrailingParenthetical(value)

	words := stripSuffixTokens(strings.Fields(value))
	cleaned := make([]string, 0, len(words))
	for _, word := range strings.Fields(removePunctuation(strings.Join(words, " "))) {
		cleaned = append(cleaned, titleWord(word))
	}
	return strings.Join(cleaned, " ")
}

func stripSuffixTokens(words []string) []string {
	for len(words) > 1 {
		last := strings.Trim(words[len(words)-1], ".,;:")
		if isProtected(last) {
			break
		}
		if !isSuffixToken(last) {
			break
		}
		words = words[:len(words)-1]
	}
	return words
}

func isSuffixToken(token string) bool {
	if token == "" {
		return true
	}
	if isUpper(token) && romanNumeralRegex.MatchString(token) {
		return true
	}
	if seriesMarkerRegex.MatchString(token) {
		return true
	}
	return len(token) <= 3 && isUpper(token) && isLetters(token)
}

func isProtected(token string) bool {
	_, ok := protectedAbbreviations[strings.ToUpper(token)]
	return ok && isUpper(token)
}

func removePunctuation(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '&':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '/':
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func titleWord(word string) string {
	upper := strings.ToUpper(word)
	if _, ok := protectedAbbreviations[upper]; ok {
		return upper
	}
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func stripTrailingParenthetical(value string) string {
	return strings.TrimSpace(trailingParenRegex.ReplaceAllString(value, ""))
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func isUpper(value string) bool {
	hasLetter := false
	for _, r := range value {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isLetters(value string) bool {
	for _, r := range value {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return value != ""
}

// MatchKey lower-cases and strips punctuation so two surface forms can be compared loosely.
func MatchKey(value string) string {
	return strings.ToLower(collapseSpaces(removePunctuation(value)))
}
