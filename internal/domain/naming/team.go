package naming

import (
	"regexp"
	"strings"
	"unicode"
)

const separator = " - "

// Strategy names the rule that produced a ParsedTeam.
type Strategy string

const (
	StrategySeparator      Strategy = "separator"
	StrategyNumericSuffix  Strategy = "numeric_suffix"
	StrategyLetterSuffix   Strategy = "letter_suffix"
	StrategyRepeatedLetter Strategy = "repeated_letter"
	StrategyAlphanumeric   Strategy = "alphanumeric_suffix"
	StrategyWholeName      Strategy = "whole_name"
)

const DefaultSeriesLabel = "Series 1"

var (
	numericSuffixRegex = regexp.MustCompile(`^\d+[A-Za-z]?$`)
	letterSuffixRegex  = regexp.MustCompile(`^[A-Z]$`)
	alnumTokenRegex    = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// ParsedTeam is a composite team string split into its parts.
// Club is not normalized; pass it through NormalizeClubName before lookups.
type ParsedTeam struct {
	Club        string
	SeriesLabel string
	Identifier  string
	Strategy    Strategy
}

// ParseTeamName splits raw into (club, series label, identifier).
//
// Strategies run in a fixed order and the first match wins:
// " - " separator, trailing number with optional letter, trailing single capital,
// trailing repeated letters, trailing alphanumeric token with a digit, whole name.
func ParseTeamName(raw string) ParsedTeam {
	value := collapseSpaces(raw)
	if value == "" {
		return ParsedTeam{Strategy: StrategyWholeName}
	}

	if idx := strings.Index(value, separator); idx >= 0 {
		label := strings.TrimSpace(value[idx+len(separator):])
		return ParsedTeam{
			Club:        strings.TrimSpace(value[:idx]),
			SeriesLabel: label,
			Identifier:  label,
			Strategy:    StrategySeparator,
		}
	}

	value = stripTrailingParenthetical(value)
	words := strings.Fields(value)
	if len(words) >= 2 {
		club := strings.Join(words[:len(words)-1], " ")
		last := words[len(words)-1]

		switch {
		case numericSuffixRegex.MatchString(last):
			return suffixParse(club, last, StrategyNumericSuffix)
		case letterSuffixRegex.MatchString(last):
			return suffixParse(club, last, StrategyLetterSuffix)
		case isRepeatedLetter(last):
			return suffixParse(club, last, StrategyRepeatedLetter)
		case alnumTokenRegex.MatchString(last) && containsDigit(last):
			return suffixParse(club, trimSeriesPrefix(last), StrategyAlphanumeric)
		}
	}

	return ParsedTeam{
		Club:        value,
		SeriesLabel: DefaultSeriesLabel,
		Identifier:  "1",
		Strategy:    StrategyWholeName,
	}
}

func suffixParse(club, identifier string, strategy Strategy) ParsedTeam {
	return ParsedTeam{
		Club:        club,
		SeriesLabel: "Series " + identifier,
		Identifier:  identifier,
		Strategy:    strategy,
	}
}

func isRepeatedLetter(token string) bool {
	if len(token) < 2 {
		return false
	}
	first := rune(token[0])
	if !unicode.IsUpper(first) {
		return false
	}
	for _, r := range token {
		if r != first {
			return false
		}
	}
	return true
}

func containsDigit(token string) bool {
	return strings.IndexFunc(token, unicode.IsDigit) >= 0
}

// trimSeriesPrefix turns "S2B" into "2B". Tokens where S is not followed by a digit stay as-is.
func trimSeriesPrefix(token string) string {
	if len(token) > 1 && (token[0] == 'S' || token[0] == 's') && unicode.IsDigit(rune(token[1])) {
		return token[1:]
	}
	return token
}

// SeriesName applies league naming rules to a parsed label.
// A separator label that starts with a digit is a bare series number:
// APTA_CHICAGO calls those "Chicago N", every other league "Series N".
func SeriesName(leagueID string, parsed ParsedTeam) string {
	if parsed.Strategy != StrategySeparator {
		return parsed.SeriesLabel
	}
	return NormalizeSeriesName(leagueID, parsed.SeriesLabel)
}

// NormalizeSeriesName canonicalizes a series string taken directly from a record.
func NormalizeSeriesName(leagueID, raw string) string {
	label := collapseSpaces(raw)
	if label == "" {
		return ""
	}
	if !unicode.IsDigit(rune(label[0])) {
		return label
	}
	if leagueID == LeagueAPTAChicago {
		return "Chicago " + label
	}
	return "Series " + label
}

// TeamDisplayName builds a team string that parses back to (club, series) under leagueID.
// The shortest round-tripping form wins; "<club> - <series>" is the fallback.
func TeamDisplayName(leagueID, club, series string) string {
	club = collapseSpaces(club)
	series = collapseSpaces(series)

	candidates := make([]string, 0, 3)
	for _, prefix := range []string{"Series ", "Chicago "} {
		if rest, ok := strings.CutPrefix(series, prefix); ok && rest != "" {
			if prefix == "Series " {
				candidates = append(candidates, club+" "+rest)
			}
			candidates = append(candidates, club+separator+rest)
		}
	}
	candidates = append(candidates, club+separator+series)

	for _, candidate := range candidates {
		parsed := ParseTeamName(candidate)
		if parsed.Club == club && SeriesName(leagueID, parsed) == series {
			return candidate
		}
	}
	return club + separator + series
}

// seriesTokenRegex finds references such as "Series 22", "Chicago 7" or "S2B" in free text.
var seriesTokenRegex = regexp.MustCompile(`\b(?i:series|chicago|division|div)\s+([0-9]+[A-Za-z]?|[A-Z]{1,2})\b|\b[Ss]([0-9]+[A-Za-z]?)\b`)

// ExtractSeriesToken returns the first series identifier mentioned in text, upper-cased.
func ExtractSeriesToken(text string) string {
	match := seriesTokenRegex.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	for _, group := range match[1:] {
		if group != "" {
			return strings.ToUpper(group)
		}
	}
	return ""
}

// SeriesIdentifier extracts the trailing identifier from a canonical series name,
// e.g. "Chicago 7" -> "7", "Series 2B" -> "2B". Unprefixed names are returned whole.
func SeriesIdentifier(series string) string {
	series = collapseSpaces(series)
	for _, prefix := range []string{"Series ", "Chicago ", "Division "} {
		if rest, ok := strings.CutPrefix(series, prefix); ok {
			return rest
		}
	}
	return series
}
