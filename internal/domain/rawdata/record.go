package rawdata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/league-sync/internal/domain/naming"
	"github.com/shopspring/decimal"
)

// Record is one decoded object from a source file.
type Record map[string]any

// Source is a loaded file.
type Source struct {
	File    File
	Path    string
	Records []Record
}

// DateLayouts are tried in order when parsing source dates.
var DateLayouts = []string{"02-Jan-06", "01/02/2006", "2006-01-02"}

var nullTokens = map[string]struct{}{
	"":     {},
	"n/a":  {},
	"na":   {},
	"-":    {},
	"--":   {},
	"null": {},
	"none": {},
}

// Lookup returns the value of the first key present with a non-nil value.
// Keys are the per-league spellings of one field, e.g. "Home Team" and "home_team".
func (r Record) Lookup(keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := r[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

// Has reports whether any of keys is present, even with a null value.
func (r Record) Has(keys ...string) bool {
	for _, key := range keys {
		if _, ok := r[key]; ok {
			return true
		}
	}
	return false
}

// String returns the trimmed string form of the first present key, or "".
func (r Record) String(keys ...string) string {
	value, ok := r.Lookup(keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(stringify(value))
}

// OptionalString returns nil for missing values and null tokens such as "N/A".
func (r Record) OptionalString(keys ...string) *string {
	value := r.String(keys...)
	if isNullToken(value) {
		return nil
	}
	return &value
}

// RequireString fails with a SkipError when the field is missing or empty.
func (r Record) RequireString(field string, keys ...string) (string, error) {
	if len(keys) == 0 {
		keys = []string{field}
	}
	value := r.String(keys...)
	if value == "" {
		return "", &SkipError{Reason: SkipMissingField, Field: field}
	}
	return value, nil
}

// Date parses the field against DateLayouts.
func (r Record) Date(field string, keys ...string) (time.Time, error) {
	if len(keys) == 0 {
		keys = []string{field}
	}
	raw := r.String(keys...)
	if raw == "" {
		return time.Time{}, &SkipError{Reason: SkipMissingField, Field: field}
	}
	parsed, ok := ParseDate(raw)
	if !ok {
		return time.Time{}, &SkipError{Reason: SkipBadDate, Field: field, Value: raw}
	}
	return parsed, nil
}

// ParseDate tries every layout in DateLayouts and returns the first match.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range DateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// OptionalInt parses a lenient integer. Null tokens give nil, garbage gives a SkipError.
func (r Record) OptionalInt(field string, keys ...string) (*int, error) {
	if len(keys) == 0 {
		keys = []string{field}
	}
	value, ok := r.Lookup(keys...)
	if !ok {
		return nil, nil
	}
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return nil, &SkipError{Reason: SkipBadNumber, Field: field, Value: stringify(v)}
		}
		out := int(v)
		return &out, nil
	case int:
		return &v, nil
	case int64:
		out := int(v)
		return &out, nil
	}

	raw := strings.TrimSpace(stringify(value))
	if isNullToken(raw) {
		return nil, nil
	}
	out, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return nil, &SkipError{Reason: SkipBadNumber, Field: field, Value: raw}
	}
	return &out, nil
}

// IntOrZero is OptionalInt with NULL collapsed to zero.
func (r Record) IntOrZero(field string, keys ...string) (int, error) {
	value, err := r.OptionalInt(field, keys...)
	if err != nil || value == nil {
		return 0, err
	}
	return *value, nil
}

// Decimal parses a lenient decimal such as a PTI rating or "54.5%".
func (r Record) Decimal(field string, keys ...string) (decimal.NullDecimal, error) {
	if len(keys) == 0 {
		keys = []string{field}
	}
	value, ok := r.Lookup(keys...)
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	if v, ok := value.(float64); ok {
		return decimal.NewNullDecimal(decimal.NewFromFloat(v)), nil
	}

	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(stringify(value)), "%"))
	if isNullToken(raw) {
		return decimal.NullDecimal{}, nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, &SkipError{Reason: SkipBadNumber, Field: field, Value: raw}
	}
	return decimal.NewNullDecimal(parsed), nil
}

// Object returns a nested object field.
func (r Record) Object(keys ...string) (Record, bool) {
	value, ok := r.Lookup(keys...)
	if !ok {
		return nil, false
	}
	switch v := value.(type) {
	case map[string]any:
		return Record(v), true
	case Record:
		return v, true
	default:
		return nil, false
	}
}

// Array returns a nested array of objects. Non-object elements are dropped.
func (r Record) Array(keys ...string) ([]Record, bool) {
	value, ok := r.Lookup(keys...)
	if !ok {
		return nil, false
	}
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, Record(obj))
		}
	}
	return out, true
}

// Bool accepts true/false, yes/no and 1/0 spellings.
func (r Record) Bool(keys ...string) bool {
	value, ok := r.Lookup(keys...)
	if !ok {
		return false
	}
	if v, ok := value.(bool); ok {
		return v
	}
	switch strings.ToLower(strings.TrimSpace(stringify(value))) {
	case "1", "true", "t", "yes", "y", "captain", "co-captain":
		return true
	default:
		return false
	}
}

func isNullToken(value string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// LeagueID reads and canonicalizes a league field. Unknown leagues are skipped
// rather than imported under a misspelled code.
func (r Record) LeagueID(keys ...string) (string, error) {
	raw, err := r.RequireString("league_id", keys...)
	if err != nil {
		return "", err
	}
	canonical, ok := naming.CanonicalLeagueID(raw)
	if !ok {
		return "", &SkipError{Reason: SkipBadValue, Field: "league_id", Value: raw}
	}
	return canonical, nil
}
