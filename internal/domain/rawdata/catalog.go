package rawdata

import (
	"fmt"
	"strings"
)

// Kind identifies a source file type.
type Kind string

const (
	KindPlayers       Kind = "players"
	KindMatchHistory  Kind = "match_history"
	KindPlayerHistory Kind = "player_history"
	KindSeriesStats   Kind = "series_stats"
	KindSchedules     Kind = "schedules"
)

// ValueKind is the JSON type a required key should hold.
type ValueKind int

const (
	ValueAny ValueKind = iota
	ValueScalar
	ValueObject
	ValueArray
)

// KeyRule is one required field. Any of Names satisfies it.
type KeyRule struct {
	Names []string
	Kind  ValueKind
}

// File describes a source file and the keys every record must carry.
type File struct {
	Kind     Kind
	Name     string
	Required bool
	Keys     []KeyRule
}

func scalar(names ...string) KeyRule { return KeyRule{Names: names, Kind: ValueScalar} }

// Catalog lists every source file in import order.
var Catalog = []File{
	{
		Kind:     KindPlayers,
		Name:     "players.json",
		Required: true,
		Keys: []KeyRule{
			scalar("Player ID", "player_id"),
			scalar("First Name", "first_name"),
			scalar("Last Name", "last_name"),
			scalar("League", "league_id"),
			scalar("Club", "club"),
			scalar("Series", "series"),
		},
	},
	{
		Kind:     KindPlayerHistory,
		Name:     "player_history.json",
		Required: false,
		Keys: []KeyRule{
			scalar("player_id", "Player ID"),
			scalar("league_id", "League"),
			scalar("series", "Series"),
			{Names: []string{"matches"}, Kind: ValueArray},
		},
	},
	{
		Kind:     KindMatchHistory,
		Name:     "match_history.json",
		Required: true,
		Keys: []KeyRule{
			scalar("Date", "date"),
			scalar("Home Team", "home_team"),
			scalar("Away Team", "away_team"),
			scalar("Scores", "scores"),
			{Names: []string{"Winner", "winner"}, Kind: ValueAny},
			scalar("league_id", "League"),
			{Names: []string{"match_id", "Match ID"}, Kind: ValueAny},
		},
	},
	{
		Kind:     KindSeriesStats,
		Name:     "series_stats.json",
		Required: true,
		Keys: []KeyRule{
			scalar("series", "Series"),
			scalar("team", "Team"),
			scalar("league_id", "League"),
			{Names: []string{"matches", "wins"}, Kind: ValueAny},
		},
	},
	{
		Kind:     KindSchedules,
		Name:     "schedules.json",
		Required: true,
		Keys: []KeyRule{
			scalar("date", "Date"),
			scalar("home_team", "Home Team"),
			scalar("away_team", "Away Team"),
			scalar("League", "league_id"),
		},
	},
}

// Lookup finds a catalog entry by kind.
func Lookup(kind Kind) (File, bool) {
	for _, f := range Catalog {
		if f.Kind == kind {
			return f, true
		}
	}
	return File{}, false
}

// DefaultSampleSize is how many records per file pre-validation inspects.
const DefaultSampleSize = 25

// ValidateSample checks that a file has records and that a sample carries the required keys with plausible types.
// The sample takes evenly spaced records so a schema change anywhere in the file is likely to show.
func (f File) ValidateSample(records []Record, sampleSize int) error {
	if len(records) == 0 {
		return fmt.Errorf("no records")
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	step := 1
	if len(records) > sampleSize {
		step = len(records) / sampleSize
	}
	for idx := 0; idx < len(records); idx += step {
		if err := f.validateRecord(records[idx]); err != nil {
			return fmt.Errorf("record %d: %w", idx, err)
		}
	}
	return nil
}

func (f File) validateRecord(record Record) error {
	for _, rule := range f.Keys {
		name, value, ok := firstPresent(record, rule.Names)
		if !ok {
			return fmt.Errorf("missing required key %s", strings.Join(rule.Names, " | "))
		}
		if !plausible(value, rule.Kind) {
			return fmt.Errorf("key %s has implausible type %T", name, value)
		}
	}
	return nil
}

func firstPresent(record Record, names []string) (string, any, bool) {
	for _, name := range names {
		if value, ok := record[name]; ok {
			return name, value, true
		}
	}
	return "", nil, false
}

func plausible(value any, kind ValueKind) bool {
	switch kind {
	case ValueScalar:
		switch value.(type) {
		case nil, string, float64, int, int64, bool:
			return true
		default:
			return false
		}
	case ValueObject:
		_, ok := value.(map[string]any)
		return ok
	case ValueArray:
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}
