package team

import "fmt"

// Team is identified by (club, series, league); Name is only its latest surface form.
type Team struct {
	ID       int64
	ClubID   int64
	SeriesID int64
	LeagueID int64
	Name     string
	Alias    string

	// Denormalized for matching and reporting; not written back.
	ClubName   string
	SeriesName string
	LeagueCode string
}

// Key is the natural key of a team.
type Key struct {
	ClubID   int64
	SeriesID int64
	LeagueID int64
}

func (t Team) Key() Key {
	return Key{ClubID: t.ClubID, SeriesID: t.SeriesID, LeagueID: t.LeagueID}
}

func (t Team) Validate() error {
	if t.ClubID <= 0 {
		return fmt.Errorf("team club id is required")
	}
	if t.SeriesID <= 0 {
		return fmt.Errorf("team series id is required")
	}
	if t.LeagueID <= 0 {
		return fmt.Errorf("team league id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

// DuplicateGroup is a set of teams sharing one natural key.
type DuplicateGroup struct {
	Key   Key
	Teams []Team
}
