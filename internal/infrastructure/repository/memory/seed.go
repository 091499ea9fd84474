package memory

import (
	"sort"

	"github.com/riskibarqy/league-sync/internal/domain/club"
	"github.com/riskibarqy/league-sync/internal/domain/league"
	"github.com/riskibarqy/league-sync/internal/domain/naming"
	"github.com/riskibarqy/league-sync/internal/domain/reference"
	"github.com/riskibarqy/league-sync/internal/domain/series"
	"github.com/riskibarqy/league-sync/internal/domain/team"
)

// SeedTeam stores a team directly, creating its league, club and series when missing.
// It bypasses the natural key check so tests can model pre-existing duplicates.
func (s *Store) SeedTeam(leagueCode, clubName, seriesName, teamName string) team.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.committed
	var lg league.League
	for _, existing := range d.leagues {
		if existing.Code == leagueCode {
			lg = existing
		}
	}
	if lg.ID == 0 {
		lg = league.League{ID: d.newID(), Code: leagueCode, Name: naming.LeagueDisplayName(leagueCode)}
		d.leagues[lg.ID] = lg
	}

	var c club.Club
	for _, existing := range d.clubs {
		if existing.Name == clubName {
			c = existing
		}
	}
	if c.ID == 0 {
		c = club.Club{ID: d.newID(), Name: clubName}
		d.clubs[c.ID] = c
	}
	d.clubLeagues[linkKey{c.ID, lg.ID}] = struct{}{}

	var sr series.Series
	for _, existing := range d.series {
		if existing.Name == seriesName {
			sr = existing
		}
	}
	if sr.ID == 0 {
		sr = series.Series{ID: d.newID(), Name: seriesName}
		d.series[sr.ID] = sr
	}
	d.seriesLeagues[linkKey{sr.ID, lg.ID}] = struct{}{}

	t := team.Team{ID: d.newID(), ClubID: c.ID, SeriesID: sr.ID, LeagueID: lg.ID, Name: teamName}
	d.teams[t.ID] = t
	t.ClubName, t.SeriesName, t.LeagueCode = clubName, seriesName, leagueCode
	return t
}

// SeedUser associates a web user with the external ids of their player rows.
func (s *Store) SeedUser(userID int64, playerExternalIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.committed.userPlayers[userID] = append(s.committed.userPlayers[userID], playerExternalIDs...)
}

// SeedReference stores a poll or captain message and returns it with its id.
func (s *Store) SeedReference(ref reference.Reference) reference.Reference {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref.ID = s.committed.newID()
	s.committed.references[ref.Kind][ref.ID] = ref
	return ref
}

func sortGroups(groups []team.DuplicateGroup) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Teams[0].ID < groups[j].Teams[0].ID })
}

func sortReferences(refs []reference.Reference) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return refs[i].Kind < refs[j].Kind
		}
		return refs[i].ID < refs[j].ID
	})
}
