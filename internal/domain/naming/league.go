package naming

import "strings"

const (
	LeagueAPTAChicago = "APTA_CHICAGO"
	LeagueNSTF        = "NSTF"
	LeagueCNSWPL      = "CNSWPL"
	LeagueCITA        = "CITA"
)

// leagueSynonyms maps lower-cased, underscore-joined spellings seen in exports to canonical ids.
var leagueSynonyms = map[string]string{
	"apta_chicago":                  LeagueAPTAChicago,
	"apta":                          LeagueAPTAChicago,
	"aptachicago":                   LeagueAPTAChicago,
	"apta_chi":                      LeagueAPTAChicago,
	"chicago":                       LeagueAPTAChicago,
	"nstf":                          LeagueNSTF,
	"nsft":                          LeagueNSTF,
	"north_shore_tennis_foundation": LeagueNSTF,
	"cnswpl":                        LeagueCNSWPL,
	"cnswp":                         LeagueCNSWPL,
	"cnspwl":                        LeagueCNSWPL,
	"cita":                          LeagueCITA,
}

var leagueDisplayNames = map[string]string{
	LeagueAPTAChicago: "APTA Chicago",
	LeagueNSTF:        "North Shore Tennis Foundation",
	LeagueCNSWPL:      "Chicago North Shore Women's Paddle League",
	LeagueCITA:        "Chicago Indoor Tennis Association",
}

// CanonicalLeagueID resolves known synonyms and typos to the canonical league id.
// Unknown values are returned upper-cased with ok=false.
func CanonicalLeagueID(raw string) (string, bool) {
	key := strings.ToLower(collapseSpaces(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if key == "" {
		return "", false
	}
	if id, ok := leagueSynonyms[key]; ok {
		return id, true
	}
	return strings.ToUpper(key), false
}

// LeagueDisplayName returns a human readable name, falling back to the id itself.
func LeagueDisplayName(leagueID string) string {
	if name, ok := leagueDisplayNames[leagueID]; ok {
		return name
	}
	return leagueID
}
