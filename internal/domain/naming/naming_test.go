package naming

import "testing"

func TestNormalizeClubName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Birchwood 12":                   "Birchwood",
		"Glen Ellyn - 7 SW":              "Glen Ellyn",
		"Hinsdale PC 1a(2)":              "Hinsdale PC",
		"Exmoor II":                      "Exmoor",
		"Lake Forest (North)":            "Lake Forest",
		"  tennaqua   S2B ":              "Tennaqua",
		"Knollwood CC A":                 "Knollwood CC",
		"Salt Creek SW":                  "Salt Creek",
		"St. Charles Tennis & Fitness 3": "St Charles Tennis & Fitness",
		"LIFESPORT-LSHIRE":               "Lifesport Lshire",
		"Winnetka":                       "Winnetka",
		"":                               "",
	}

	for raw, want := range cases {
		raw, want := raw, want
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeClubName(raw); got != want {
				t.Fatalf("NormalizeClubName(%q) = %q, want %q", raw, got, want)
			}
		})
	}
}

func TestParseTeamName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want ParsedTeam
	}{
		{"Birchwood 12", ParsedTeam{"Birchwood", "Series 12", "12", StrategyNumericSuffix}},
		{"Tennaqua - 22", ParsedTeam{"Tennaqua", "22", "22", StrategySeparator}},
		{"Glen Ellyn - 7 SW", ParsedTeam{"Glen Ellyn", "7 SW", "7 SW", StrategySeparator}},
		{"Tennaqua S2B", ParsedTeam{"Tennaqua", "Series 2B", "2B", StrategyAlphanumeric}},
		{"Tennaqua A", ParsedTeam{"Tennaqua", "Series A", "A", StrategyLetterSuffix}},
		{"Winnetka AA", ParsedTeam{"Winnetka", "Series AA", "AA", StrategyRepeatedLetter}},
		{"Hinsdale PC 1a(2)", ParsedTeam{"Hinsdale PC", "Series 1a", "1a", StrategyNumericSuffix}},
		{"Exmoor PC", ParsedTeam{"Exmoor PC", DefaultSeriesLabel, "1", StrategyWholeName}},
		{"Valley Lo", ParsedTeam{"Valley Lo", DefaultSeriesLabel, "1", StrategyWholeName}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			if got := ParseTeamName(tc.raw); got != tc.want {
				t.Fatalf("ParseTeamName(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

// A trailing word without a digit is part of the club name, so multi-word
// clubs are never split into club and series.
func TestParseTeamName_WordSuffixKeepsClubWhole(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"Lake Forest", "Tennaqua Blue", "River Forest PD"} {
		got := ParseTeamName(raw)
		if got.Club != raw || got.SeriesLabel != DefaultSeriesLabel || got.Strategy != StrategyWholeName {
			t.Fatalf("ParseTeamName(%q) = %+v, want whole-name club", raw, got)
		}
	}

	if got := ParseTeamName("Lake Forest S3"); got.Club != "Lake Forest" || got.Identifier != "3" {
		t.Fatalf("digit-bearing suffix should still split: %+v", got)
	}
}

func TestSeriesName_LeagueRules(t *testing.T) {
	t.Parallel()

	apta := SeriesName(LeagueAPTAChicago, ParseTeamName("Tennaqua - 22"))
	nstf := SeriesName(LeagueNSTF, ParseTeamName("Tennaqua S2B"))
	if apta != "Chicago 22" {
		t.Fatalf("expected Chicago 22, got %q", apta)
	}
	if nstf != "Series 2B" {
		t.Fatalf("expected Series 2B, got %q", nstf)
	}
	if NormalizeClubName("Tennaqua - 22") != NormalizeClubName("Tennaqua S2B") {
		t.Fatalf("both strings should share the club name")
	}

	if got := SeriesName(LeagueNSTF, ParseTeamName("Tennaqua - 22")); got != "Series 22" {
		t.Fatalf("expected Series 22 outside APTA, got %q", got)
	}
	if got := SeriesName(LeagueAPTAChicago, ParseTeamName("Glen Ellyn - 7 SW")); got != "Chicago 7 SW" {
		t.Fatalf("expected Chicago 7 SW, got %q", got)
	}
	if got := NormalizeSeriesName(LeagueCNSWPL, "Division North"); got != "Division North" {
		t.Fatalf("expected verbatim label, got %q", got)
	}
}

func TestTeamDisplayName_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		league string
		club   string
		series string
		want   string
	}{
		{LeagueAPTAChicago, "Birchwood", "Series 12", "Birchwood 12"},
		{LeagueAPTAChicago, "Birchwood", "Chicago 22", "Birchwood - 22"},
		{LeagueNSTF, "Tennaqua", "Series 2B", "Tennaqua 2B"},
		{LeagueCNSWPL, "Hinsdale PC", "Series 1a", "Hinsdale PC 1a"},
		{LeagueAPTAChicago, "Glen Ellyn", "Chicago 7 SW", "Glen Ellyn - 7 SW"},
		{LeagueNSTF, "Lake Bluff", "Division North", "Lake Bluff - Division North"},
		{LeagueCITA, "Exmoor", "Series A", "Exmoor A"},
	}

	for _, tc := range cases {
		got := TeamDisplayName(tc.league, tc.club, tc.series)
		if got != tc.want {
			t.Fatalf("TeamDisplayName(%s, %q, %q) = %q, want %q", tc.league, tc.club, tc.series, got, tc.want)
		}

		parsed := ParseTeamName(got)
		if NormalizeClubName(parsed.Club) != NormalizeClubName(tc.club) {
			t.Fatalf("club did not round-trip for %q: %q", got, parsed.Club)
		}
		if SeriesName(tc.league, parsed) != tc.series {
			t.Fatalf("series did not round-trip for %q: %q", got, SeriesName(tc.league, parsed))
		}
	}
}

func TestCanonicalLeagueID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"nsft", LeagueNSTF, true},
		{"NSTF", LeagueNSTF, true},
		{"APTA Chicago", LeagueAPTAChicago, true},
		{"apta-chicago", LeagueAPTAChicago, true},
		{" cnswpl ", LeagueCNSWPL, true},
		{"cita", LeagueCITA, true},
		{"unknown league", "UNKNOWN_LEAGUE", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := CanonicalLeagueID(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("CanonicalLeagueID(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestExtractSeriesToken(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Practice for Series 22 on Tuesday?": "22",
		"S2B lineup for Friday":              "2B",
		"Who can sub in Chicago 7?":          "7",
		"Series A availability":              "A",
		"Series of matches next week":        "",
		"No token here":                      "",
	}
	for text, want := range cases {
		if got := ExtractSeriesToken(text); got != want {
			t.Fatalf("ExtractSeriesToken(%q) = %q, want %q", text, got, want)
		}
	}
	if got := SeriesIdentifier("Chicago 7 SW"); got != "7 SW" {
		t.Fatalf("unexpected series identifier %q", got)
	}
}
