package ingest

import (
	"strings"
	"testing"
)

func TestParseWellFormedSheet(t *testing.T) {
	raw := strings.Join([]string{
		"name\tposition\t1st\t2nd",
		"Kim\tTop\tTigers\tLions",
		"Lee\tJungle\tLions\tTigers",
		"Park\tMid\tBears",
	}, "\r\n")

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if len(res.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(res.Participants))
	}

	ids := make(map[string]bool)
	for _, p := range res.Participants {
		if p.ID == "" {
			t.Errorf("participant %q missing id", p.Name)
		}
		if ids[p.ID] {
			t.Errorf("duplicate id %q", p.ID)
		}
		ids[p.ID] = true
	}

	wantTeams := []string{"Bears", "Lions", "Tigers"}
	if len(res.Teams) != len(wantTeams) {
		t.Fatalf("expected teams %v, got %v", wantTeams, res.Teams)
	}
	for i, want := range wantTeams {
		if res.Teams[i].ID != want {
			t.Errorf("teams[%d] = %q, want %q", i, res.Teams[i].ID, want)
		}
	}

	// Display order: position, then name
	if res.Participants[0].Name != "Lee" { // Jungle < Mid < Top
		t.Errorf("first participant = %q, want Lee", res.Participants[0].Name)
	}
}

func TestParseHeaderDiscarded(t *testing.T) {
	raw := "Anything At All\tEven Tabs\tHere\r\nKim\tTop\tA"

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(res.Participants) != 1 || res.Participants[0].Name != "Kim" {
		t.Errorf("header row leaked into participants: %+v", res.Participants)
	}
}

func TestParseNormalization(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims edges", "  Tigers  ", "Tigers"},
		{"collapses runs", "Ti   gers", "Ti gers"},
		{"strips quotes", `"Tigers"`, "Tigers"},
		{"tabs and newlines", "Ti\n gers", "Ti gers"},
		{"all together", `  "Ti   gers"  `, "Ti gers"},
		{"empty", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanField(tc.in); got != tc.want {
				t.Errorf("cleanField(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParsePreferenceValuesShareTeamIdentity(t *testing.T) {
	raw := strings.Join([]string{
		"header",
		"Kim\tTop\t\"Tigers\"",
		"Lee\tJungle\t  Tigers ",
	}, "\r\n")

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(res.Teams) != 1 {
		t.Fatalf("spelling variants should collapse to one team, got %v", res.Teams)
	}
	if res.Teams[0].ID != "Tigers" || res.Teams[0].Name != "Tigers" {
		t.Errorf("team = %+v, want id and name both Tigers", res.Teams[0])
	}
}

func TestParseShortRows(t *testing.T) {
	raw := strings.Join([]string{
		"header",
		"JustAName",
		"NameAndPosition\tMid",
	}, "\r\n")

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(res.Participants) != 2 {
		t.Fatalf("short rows should still ingest, got %d participants", len(res.Participants))
	}
	for _, p := range res.Participants {
		if len(p.Choices) != 0 {
			t.Errorf("participant %q has unexpected choices %v", p.Name, p.Choices)
		}
	}
	if len(res.Teams) != 0 {
		t.Errorf("no preferences should mean no teams, got %v", res.Teams)
	}
}

func TestParseSkipsBlankRows(t *testing.T) {
	raw := "header\r\nKim\tTop\tA\r\n\r\n \t \t \r\n"

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(res.Participants) != 1 {
		t.Errorf("blank rows should be skipped, got %d participants", len(res.Participants))
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "header only", "header\r\n", "header\r\n\r\n"} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) = nil error, want ErrEmptyInput", raw)
		}
	}
}

func TestParseEmptyPreferenceFieldsIgnoredForTeams(t *testing.T) {
	raw := "header\r\nKim\tTop\tA\t\t\tB"

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(res.Teams) != 2 {
		t.Errorf("empty preference cells must not become teams, got %v", res.Teams)
	}
	// The empty cells stay in the choice list so round indexes line up
	if len(res.Participants[0].Choices) != 4 {
		t.Errorf("choices = %v, want 4 entries with gaps kept", res.Participants[0].Choices)
	}
}

func FuzzParse(f *testing.F) {
	f.Add("header\r\nKim\tTop\tA\tB")
	f.Add("header\r\nLee\tJungle")
	f.Add("\r\n\r\n\t\t\t")
	f.Add("h\r\n\"quoted\"\t  spaced   out  \tteam")

	f.Fuzz(func(t *testing.T, raw string) {
		res, err := Parse(raw)
		if err != nil {
			return
		}

		// Whatever went in, the output invariants must hold.
		ids := make(map[string]bool)
		for _, p := range res.Participants {
			if p.ID == "" || ids[p.ID] {
				t.Fatalf("bad participant id %q", p.ID)
			}
			ids[p.ID] = true
			if p.JoinedTeamID != "" {
				t.Fatal("ingested participant must start unassigned")
			}
		}
		for i := 1; i < len(res.Teams); i++ {
			if res.Teams[i-1].Name >= res.Teams[i].Name {
				t.Fatalf("teams not sorted: %v", res.Teams)
			}
		}
	})
}
