// Package ingest parses raw tab-separated preference sheets into the
// normalized participant and team model.
//
// Expected layout: one header line (discarded), then one line per
// participant holding name, position and zero or more ranked team
// preferences. Rows are terminated by CRLF. There is no tab escaping;
// quote characters are stripped, never interpreted as quoting.
package ingest

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jwoo-kim/team-draft/internal/models"
)

// ErrEmptyInput is returned when the sheet contains no data rows at all.
var ErrEmptyInput = errors.New("ingest: no data rows")

// Result holds everything a single ingestion produces. The team set is
// derived from the distinct normalized preference values, so preference
// strings double as team identifiers.
type Result struct {
	Participants []models.Participant
	Teams        []models.Team
}

// Parse converts raw sheet text into participants and derived teams.
//
// Rows with fewer than two fields still ingest with empty trailing
// fields; rows that are entirely blank after normalization are skipped.
// Parse never mutates shared state, so a failed parse leaves the caller's
// world untouched.
func Parse(raw string) (*Result, error) {
	lines := strings.Split(raw, "\r\n")
	if len(lines) < 2 {
		return nil, ErrEmptyInput
	}

	// First line is the header.
	lines = lines[1:]

	participants := make([]models.Participant, 0, len(lines))
	choiceSet := make(map[string]struct{})

	for _, line := range lines {
		fields := strings.Split(line, "\t")

		name := cleanField(fields[0])
		position := ""
		if len(fields) > 1 {
			position = cleanField(fields[1])
		}

		choices := make([]string, 0, len(fields))
		if len(fields) > 2 {
			for _, f := range fields[2:] {
				choices = append(choices, cleanField(f))
			}
		}

		if name == "" && position == "" && allEmpty(choices) {
			continue
		}

		for _, c := range choices {
			if c != "" {
				choiceSet[c] = struct{}{}
			}
		}

		participants = append(participants, models.Participant{
			ID:       uuid.NewString(),
			Name:     name,
			Position: position,
			Choices:  choices,
		})
	}

	if len(participants) == 0 {
		return nil, ErrEmptyInput
	}

	teams := make([]models.Team, 0, len(choiceSet))
	for choice := range choiceSet {
		teams = append(teams, models.Team{ID: choice, Name: choice})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })

	SortParticipants(participants)

	return &Result{Participants: participants, Teams: teams}, nil
}

// SortParticipants orders participants for display by position, then name.
func SortParticipants(participants []models.Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].Position == participants[j].Position {
			return participants[i].Name < participants[j].Name
		}
		return participants[i].Position < participants[j].Position
	})
}

// cleanField trims the field, collapses internal whitespace runs to a
// single space and removes literal quote characters. Normalization must
// happen before a preference value is used as a team identifier.
func cleanField(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	return strings.Join(strings.Fields(s), " ")
}

func allEmpty(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
