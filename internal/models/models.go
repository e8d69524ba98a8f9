package models

// Assignment filter values for FilterState.Assignment
const (
	AssignmentAny        = ""
	AssignmentAssigned   = "assigned"
	AssignmentUnassigned = "unassigned"
)

// Participant is an individual eligible for team assignment, carrying
// ranked team preferences. Choices index 0 is the round-1 preference.
// Everything except JoinedTeamID is write-once after ingestion.
type Participant struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Position     string   `json:"position"`
	Choices      []string `json:"choices"`
	JoinedTeamID string   `json:"joinedTeamId,omitempty"`
}

// Assigned reports whether the participant belongs to a team.
func (p *Participant) Assigned() bool {
	return p.JoinedTeamID != ""
}

// PreferenceRank returns the 1-based rank at which the participant
// preferred the given team, or 0 if the team is not among their choices.
func (p *Participant) PreferenceRank(teamID string) int {
	for i, c := range p.Choices {
		if c == teamID {
			return i + 1
		}
	}
	return 0
}

// Team is a draftable group. ID and Name are both the normalized
// preference value the team was derived from.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TurnState tracks whose turn it is: the (team, round) pair currently
// empowered to pick.
type TurnState struct {
	Started       bool   `json:"started"`
	Finished      bool   `json:"finished"`
	CurrentRound  int    `json:"currentRound"`
	CurrentTeamID string `json:"currentTeamId,omitempty"`
	MaxRound      int    `json:"maxRound"`
}

// FilterState holds the read-side view controls. Round -1 means no round
// filter; TeamID here is independent of TurnState.CurrentTeamID.
type FilterState struct {
	Position   string `json:"position"`
	Assignment string `json:"assignment"`
	Round      int    `json:"round"`
	TeamID     string `json:"teamId"`
}

// DraftState is the complete engine state, serialized as a single
// document by the snapshot store and returned by the state endpoint.
type DraftState struct {
	Participants []Participant `json:"participants"`
	Teams        []Team        `json:"teams"`
	Positions    []string      `json:"positions"`
	MaxRound     int           `json:"maxRound"`
	Turn         TurnState     `json:"turn"`
	Filters      FilterState   `json:"filters"`
}

// Clone returns a deep copy so callers never share slices with the engine.
func (s *DraftState) Clone() *DraftState {
	out := &DraftState{
		Participants: make([]Participant, len(s.Participants)),
		Teams:        make([]Team, len(s.Teams)),
		Positions:    make([]string, len(s.Positions)),
		MaxRound:     s.MaxRound,
		Turn:         s.Turn,
		Filters:      s.Filters,
	}
	copy(out.Teams, s.Teams)
	copy(out.Positions, s.Positions)
	for i, p := range s.Participants {
		cp := p
		cp.Choices = make([]string, len(p.Choices))
		copy(cp.Choices, p.Choices)
		out.Participants[i] = cp
	}
	return out
}

// RosterEntry is a participant annotated with the rank at which they
// preferred their assigned team (0 if that team was not among their choices).
type RosterEntry struct {
	Participant Participant `json:"participant"`
	Rank        int         `json:"rank"`
}

// TeamGroup is one row of the summary table: a team and its current
// members. The unassigned group uses an empty TeamID.
type TeamGroup struct {
	TeamID   string        `json:"teamId"`
	TeamName string        `json:"teamName"`
	Members  []RosterEntry `json:"members"`
}
