package draft

import (
	"errors"
	"strings"

	"github.com/jwoo-kim/team-draft/internal/models"
)

// ErrBadFilter is returned by the filter setters for values outside the
// accepted range.
var ErrBadFilter = errors.New("draft: invalid filter value")

// State returns a deep copy of the whole engine state.
func (e *Engine) State() *models.DraftState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Turn returns the current turn state.
func (e *Engine) Turn() models.TurnState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Turn
}

// Filters returns the current filter selections.
func (e *Engine) Filters() models.FilterState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Filters
}

// Participants returns a copy of the full participant list in display order.
func (e *Engine) Participants() []models.Participant {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone().Participants
}

// Teams returns a copy of the team list in draft order.
func (e *Engine) Teams() []models.Team {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.Team, len(e.state.Teams))
	copy(out, e.state.Teams)
	return out
}

// Positions returns the derived position catalog.
func (e *Engine) Positions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.state.Positions))
	copy(out, e.state.Positions)
	return out
}

// MaxRound returns the number of preference rounds in the current model.
func (e *Engine) MaxRound() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.MaxRound
}

// SetPositionFilter narrows the board to positions containing the given
// substring. Empty shows every position.
func (e *Engine) SetPositionFilter(position string) {
	e.mu.Lock()
	e.state.Filters.Position = position
	e.persistLocked()
	e.mu.Unlock()
	e.publish("filters:update", map[string]interface{}{"position": position})
}

// SetAssignmentFilter selects between all, assigned-only and
// unassigned-only participants.
func (e *Engine) SetAssignmentFilter(assignment string) error {
	switch assignment {
	case models.AssignmentAny, models.AssignmentAssigned, models.AssignmentUnassigned:
	default:
		return ErrBadFilter
	}

	e.mu.Lock()
	e.state.Filters.Assignment = assignment
	e.persistLocked()
	e.mu.Unlock()
	e.publish("filters:update", map[string]interface{}{"assignment": assignment})
	return nil
}

// SetRoundFilter selects the preference round to match against the
// selected team; -1 disables the round filter.
func (e *Engine) SetRoundFilter(round int) error {
	e.mu.Lock()
	if round != -1 && (round < 0 || round >= e.state.MaxRound) {
		e.mu.Unlock()
		return ErrBadFilter
	}
	e.state.Filters.Round = round
	e.persistLocked()
	e.mu.Unlock()
	e.publish("filters:update", map[string]interface{}{"round": round})
	return nil
}

// SetTeamFilter selects the team used by the round filter and the roster
// panel. Independent of the turn's current team.
func (e *Engine) SetTeamFilter(teamID string) {
	e.mu.Lock()
	e.state.Filters.TeamID = teamID
	e.persistLocked()
	e.mu.Unlock()
	e.publish("filters:update", map[string]interface{}{"teamId": teamID})
}

// FilteredParticipants applies the three filter predicates, logically
// ANDed: position substring, assignment status, and preference-at-round
// equals the selected team.
func (e *Engine) FilteredParticipants() []models.Participant {
	e.mu.RLock()
	defer e.mu.RUnlock()

	f := e.state.Filters
	out := []models.Participant{}
	for _, p := range e.state.Clone().Participants {
		if f.Position != "" && !strings.Contains(p.Position, f.Position) {
			continue
		}
		if f.Assignment == models.AssignmentAssigned && !p.Assigned() {
			continue
		}
		if f.Assignment == models.AssignmentUnassigned && p.Assigned() {
			continue
		}
		if f.Round != -1 {
			if f.Round >= len(p.Choices) || p.Choices[f.Round] != f.TeamID {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// TeamMembers returns the participants currently assigned to the team.
func (e *Engine) TeamMembers(teamID string) []models.Participant {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := []models.Participant{}
	for _, p := range e.state.Clone().Participants {
		if p.JoinedTeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

// Summary groups every participant by assigned team, in team order, with
// a trailing group for the unassigned. Each member carries the 1-based
// rank at which they preferred the team they ended up on.
func (e *Engine) Summary() []models.TeamGroup {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := e.state.Clone()
	groups := make([]models.TeamGroup, 0, len(snap.Teams)+1)

	for _, team := range snap.Teams {
		group := models.TeamGroup{TeamID: team.ID, TeamName: team.Name, Members: []models.RosterEntry{}}
		for _, p := range snap.Participants {
			if p.JoinedTeamID == team.ID {
				group.Members = append(group.Members, models.RosterEntry{
					Participant: p,
					Rank:        p.PreferenceRank(team.ID),
				})
			}
		}
		groups = append(groups, group)
	}

	unassigned := models.TeamGroup{TeamName: "Unassigned", Members: []models.RosterEntry{}}
	for _, p := range snap.Participants {
		if !p.Assigned() {
			unassigned.Members = append(unassigned.Members, models.RosterEntry{Participant: p})
		}
	}
	groups = append(groups, unassigned)

	return groups
}
