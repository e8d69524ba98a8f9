// Package draft owns the draft state engine: the turn-rotation state
// machine, the roster mutations and the read-side projections consumed by
// the presentation layer. All state lives behind a single mutex; every
// mutating operation runs to completion before the next one is observed,
// and is followed by a snapshot save and an event publish.
package draft

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jwoo-kim/team-draft/internal/ingest"
	"github.com/jwoo-kim/team-draft/internal/logger"
	"github.com/jwoo-kim/team-draft/internal/models"
	"github.com/jwoo-kim/team-draft/internal/pubsub"
	"github.com/jwoo-kim/team-draft/internal/store"
)

var (
	ErrNoTeams        = errors.New("draft: no teams to draft for")
	ErrAlreadyStarted = errors.New("draft: already started")
	ErrNotStarted     = errors.New("draft: not started")
	ErrDraftFinished  = errors.New("draft: already finished")
	ErrTeamNotFound   = errors.New("draft: team not found")
	ErrNoActiveTeam   = errors.New("draft: no active team selected")
)

// Status is the outcome reported by Next.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Engine is the single owner of the draft state. One engine equals one
// active draft.
type Engine struct {
	mu        sync.RWMutex
	state     models.DraftState
	snapshots store.SnapshotStore
	ps        *pubsub.PubSub
}

// New creates an engine with empty state. Pass a nil pubsub to disable
// event publication (tests mostly do).
func New(snapshots store.SnapshotStore, ps *pubsub.PubSub) *Engine {
	return &Engine{
		state:     emptyState(),
		snapshots: snapshots,
		ps:        ps,
	}
}

func emptyState() models.DraftState {
	return models.DraftState{
		Participants: []models.Participant{},
		Teams:        []models.Team{},
		Positions:    []string{},
		Filters:      models.FilterState{Round: -1},
	}
}

// Restore loads the persisted snapshot, if any. Call once at startup.
func (e *Engine) Restore() error {
	if e.snapshots == nil {
		return nil
	}

	snap, err := e.snapshots.Load()
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshot) {
			return nil
		}
		return fmt.Errorf("restore snapshot: %w", err)
	}

	e.mu.Lock()
	e.state = *snap.Clone()
	e.mu.Unlock()

	logger.Info("Draft state restored", "participants", len(snap.Participants), "teams", len(snap.Teams))
	return nil
}

// Ingest replaces the whole participant/team model from raw sheet text.
// The swap is atomic: a parse failure leaves prior state untouched, and
// readers never observe a partially ingested sheet. The turn state and
// filter selections reset along with the model.
func (e *Engine) Ingest(raw string) error {
	res, err := ingest.Parse(raw)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	positions, maxRound := deriveIndexes(res.Participants)

	e.mu.Lock()
	e.state.Participants = res.Participants
	e.state.Teams = res.Teams
	e.state.Positions = positions
	e.state.MaxRound = maxRound
	e.state.Turn = models.TurnState{MaxRound: maxRound}
	e.state.Filters = models.FilterState{Round: -1}
	e.persistLocked()
	e.mu.Unlock()

	e.publish("draft:ingest", map[string]interface{}{
		"participants": len(res.Participants),
		"teams":        len(res.Teams),
	})
	return nil
}

// Start begins the draft: round 0, first team in sorted order. As a
// convenience for the organizer the assignment filter flips to
// "unassigned" so the board shows only draftable participants.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Turn.Started {
		return ErrAlreadyStarted
	}
	if len(e.state.Teams) == 0 {
		return ErrNoTeams
	}

	e.state.Turn = models.TurnState{
		Started:       true,
		CurrentRound:  0,
		CurrentTeamID: e.state.Teams[0].ID,
		MaxRound:      e.state.MaxRound,
	}
	e.state.Filters.Assignment = models.AssignmentUnassigned
	e.persistLocked()

	e.publishLocked("draft:start", map[string]interface{}{
		"teamId": e.state.Turn.CurrentTeamID,
	})
	return nil
}

// Next hands the turn to the following team. The rotation is round-robin:
// after the last team of a round the order restarts at the first team, it
// never reverses. When the last team of the final round yields, the draft
// transitions to Finished and the turn pointer stays where it is.
func (e *Engine) Next() (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	turn := &e.state.Turn
	if !turn.Started {
		return "", ErrNotStarted
	}
	if turn.Finished {
		return "", ErrDraftFinished
	}

	idx := e.teamIndexLocked(turn.CurrentTeamID)
	switch {
	case idx >= 0 && idx+1 < len(e.state.Teams):
		turn.CurrentTeamID = e.state.Teams[idx+1].ID
	case turn.CurrentRound+1 >= turn.MaxRound:
		turn.Finished = true
		e.persistLocked()
		e.publishLocked("draft:finished", map[string]interface{}{
			"rounds": turn.MaxRound,
		})
		return StatusFinished, nil
	default:
		turn.CurrentRound++
		turn.CurrentTeamID = e.state.Teams[0].ID
	}

	e.persistLocked()
	e.publishLocked("draft:next", map[string]interface{}{
		"teamId": turn.CurrentTeamID,
		"round":  turn.CurrentRound,
	})
	return StatusInProgress, nil
}

// Reset tears the draft down to its initial values and clears the
// persisted snapshot.
func (e *Engine) Reset() error {
	e.mu.Lock()
	e.state = emptyState()
	e.mu.Unlock()

	if e.snapshots != nil {
		if err := e.snapshots.Clear(); err != nil {
			logger.Error("Failed to clear snapshot", "error", err)
		}
	}

	e.publish("draft:reset", nil)
	return nil
}

// Pick assigns the participant to the active team: during a started draft
// that is the team whose turn it is, otherwise the team selected in the
// filter state (freeform mode). Picking is idempotent, and a participant
// already on a different team is silently reassigned. An unknown
// participant id is a no-op.
func (e *Engine) Pick(participantID string) error {
	e.mu.Lock()
	teamID := e.state.Filters.TeamID
	if e.state.Turn.Started && !e.state.Turn.Finished {
		teamID = e.state.Turn.CurrentTeamID
	}
	err := e.pickLocked(participantID, teamID)
	e.mu.Unlock()
	return err
}

// PickFor assigns the participant to an explicitly supplied team,
// bypassing the turn state. Used for out-of-draft roster edits.
func (e *Engine) PickFor(participantID, teamID string) error {
	e.mu.Lock()
	err := e.pickLocked(participantID, teamID)
	e.mu.Unlock()
	return err
}

func (e *Engine) pickLocked(participantID, teamID string) error {
	if teamID == "" {
		return ErrNoActiveTeam
	}
	if e.teamIndexLocked(teamID) < 0 {
		return ErrTeamNotFound
	}

	p := e.participantLocked(participantID)
	if p == nil {
		// Unknown ids are ignored.
		return nil
	}
	if p.JoinedTeamID == teamID {
		return nil
	}

	p.JoinedTeamID = teamID
	e.persistLocked()
	e.publishLocked("draft:pick", map[string]interface{}{
		"participantId": participantID,
		"teamId":        teamID,
	})
	return nil
}

// Unpick clears the participant's assignment regardless of whose turn it
// is. No-op if already unassigned or unknown.
func (e *Engine) Unpick(participantID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.participantLocked(participantID)
	if p == nil || p.JoinedTeamID == "" {
		return nil
	}

	p.JoinedTeamID = ""
	e.persistLocked()
	e.publishLocked("draft:unpick", map[string]interface{}{
		"participantId": participantID,
	})
	return nil
}

// AddParticipant appends a fully formed participant (manual entry). A
// fresh id is assigned when none is given. The position catalog and
// maxRound recompute as part of the same update.
func (e *Engine) AddParticipant(p models.Participant) (models.Participant, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Choices == nil {
		p.Choices = []string{}
	}

	e.mu.Lock()
	e.state.Participants = append(e.state.Participants, p)
	ingest.SortParticipants(e.state.Participants)
	e.reindexLocked()
	e.persistLocked()
	e.mu.Unlock()

	e.publish("participants:add", map[string]interface{}{"id": p.ID})
	return p, nil
}

// RemoveParticipant deletes a participant by id. Other participants'
// assignments and the turn pointer are unaffected. Unknown ids are
// ignored.
func (e *Engine) RemoveParticipant(participantID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i := range e.state.Participants {
		if e.state.Participants[i].ID == participantID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	e.state.Participants = append(e.state.Participants[:idx], e.state.Participants[idx+1:]...)
	e.reindexLocked()
	e.persistLocked()
	e.publishLocked("participants:remove", map[string]interface{}{"id": participantID})
	return nil
}

// reindexLocked recomputes the derived indexes after the participant set
// changed. MaxRound feeds the turn state only while the draft has not
// started; a running draft keeps the rotation it began with.
func (e *Engine) reindexLocked() {
	e.state.Positions, e.state.MaxRound = deriveIndexes(e.state.Participants)
	if !e.state.Turn.Started {
		e.state.Turn.MaxRound = e.state.MaxRound
	}
}

// deriveIndexes computes the sorted distinct position catalog and the
// maximum preference-round count. Pure over the participant list.
func deriveIndexes(participants []models.Participant) ([]string, int) {
	seen := make(map[string]struct{})
	positions := []string{}
	maxRound := 0

	for _, p := range participants {
		if _, ok := seen[p.Position]; !ok {
			seen[p.Position] = struct{}{}
			positions = append(positions, p.Position)
		}
		if len(p.Choices) > maxRound {
			maxRound = len(p.Choices)
		}
	}

	sort.Strings(positions)
	return positions, maxRound
}

func (e *Engine) participantLocked(id string) *models.Participant {
	for i := range e.state.Participants {
		if e.state.Participants[i].ID == id {
			return &e.state.Participants[i]
		}
	}
	return nil
}

func (e *Engine) teamIndexLocked(id string) int {
	for i := range e.state.Teams {
		if e.state.Teams[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the current state through the snapshot store.
// Persistence is best-effort: a failed save is logged, never breaks the
// mutation that triggered it.
func (e *Engine) persistLocked() {
	if e.snapshots == nil {
		return
	}
	if err := e.snapshots.Save(e.state.Clone()); err != nil {
		logger.Error("Failed to persist draft state", "error", err)
	}
}

func (e *Engine) publish(eventType string, payload map[string]interface{}) {
	if e.ps == nil {
		return
	}
	e.ps.Publish(pubsub.Event{Type: eventType, Payload: payload})
}

// publishLocked is safe to call under the mutex: PubSub delivery is
// non-blocking.
func (e *Engine) publishLocked(eventType string, payload map[string]interface{}) {
	e.publish(eventType, payload)
}
