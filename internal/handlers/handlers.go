package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jwoo-kim/team-draft/internal/draft"
	"github.com/jwoo-kim/team-draft/internal/logger"
	"github.com/jwoo-kim/team-draft/internal/models"
	"github.com/jwoo-kim/team-draft/internal/pubsub"
)

// APIHandlers contains all API handler methods
type APIHandlers struct {
	engine *draft.Engine
	pubsub *pubsub.PubSub
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(engine *draft.Engine, ps *pubsub.PubSub) *APIHandlers {
	return &APIHandlers{
		engine: engine,
		pubsub: ps,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, map[string]bool{"ok": true})
}

// statusFor maps engine errors onto HTTP status codes. Invalid
// transitions are conflicts, bad inputs are bad requests.
func statusFor(err error) int {
	switch {
	case errors.Is(err, draft.ErrNotStarted),
		errors.Is(err, draft.ErrAlreadyStarted),
		errors.Is(err, draft.ErrDraftFinished),
		errors.Is(err, draft.ErrNoTeams):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// GetState returns the full draft state document
func (h *APIHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	logger.Debug("Getting draft state")
	writeJSON(w, h.engine.State())
}

// Ingest replaces the participant and team model from raw sheet text.
// Accepts either {"data": "..."} JSON or a raw text body.
func (h *APIHandlers) Ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	raw := string(body)
	if r.Header.Get("Content-Type") == "application/json" {
		var req struct {
			Data string `json:"data"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw = req.Data
	}

	logger.Info("Ingesting preference sheet", "bytes", len(raw))
	if err := h.engine.Ingest(raw); err != nil {
		logger.Error("Failed to ingest sheet", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, h.engine.State())
}

// StartDraft starts the draft
func (h *APIHandlers) StartDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger.Info("Starting draft")
	if err := h.engine.Start(); err != nil {
		logger.Warn("Failed to start draft", "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, h.engine.Turn())
}

// NextTurn hands the turn to the following team
func (h *APIHandlers) NextTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, err := h.engine.Next()
	if err != nil {
		logger.Warn("Failed to advance turn", "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, map[string]interface{}{
		"status": status,
		"turn":   h.engine.Turn(),
	})
}

// ResetDraft resets the draft to initial state
func (h *APIHandlers) ResetDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger.Info("Resetting draft")
	if err := h.engine.Reset(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeOK(w)
}

// Pick assigns a participant to a team. With no teamId the active team
// (turn's team while started, otherwise the selected team) is used.
func (h *APIHandlers) Pick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ParticipantID string `json:"participantId"`
		TeamID        string `json:"teamId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode pick request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("Picking participant", "participant_id", req.ParticipantID, "team_id", req.TeamID)

	var err error
	if req.TeamID != "" {
		err = h.engine.PickFor(req.ParticipantID, req.TeamID)
	} else {
		err = h.engine.Pick(req.ParticipantID)
	}
	if err != nil {
		logger.Error("Failed to pick participant", "error", err, "participant_id", req.ParticipantID)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeOK(w)
}

// Unpick clears a participant's team assignment
func (h *APIHandlers) Unpick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ParticipantID string `json:"participantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("Unpicking participant", "participant_id", req.ParticipantID)
	if err := h.engine.Unpick(req.ParticipantID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeOK(w)
}

// ListParticipants returns the participant list with the current filters
// applied
func (h *APIHandlers) ListParticipants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.FilteredParticipants())
}

// AddParticipant appends a manually entered participant
func (h *APIHandlers) AddParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var p models.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	added, err := h.engine.AddParticipant(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, added)
}

// RemoveParticipant deletes a participant by id
func (h *APIHandlers) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.engine.RemoveParticipant(req.ID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeOK(w)
}

// ListTeams returns all teams in draft order
func (h *APIHandlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Teams())
}

// TeamMembers returns the participants assigned to the team in the id
// query parameter
func (h *APIHandlers) TeamMembers(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	writeJSON(w, h.engine.TeamMembers(id))
}

// Summary returns participants grouped by assigned team, including the
// unassigned group
func (h *APIHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Summary())
}

// SetFilters updates the read-side filter selections. Fields left out of
// the request keep their current value.
func (h *APIHandlers) SetFilters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Position   *string `json:"position"`
		Assignment *string `json:"assignment"`
		Round      *int    `json:"round"`
		TeamID     *string `json:"teamId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Position != nil {
		h.engine.SetPositionFilter(*req.Position)
	}
	if req.Assignment != nil {
		if err := h.engine.SetAssignmentFilter(*req.Assignment); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Round != nil {
		if err := h.engine.SetRoundFilter(*req.Round); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.TeamID != nil {
		h.engine.SetTeamFilter(*req.TeamID)
	}

	writeJSON(w, h.engine.Filters())
}

// EventsSSE provides Server-Sent Events for realtime updates
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for {
		select {
		case event := <-eventChan:
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "data: %s\n\n", data)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-time.After(30 * time.Second):
			// Keepalive ping
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
