// Package v1 exposes the encounter and combat session services over JSON
// HTTP. Handlers translate between wire models and service inputs; all
// decisions live in the orchestrators.
package v1

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmtabletop/encounter-api/internal/errors"
	"github.com/dmtabletop/encounter-api/internal/orchestrators/encounter"
	"github.com/dmtabletop/encounter-api/internal/orchestrators/session"
)

// Handler serves the v1 API
type Handler struct {
	encounters encounter.Service
	sessions   session.Service
	subscribe  http.HandlerFunc
}

// Config holds the dependencies for the v1 handler
type Config struct {
	Encounters encounter.Service
	Sessions   session.Service

	// Subscribe handles websocket subscription upgrades. Optional; when nil
	// the /ws route is not registered.
	Subscribe http.HandlerFunc
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Encounters == nil {
		vb.RequiredField("Encounters")
	}
	if c.Sessions == nil {
		vb.RequiredField("Sessions")
	}
	return vb.Build()
}

// NewHandler creates a new v1 handler with the provided dependencies
func NewHandler(cfg *Config) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Handler{
		encounters: cfg.Encounters,
		sessions:   cfg.Sessions,
		subscribe:  cfg.Subscribe,
	}, nil
}

// RegisterRoutes attaches all v1 routes to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/encounters", h.createEncounter)
	mux.HandleFunc("GET /api/v1/encounters", h.listEncounters)
	mux.HandleFunc("GET /api/v1/encounters/{slug}", h.getEncounter)
	mux.HandleFunc("PUT /api/v1/encounters/{slug}", h.updateEncounter)
	mux.HandleFunc("DELETE /api/v1/encounters/{slug}", h.deleteEncounter)
	mux.HandleFunc("POST /api/v1/difficulty/preview", h.previewDifficulty)

	mux.HandleFunc("GET /api/v1/sessions", h.listSessions)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session", h.startSession)
	mux.HandleFunc("GET /api/v1/encounters/{slug}/session", h.getSession)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/initiative", h.setInitiative)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/begin", h.beginTurns)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/advance", h.advanceTurn)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/damage", h.applyDamage)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/heal", h.applyHealing)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/temp-hp", h.addTemporaryHP)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/conditions", h.toggleCondition)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/pause", h.pauseSession)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/resume", h.resumeSession)
	mux.HandleFunc("POST /api/v1/encounters/{slug}/session/end", h.endSession)

	if h.subscribe != nil {
		mux.HandleFunc("GET /ws", h.subscribe)
	}
}

func (h *Handler) createEncounter(w http.ResponseWriter, r *http.Request) {
	var req createEncounterRequest
	if !decode(w, r, &req) {
		return
	}

	out, err := h.encounters.CreateEncounter(r.Context(), &encounter.CreateEncounterInput{
		Name:       req.Name,
		PartyLevel: req.PartyLevel,
		PartySize:  req.PartySize,
		Creatures:  creatureInputs(req.Creatures),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, encounterResponse{
		Encounter:  out.Definition,
		Difficulty: out.Classification,
	})
}

func (h *Handler) getEncounter(w http.ResponseWriter, r *http.Request) {
	out, err := h.encounters.GetEncounter(r.Context(), &encounter.GetEncounterInput{
		Slug: r.PathValue("slug"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, encounterResponse{
		Encounter:  out.Definition,
		Difficulty: out.Classification,
	})
}

func (h *Handler) updateEncounter(w http.ResponseWriter, r *http.Request) {
	var req updateEncounterRequest
	if !decode(w, r, &req) {
		return
	}

	out, err := h.encounters.UpdateEncounter(r.Context(), &encounter.UpdateEncounterInput{
		Slug:       r.PathValue("slug"),
		Name:       req.Name,
		PartyLevel: req.PartyLevel,
		PartySize:  req.PartySize,
		Creatures:  creatureInputs(req.Creatures),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, encounterResponse{
		Encounter:  out.Definition,
		Difficulty: out.Classification,
	})
}

func (h *Handler) deleteEncounter(w http.ResponseWriter, r *http.Request) {
	_, err := h.encounters.DeleteEncounter(r.Context(), &encounter.DeleteEncounterInput{
		Slug: r.PathValue("slug"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listEncounters(w http.ResponseWriter, r *http.Request) {
	out, err := h.encounters.ListEncounters(r.Context(), &encounter.ListEncountersInput{})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, encounterListResponse{Encounters: out.Definitions})
}

func (h *Handler) previewDifficulty(w http.ResponseWriter, r *http.Request) {
	var req previewDifficultyRequest
	if !decode(w, r, &req) {
		return
	}

	out, err := h.encounters.PreviewDifficulty(r.Context(), &encounter.PreviewDifficultyInput{
		PartyLevel: req.PartyLevel,
		PartySize:  req.PartySize,
		Creatures:  creatureInputs(req.Creatures),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, difficultyResponse{Difficulty: out.Classification})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decode(w, r, &req) {
		return
	}

	members := make([]session.PartyMemberInput, 0, len(req.PartyMembers))
	for _, m := range req.PartyMembers {
		members = append(members, session.PartyMemberInput{
			CharacterID: m.CharacterID,
			DisplayName: m.DisplayName,
		})
	}

	out, err := h.sessions.StartSession(r.Context(), &session.StartSessionInput{
		EncounterSlug: r.PathValue("slug"),
		PartyMembers:  members,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Session: out.Session})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	out, err := h.sessions.GetSession(r.Context(), &session.GetSessionInput{
		EncounterID: r.PathValue("slug"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	out, err := h.sessions.ListActiveSessions(r.Context(), &session.ListActiveSessionsInput{})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionListResponse{Sessions: out.Sessions})
}

func (h *Handler) setInitiative(w http.ResponseWriter, r *http.Request) {
	var req setInitiativeRequest
	if !decode(w, r, &req) {
		return
	}

	assignments := make([]session.InitiativeAssignment, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		assignments = append(assignments, session.InitiativeAssignment{
			CombatantID: a.CombatantID,
			GroupKey:    a.GroupKey,
			Initiative:  a.Initiative,
		})
	}

	out, err := h.sessions.SetInitiative(r.Context(), &session.SetInitiativeInput{
		EncounterID: r.PathValue("slug"),
		Assignments: assignments,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) beginTurns(w http.ResponseWriter, r *http.Request) {
	out, err := h.sessions.BeginTurns(r.Context(), &session.BeginTurnsInput{
		EncounterID: r.PathValue("slug"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) advanceTurn(w http.ResponseWriter, r *http.Request) {
	var req advanceTurnRequest
	if !decode(w, r, &req) {
		return
	}

	out, err := h.sessions.AdvanceTurn(r.Context(), &session.AdvanceTurnInput{
		EncounterID: r.PathValue("slug"),
		Direction:   req.Direction,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) applyDamage(w http.ResponseWriter, r *http.Request) {
	var req ledgerRequest
	if !decode(w, r, &req) {
		return
	}

	out, err := h.sessions.ApplyDamage(r.Context(), &session.ApplyDamageInput{
		EncounterID: r.PathValue("slug"),
		CombatantID: req.CombatantID,
		Amount:      req.Amount,
		Source:      req.Source,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) applyHealing(w http.ResponseWriter, r *http.Request) {
	var req ledgerRequest
	if !decode(w, r, &req) {
		return
	}

	out, err := h.sessions.ApplyHealing(r.Context(), &session.ApplyHealingInput{
		EncounterID: r.PathValue("slug"),
		CombatantID: req.CombatantID,
		Amount:      req.Amount,
		Source:      req.Source,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) addTemporaryHP(w http.ResponseWriter, r *http.Request) {
	var req ledgerRequest
	if !decode(w, r, &req) {
		return
	}

	out, err := h.sessions.AddTemporaryHP(r.Context(), &session.AddTemporaryHPInput{
		EncounterID: r.PathValue("slug"),
		CombatantID: req.CombatantID,
		Amount:      req.Amount,
		Source:      req.Source,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) toggleCondition(w http.ResponseWriter, r *http.Request) {
	var req toggleConditionRequest
	if !decode(w, r, &req) {
		return
	}

	out, err := h.sessions.ToggleCondition(r.Context(), &session.ToggleConditionInput{
		EncounterID: r.PathValue("slug"),
		CombatantID: req.CombatantID,
		Condition:   req.Condition,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) pauseSession(w http.ResponseWriter, r *http.Request) {
	out, err := h.sessions.PauseSession(r.Context(), &session.PauseSessionInput{
		EncounterID: r.PathValue("slug"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) resumeSession(w http.ResponseWriter, r *http.Request) {
	out, err := h.sessions.ResumeSession(r.Context(), &session.ResumeSessionInput{
		EncounterID: r.PathValue("slug"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	out, err := h.sessions.EndSession(r.Context(), &session.EndSessionInput{
		EncounterID: r.PathValue("slug"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: out.Session})
}

func creatureInputs(reqs []creatureRequest) []encounter.CreatureInput {
	inputs := make([]encounter.CreatureInput, 0, len(reqs))
	for _, c := range reqs {
		inputs = append(inputs, encounter.CreatureInput{
			ReferenceID:     c.ReferenceID,
			DisplayName:     c.DisplayName,
			ChallengeRating: c.ChallengeRating,
			Quantity:        c.Quantity,
		})
	}
	return inputs
}

// decode parses the request body, writing a 400 and returning false on
// malformed JSON. An empty body decodes as the zero request; the services
// validate from there.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && err != io.EOF {
		writeError(w, errors.InvalidArgumentf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	writeJSON(w, code.HTTPStatus(), errorResponse{
		Error: errorBody{
			Code:    code.String(),
			Message: errors.GetMessage(err),
			Details: errors.GetMeta(err),
		},
	})
}
