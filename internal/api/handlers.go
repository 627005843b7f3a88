package api

import (
	"net/http"

	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/model"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Conflicts ---

type conflictsRequest struct {
	Shields    []model.Shield `json:"shields"`
	Zones      []model.Zone   `json:"zones"`
	Thresholds *struct {
		Warn     float64 `json:"warn"`
		Critical float64 `json:"critical"`
	} `json:"thresholds,omitempty"`
}

type conflictsResponse struct {
	Conflicts      []model.ZoneConflict       `json:"conflicts"`
	EffectiveModes map[string]model.ApplyMode `json:"effectiveModes"`
	MaxRisk        string                     `json:"maxRisk"`
}

// handleConflicts exposes the geometry evaluator as a service: given
// shields and zones, report conflicts and the apply modes the UI should
// display.
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	var req conflictsRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	th := s.thresholds
	if req.Thresholds != nil {
		th = geometry.Thresholds{Warn: req.Thresholds.Warn, Critical: req.Thresholds.Critical}
	}
	if th.Warn <= 0 || th.Critical < th.Warn {
		s.writeError(w, http.StatusBadRequest, "invalid thresholds")
		return
	}

	conflicts := geometry.EvaluateConflicts(req.Shields, req.Zones, th)

	resp := conflictsResponse{
		Conflicts:      conflicts,
		EffectiveModes: make(map[string]model.ApplyMode, len(req.Shields)),
		MaxRisk:        model.RiskLow.String(),
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []model.ZoneConflict{}
	}
	maxRisk := model.RiskLow
	for _, sh := range req.Shields {
		resp.EffectiveModes[sh.ID] = geometry.EffectiveApplyMode(sh, conflicts)
		if risk := geometry.MaxRisk(sh, conflicts); risk > maxRisk {
			maxRisk = risk
		}
	}
	resp.MaxRisk = maxRisk.String()

	s.writeJSON(w, http.StatusOK, resp)
}

// --- Sessions ---

type sessionResponse struct {
	CaseID        string         `json:"caseId"`
	Shields       []model.Shield `json:"shields"`
	LastModified  string         `json:"lastModified"`
	PendingAction string         `json:"pendingAction,omitempty"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "session store not configured")
		return
	}
	caseID := r.PathValue("caseID")

	snap, ok := s.store.Load(caseID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no session snapshot for case "+caseID)
		return
	}

	s.writeJSON(w, http.StatusOK, sessionResponse{
		CaseID:        snap.CaseID,
		Shields:       snap.Shields,
		LastModified:  snap.LastModified.Format("2006-01-02T15:04:05Z07:00"),
		PendingAction: snap.PendingAction,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "session store not configured")
		return
	}
	s.store.Clear(r.PathValue("caseID"))
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
