package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/model"
	"github.com/scanline-ai/shieldrev/internal/review"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev; restrict in production
	},
}

// WebSocket message types from client.
const (
	wsMsgLoadCase      = "load_case"
	wsMsgAddShield     = "add_shield"
	wsMsgUpdateShield  = "update_shield"
	wsMsgRemoveShield  = "remove_shield"
	wsMsgSetApplyMode  = "set_apply_mode"
	wsMsgSetPageTarget = "set_page_target"
	wsMsgSetZoneTarget = "set_zone_target"
	wsMsgSaveVendor    = "save_vendor"
	wsMsgSaveTemplate  = "save_template"
	wsMsgRerun         = "rerun"
	wsMsgRetry         = "retry"
	wsMsgDismiss       = "dismiss"
)

// WebSocket message types to client.
const (
	wsMsgState = "state"
	wsMsgError = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsLoadCase is the payload for "load_case" messages.
type wsLoadCase struct {
	CaseID     string `json:"case_id"`
	VendorID   string `json:"vendor_id,omitempty"`
	TemplateID string `json:"template_id,omitempty"`
}

// wsShieldMsg carries a full shield for add/update.
type wsShieldMsg struct {
	Shield model.Shield `json:"shield"`
}

// wsShieldRef targets a shield by id.
type wsShieldRef struct {
	ID     string          `json:"id"`
	Mode   string          `json:"mode,omitempty"`
	Target json.RawMessage `json:"target,omitempty"`
}

// wsShieldView is a shield plus its derived display mode.
type wsShieldView struct {
	model.Shield
	EffectiveApplyMode model.ApplyMode `json:"effectiveApplyMode"`
}

// wsStateResponse is the full state snapshot pushed after every action.
type wsStateResponse struct {
	State        string                        `json:"state"`
	Busy         bool                          `json:"busy"`
	CaseID       string                        `json:"case_id"`
	Shields      []wsShieldView                `json:"shields"`
	Overrides    []string                      `json:"override_ids"`
	Explanations []model.PrecedenceExplanation `json:"explanations,omitempty"`
	Conflicts    []model.ZoneConflict          `json:"conflicts,omitempty"`
	Error        string                        `json:"error,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	// One engine per connection, created on load_case. The connection
	// loop is the single-flight host: it refuses to start a second
	// network operation while one is outstanding.
	var engine *review.Engine
	ctx := r.Context()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendWSError(conn, "invalid message format")
			continue
		}

		if msg.Type == wsMsgLoadCase {
			engine = s.handleWSLoadCase(ctx, conn, msg.Data)
			continue
		}

		if engine == nil {
			s.sendWSError(conn, "no case loaded")
			continue
		}

		switch msg.Type {
		case wsMsgAddShield, wsMsgUpdateShield:
			s.handleWSShieldEdit(conn, engine, msg.Type, msg.Data)
		case wsMsgRemoveShield:
			if ref, ok := s.decodeRef(conn, msg.Data); ok {
				s.pushState(conn, engine.RemoveShield(ref.ID))
			}
		case wsMsgSetApplyMode:
			s.handleWSSetApplyMode(conn, engine, msg.Data)
		case wsMsgSetPageTarget:
			s.handleWSSetPageTarget(conn, engine, msg.Data)
		case wsMsgSetZoneTarget:
			s.handleWSSetZoneTarget(conn, engine, msg.Data)
		case wsMsgSaveVendor, wsMsgSaveTemplate, wsMsgRerun, wsMsgRetry:
			s.handleWSOperation(ctx, conn, engine, msg.Type)
		case wsMsgDismiss:
			s.pushState(conn, engine.DismissError())
		default:
			s.sendWSError(conn, "unknown message type: "+msg.Type)
		}
	}
}

func (s *Server) handleWSLoadCase(ctx context.Context, conn *websocket.Conn, data json.RawMessage) *review.Engine {
	var req wsLoadCase
	if err := json.Unmarshal(data, &req); err != nil || req.CaseID == "" {
		s.sendWSError(conn, "invalid load_case data")
		return nil
	}

	engine := review.NewEngine(review.Config{
		CaseID:     req.CaseID,
		VendorID:   req.VendorID,
		TemplateID: req.TemplateID,
		Resolver:   s.resolver,
		Store:      s.store,
		Logger:     s.log,
		Thresholds: s.thresholds,
	})

	s.pushState(conn, engine.LoadCase(ctx))
	return engine
}

func (s *Server) handleWSShieldEdit(conn *websocket.Conn, engine *review.Engine, msgType string, data json.RawMessage) {
	var req wsShieldMsg
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWSError(conn, "invalid shield data")
		return
	}

	var (
		state review.State
		err   error
	)
	if msgType == wsMsgAddShield {
		state, err = engine.AddShield(req.Shield)
	} else {
		state, err = engine.UpdateShield(req.Shield)
	}
	if err != nil {
		s.sendWSError(conn, err.Error())
		return
	}
	s.pushState(conn, state)
}

func (s *Server) handleWSSetApplyMode(conn *websocket.Conn, engine *review.Engine, data json.RawMessage) {
	ref, ok := s.decodeRef(conn, data)
	if !ok {
		return
	}
	mode, err := model.ParseApplyMode(ref.Mode)
	if err != nil {
		s.sendWSError(conn, err.Error())
		return
	}
	s.pushState(conn, engine.SetApplyMode(ref.ID, mode))
}

func (s *Server) handleWSSetPageTarget(conn *websocket.Conn, engine *review.Engine, data json.RawMessage) {
	ref, ok := s.decodeRef(conn, data)
	if !ok {
		return
	}
	var target model.PageTarget
	if err := json.Unmarshal(ref.Target, &target); err != nil {
		s.sendWSError(conn, "invalid page target: "+err.Error())
		return
	}
	s.pushState(conn, engine.SetPageTarget(ref.ID, target))
}

func (s *Server) handleWSSetZoneTarget(conn *websocket.Conn, engine *review.Engine, data json.RawMessage) {
	ref, ok := s.decodeRef(conn, data)
	if !ok {
		return
	}
	var target model.ZoneTarget
	if err := json.Unmarshal(ref.Target, &target); err != nil {
		s.sendWSError(conn, "invalid zone target: "+err.Error())
		return
	}
	s.pushState(conn, engine.SetZoneTarget(ref.ID, target))
}

// handleWSOperation starts a network-backed operation. At most one may
// be in flight per session.
func (s *Server) handleWSOperation(ctx context.Context, conn *websocket.Conn, engine *review.Engine, msgType string) {
	if engine.State().Busy() {
		s.sendWSError(conn, "an operation is already in flight")
		return
	}

	var state review.State
	switch msgType {
	case wsMsgSaveVendor:
		state = engine.SaveVendorRules(ctx)
	case wsMsgSaveTemplate:
		state = engine.SaveTemplateRules(ctx)
	case wsMsgRerun:
		state = engine.RerunExtraction(ctx)
	case wsMsgRetry:
		state = engine.Retry(ctx)
	}
	s.pushState(conn, state)
}

func (s *Server) decodeRef(conn *websocket.Conn, data json.RawMessage) (wsShieldRef, bool) {
	var ref wsShieldRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.ID == "" {
		s.sendWSError(conn, "invalid shield reference")
		return ref, false
	}
	return ref, true
}

// pushState sends the full state snapshot; clients re-render from it
// rather than patching increments.
func (s *Server) pushState(conn *websocket.Conn, state review.State) {
	resp := wsStateResponse{
		State:     state.Type.String(),
		Busy:      state.Busy(),
		CaseID:    state.CaseID,
		Shields:   make([]wsShieldView, 0, len(state.Shields)),
		Overrides: make([]string, 0, len(state.Overrides)),
		Conflicts: state.Conflicts,
		Error:     state.Err,
	}
	for _, sh := range state.Shields {
		resp.Shields = append(resp.Shields, wsShieldView{
			Shield:             sh,
			EffectiveApplyMode: geometry.EffectiveApplyMode(sh, state.Conflicts),
		})
	}
	for _, o := range state.Overrides {
		resp.Overrides = append(resp.Overrides, o.Shield.ID)
	}
	resp.Explanations = state.Explanations

	s.sendWSMessage(conn, wsMsgState, resp)
}

func (s *Server) sendWSMessage(conn *websocket.Conn, msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.Warn("ws marshal", zap.Error(err))
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warn("ws write", zap.Error(err))
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, errMsg string) {
	s.sendWSMessage(conn, wsMsgError, map[string]string{"message": errMsg})
}
