package review

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/model"
	"github.com/scanline-ai/shieldrev/internal/session"
)

// Local validation errors: these never reach the network.
var (
	ErrNoVendorID   = errors.New("no vendor id set for this case; cannot save vendor rules")
	ErrNoTemplateID = errors.New("no template id set for this case; cannot save template rules")
)

// ResolveRequest is what the engine sends to the resolver on load.
// Session overrides ride along so a reload after a crash is resolved
// with local edits still in play.
type ResolveRequest struct {
	CaseID           string
	VendorID         string
	TemplateID       string
	SessionOverrides []model.Shield
}

// ResolveResult is the resolver's merged view of a case.
type ResolveResult struct {
	Shields      []model.Shield
	Explanations []model.PrecedenceExplanation
	Zones        []model.Zone
}

// Resolver is the external service boundary. Implementations report
// failure via an error whose message is shown to the operator verbatim;
// the engine never interprets anything beyond success or failure.
type Resolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (*ResolveResult, error)
	SaveVendorRules(ctx context.Context, vendorID string, shields []model.Shield) error
	SaveTemplateRules(ctx context.Context, templateID, vendorID string, shields []model.Shield) error
	SnapshotAndRerun(ctx context.Context, caseID string, shields []model.Shield) error
}

// Config wires an Engine.
type Config struct {
	CaseID     string
	VendorID   string
	TemplateID string
	Resolver   Resolver
	// Store is optional; without it edits are session-only in memory.
	Store      *session.Store
	Logger     *zap.Logger
	Thresholds geometry.Thresholds
}

// Engine owns one State per case-review session. Local edits apply
// synchronously; network operations flip the machine into a busy state
// and deliver their outcome as a second action when the call returns.
// The engine serializes access internally, but single-flight for
// save/rerun is the host's obligation: it must not start a second
// operation while State().Busy().
type Engine struct {
	mu    sync.Mutex
	state State

	resolver   Resolver
	store      *session.Store
	log        *zap.Logger
	thresholds geometry.Thresholds

	// lastOp replays the previous network operation with its original
	// arguments; set when an operation starts, consumed by Retry.
	lastOp func(ctx context.Context)

	onChange func(State)
}

// NewEngine builds the engine for one case session, seeding unsaved work
// from the durability store when a snapshot for the case exists.
func NewEngine(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	th := cfg.Thresholds
	if th.Warn == 0 && th.Critical == 0 {
		th = geometry.DefaultThresholds()
	}

	e := &Engine{
		resolver:   cfg.Resolver,
		store:      cfg.Store,
		log:        log,
		thresholds: th,
		state: State{
			Type:       StateLoadingCase,
			CaseID:     cfg.CaseID,
			VendorID:   cfg.VendorID,
			TemplateID: cfg.TemplateID,
		},
	}

	if cfg.Store != nil {
		if snap, ok := cfg.Store.Load(cfg.CaseID); ok {
			for _, sh := range snap.Shields {
				e.state.nextVersion++
				e.state.Overrides = append(e.state.Overrides, Override{
					Shield:  sh,
					Version: e.state.nextVersion,
				})
			}
			log.Info("restored session overrides",
				zap.String("case_id", cfg.CaseID),
				zap.Int("count", len(snap.Shields)))
		}
	}

	return e
}

// OnChange registers a callback invoked with a state copy after every
// action. Used by hosts that push state outward (the WS session).
func (e *Engine) OnChange(fn func(State)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// dispatch runs one action through the reducer, persists the override
// snapshot, and notifies the change listener.
func (e *Engine) dispatch(a action) State {
	e.mu.Lock()
	e.state = reduce(e.state, a, e.thresholds)
	snapshot := e.state.clone()
	notify := e.onChange
	e.mu.Unlock()

	e.persist(snapshot)
	if notify != nil {
		notify(snapshot)
	}
	return snapshot
}

// persist mirrors the override set into the durability store: saved
// while non-empty, cleared once the machine is ready with nothing
// pending. Best-effort either way.
func (e *Engine) persist(s State) {
	if e.store == nil {
		return
	}
	if len(s.Overrides) > 0 {
		pending := ""
		if s.Type.isOperation() {
			pending = s.Type.String()
		}
		e.store.Save(s.CaseID, s.OverrideShields(), pending)
	} else if s.Type == StateReady {
		e.store.Clear(s.CaseID)
	}
}

// LoadCase resolves the case against the server, sending current session
// overrides along. Blocks for the round trip; hosts run it in their own
// async machinery (a tea.Cmd, a WS handler goroutine).
func (e *Engine) LoadCase(ctx context.Context) State {
	e.mu.Lock()
	req := ResolveRequest{
		CaseID:           e.state.CaseID,
		VendorID:         e.state.VendorID,
		TemplateID:       e.state.TemplateID,
		SessionOverrides: e.state.OverrideShields(),
	}
	e.lastOp = func(ctx context.Context) { e.performLoad(ctx, req) }
	e.mu.Unlock()

	e.dispatch(loadStarted{})
	e.performLoad(ctx, req)
	return e.State()
}

func (e *Engine) performLoad(ctx context.Context, req ResolveRequest) {
	res, err := e.resolver.Resolve(ctx, req)
	if err != nil {
		e.log.Warn("resolve failed", zap.String("case_id", req.CaseID), zap.Error(err))
		e.dispatch(loadFailed{Err: err.Error()})
		return
	}
	e.dispatch(loadFinished{
		Shields:      res.Shields,
		Explanations: res.Explanations,
		Zones:        res.Zones,
	})
}

// SaveVendorRules persists the working set as a vendor rule. Fails fast
// locally when the case has no vendor id; no network call is issued.
func (e *Engine) SaveVendorRules(ctx context.Context) State {
	e.mu.Lock()
	vendorID := e.state.VendorID
	shields := append([]model.Shield(nil), e.state.Shields...)
	e.mu.Unlock()

	if vendorID == "" {
		e.mu.Lock()
		e.lastOp = func(ctx context.Context) { e.SaveVendorRules(ctx) }
		e.mu.Unlock()
		return e.dispatch(validationFailed{Op: StateSavingRulesVendor, Err: ErrNoVendorID.Error()})
	}

	e.mu.Lock()
	e.lastOp = func(ctx context.Context) { e.performSaveVendor(ctx, vendorID, shields) }
	e.mu.Unlock()

	e.dispatch(saveVendorStarted{})
	e.performSaveVendor(ctx, vendorID, shields)
	return e.State()
}

func (e *Engine) performSaveVendor(ctx context.Context, vendorID string, shields []model.Shield) {
	if err := e.resolver.SaveVendorRules(ctx, vendorID, shields); err != nil {
		e.log.Warn("vendor rule save failed", zap.String("vendor_id", vendorID), zap.Error(err))
		e.dispatch(saveVendorFailed{Err: err.Error()})
		return
	}
	e.dispatch(saveVendorFinished{})
}

// SaveTemplateRules persists the working set as a template rule. Fails
// fast locally when the case has no template id.
func (e *Engine) SaveTemplateRules(ctx context.Context) State {
	e.mu.Lock()
	templateID := e.state.TemplateID
	vendorID := e.state.VendorID
	shields := append([]model.Shield(nil), e.state.Shields...)
	e.mu.Unlock()

	if templateID == "" {
		e.mu.Lock()
		e.lastOp = func(ctx context.Context) { e.SaveTemplateRules(ctx) }
		e.mu.Unlock()
		return e.dispatch(validationFailed{Op: StateSavingRulesTemplate, Err: ErrNoTemplateID.Error()})
	}

	e.mu.Lock()
	e.lastOp = func(ctx context.Context) { e.performSaveTemplate(ctx, templateID, vendorID, shields) }
	e.mu.Unlock()

	e.dispatch(saveTemplateStarted{})
	e.performSaveTemplate(ctx, templateID, vendorID, shields)
	return e.State()
}

func (e *Engine) performSaveTemplate(ctx context.Context, templateID, vendorID string, shields []model.Shield) {
	if err := e.resolver.SaveTemplateRules(ctx, templateID, vendorID, shields); err != nil {
		e.log.Warn("template rule save failed", zap.String("template_id", templateID), zap.Error(err))
		e.dispatch(saveTemplateFailed{Err: err.Error()})
		return
	}
	e.dispatch(saveTemplateFinished{})
}

// RerunExtraction snapshots the working set upstream and triggers
// re-extraction. Same success/failure contract as the saves.
func (e *Engine) RerunExtraction(ctx context.Context) State {
	e.mu.Lock()
	caseID := e.state.CaseID
	shields := append([]model.Shield(nil), e.state.Shields...)
	e.lastOp = func(ctx context.Context) { e.performRerun(ctx, caseID, shields) }
	e.mu.Unlock()

	e.dispatch(rerunStarted{})
	e.performRerun(ctx, caseID, shields)
	return e.State()
}

func (e *Engine) performRerun(ctx context.Context, caseID string, shields []model.Shield) {
	if err := e.resolver.SnapshotAndRerun(ctx, caseID, shields); err != nil {
		e.log.Warn("rerun failed", zap.String("case_id", caseID), zap.Error(err))
		e.dispatch(rerunFailed{Err: err.Error()})
		return
	}
	e.dispatch(rerunFinished{})
}

// AddShield commits a new shield into the working set and the unsaved
// work set. Degenerate draws are rejected before they commit.
func (e *Engine) AddShield(sh model.Shield) (State, error) {
	if err := sh.Validate(); err != nil {
		return e.State(), err
	}
	return e.dispatch(addShield{Shield: sh}), nil
}

// UpdateShield replaces a shield wholesale (geometry edits and the like).
func (e *Engine) UpdateShield(sh model.Shield) (State, error) {
	if err := sh.Validate(); err != nil {
		return e.State(), err
	}
	return e.dispatch(updateShield{Shield: sh}), nil
}

// RemoveShield drops a shield from the working set and the unsaved work.
func (e *Engine) RemoveShield(id string) State {
	return e.dispatch(removeShieldAction{ID: id})
}

// SetApplyMode changes whether a shield masks, suggests, or is inert.
func (e *Engine) SetApplyMode(id string, mode model.ApplyMode) State {
	return e.dispatch(setApplyMode{ID: id, Mode: mode})
}

// SetPageTarget changes which pages a shield applies to.
func (e *Engine) SetPageTarget(id string, target model.PageTarget) State {
	return e.dispatch(setPageTarget{ID: id, Target: target})
}

// SetZoneTarget changes which zones a shield applies to.
func (e *Engine) SetZoneTarget(id string, target model.ZoneTarget) State {
	return e.dispatch(setZoneTarget{ID: id, Target: target})
}

// Retry replays the last failed operation with its original arguments.
// With nothing to replay it just returns to ready.
func (e *Engine) Retry(ctx context.Context) State {
	e.mu.Lock()
	op := e.lastOp
	replay := e.state.Type == StateErrorNonblocking && e.state.HasPrevious && e.state.Previous.isOperation()
	e.mu.Unlock()

	s := e.dispatch(retryAction{})
	if replay && op != nil {
		op(ctx)
		return e.State()
	}
	return s
}

// DismissError acknowledges the last failure and returns to editing.
// Nothing is lost and nothing is fixed.
func (e *Engine) DismissError() State {
	return e.dispatch(dismissError{})
}
