package review

import "github.com/scanline-ai/shieldrev/internal/model"

// action is the closed vocabulary the reducer consumes. Network
// operations contribute a started action and a finished/failed pair; the
// local edits are synchronous and total.
type action interface {
	isAction()
}

type loadStarted struct{}

type loadFinished struct {
	Shields      []model.Shield
	Explanations []model.PrecedenceExplanation
	Zones        []model.Zone
}

type loadFailed struct{ Err string }

type saveVendorStarted struct{}
type saveVendorFinished struct{}
type saveVendorFailed struct{ Err string }

type saveTemplateStarted struct{}
type saveTemplateFinished struct{}
type saveTemplateFailed struct{ Err string }

type rerunStarted struct{}
type rerunFinished struct{}
type rerunFailed struct{ Err string }

// validationFailed is a local pre-network failure for a save that is
// missing its vendor or template id. Op names the operation state the
// failed action belongs to, so retry replays it.
type validationFailed struct {
	Op  StateType
	Err string
}

type addShield struct{ Shield model.Shield }
type updateShield struct{ Shield model.Shield }
type removeShieldAction struct{ ID string }

type setApplyMode struct {
	ID   string
	Mode model.ApplyMode
}

type setPageTarget struct {
	ID     string
	Target model.PageTarget
}

type setZoneTarget struct {
	ID     string
	Target model.ZoneTarget
}

type retryAction struct{}
type dismissError struct{}

func (loadStarted) isAction()          {}
func (loadFinished) isAction()         {}
func (loadFailed) isAction()           {}
func (saveVendorStarted) isAction()    {}
func (saveVendorFinished) isAction()   {}
func (saveVendorFailed) isAction()     {}
func (saveTemplateStarted) isAction()  {}
func (saveTemplateFinished) isAction() {}
func (saveTemplateFailed) isAction()   {}
func (rerunStarted) isAction()         {}
func (rerunFinished) isAction()        {}
func (rerunFailed) isAction()          {}
func (validationFailed) isAction()     {}
func (addShield) isAction()            {}
func (updateShield) isAction()         {}
func (removeShieldAction) isAction()   {}
func (setApplyMode) isAction()         {}
func (setPageTarget) isAction()        {}
func (setZoneTarget) isAction()        {}
func (retryAction) isAction()          {}
func (dismissError) isAction()         {}
