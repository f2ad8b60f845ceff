package services

import (
	"context"
	"errors"
	"fmt"
)

// WizardStep is a 1-based position in the scoping wizard.
type WizardStep int

const (
	StepInput WizardStep = iota + 1
	StepLabour
	StepEquipment
	StepChemical
	StepTime
	StepSummary
	StepCompliance
	StepOutput
)

var stepNames = map[WizardStep]string{
	StepInput:      "Input",
	StepLabour:     "Labour",
	StepEquipment:  "Equipment",
	StepChemical:   "Chemical",
	StepTime:       "Time/Productivity",
	StepSummary:    "Summary",
	StepCompliance: "Compliance",
	StepOutput:     "Output",
}

func (s WizardStep) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

var (
	ErrLastStep       = errors.New("already on the last step")
	ErrFirstStep      = errors.New("already on the first step")
	ErrStepNotReached = errors.New("step has not been reached yet")
	ErrIndexRange     = errors.New("line index out of range")
	ErrNoReportID     = errors.New("scope has no report id")
)

// Wizard is the linear eight-step scoping workflow. It owns the draft and
// recomputes the summary after every mutation. It keeps no undo history and
// is not safe for concurrent use.
type Wizard struct {
	step    WizardStep
	reached WizardStep
	draft   ScopeDraft
	catalog Catalog
	summary ScopeSummary
}

// NewWizard starts a wizard on the Input step for the given draft.
func NewWizard(draft ScopeDraft, catalog Catalog) *Wizard {
	w := &Wizard{step: StepInput, reached: StepInput, draft: cloneScopeDraft(draft), catalog: catalog}
	w.recompute()
	return w
}

func (w *Wizard) recompute() {
	w.summary = CalcScopeSummary(w.draft, w.catalog)
}

// Step returns the current step.
func (w *Wizard) Step() WizardStep { return w.step }

// Draft returns a copy of the current draft. Changing it does not affect the
// wizard.
func (w *Wizard) Draft() ScopeDraft { return cloneScopeDraft(w.draft) }

// Summary returns the summary for the current draft.
func (w *Wizard) Summary() ScopeSummary { return w.summary }

// Next advances one step.
func (w *Wizard) Next() error {
	if w.step >= StepOutput {
		return ErrLastStep
	}
	w.step++
	if w.step > w.reached {
		w.reached = w.step
	}
	return nil
}

// Back returns one step. Entered data is kept.
func (w *Wizard) Back() error {
	if w.step <= StepInput {
		return ErrFirstStep
	}
	w.step--
	return nil
}

// GoTo jumps to any step already reached.
func (w *Wizard) GoTo(step WizardStep) error {
	if step < StepInput || step > StepOutput {
		return fmt.Errorf("goto %d: %w", int(step), ErrStepNotReached)
	}
	if step > w.reached {
		return fmt.Errorf("goto %s: %w", step, ErrStepNotReached)
	}
	w.step = step
	return nil
}

// SetSite replaces the site variables.
func (w *Wizard) SetSite(site SiteVariables) {
	w.draft.Site = site
	w.recompute()
}

// SetModifiers replaces the job modifiers.
func (w *Wizard) SetModifiers(m Modifiers) {
	w.draft.Modifiers = m
	w.recompute()
}

// AddLabour appends a labour role.
func (w *Wizard) AddLabour(role LabourRole) {
	w.draft.Labour = append(w.draft.Labour, role)
	w.recompute()
}

// UpdateLabour replaces the labour role at index i.
func (w *Wizard) UpdateLabour(i int, role LabourRole) error {
	if i < 0 || i >= len(w.draft.Labour) {
		return ErrIndexRange
	}
	w.draft.Labour[i] = role
	w.recompute()
	return nil
}

// RemoveLabour deletes the labour role at index i.
func (w *Wizard) RemoveLabour(i int) error {
	if i < 0 || i >= len(w.draft.Labour) {
		return ErrIndexRange
	}
	w.draft.Labour = append(w.draft.Labour[:i:i], w.draft.Labour[i+1:]...)
	w.recompute()
	return nil
}

// AddEquipment appends an equipment line.
func (w *Wizard) AddEquipment(line EquipmentLine) {
	w.draft.Equipment = append(w.draft.Equipment, line)
	w.recompute()
}

// RemoveEquipment deletes the equipment line at index i.
func (w *Wizard) RemoveEquipment(i int) error {
	if i < 0 || i >= len(w.draft.Equipment) {
		return ErrIndexRange
	}
	w.draft.Equipment = append(w.draft.Equipment[:i:i], w.draft.Equipment[i+1:]...)
	w.recompute()
	return nil
}

// AddChemical appends a chemical line.
func (w *Wizard) AddChemical(line ChemicalLine) {
	w.draft.Chemicals = append(w.draft.Chemicals, line)
	w.recompute()
}

// RemoveChemical deletes the chemical line at index i.
func (w *Wizard) RemoveChemical(i int) error {
	if i < 0 || i >= len(w.draft.Chemicals) {
		return ErrIndexRange
	}
	w.draft.Chemicals = append(w.draft.Chemicals[:i:i], w.draft.Chemicals[i+1:]...)
	w.recompute()
	return nil
}

// SetCompliance replaces the compliance checklist.
func (w *Wizard) SetCompliance(items []ComplianceItem) {
	w.draft.Compliance = append([]ComplianceItem(nil), items...)
	w.recompute()
}

// ScopeSaver persists a whole draft and returns the stored scope with the
// summary priced server-side. *apiclient.Client satisfies it.
type ScopeSaver interface {
	SaveScope(ctx context.Context, draft ScopeDraft) (*SavedScope, error)
}

// Save posts the entire draft in one call and adopts the returned summary,
// which reflects the account's pricing. The draft is left untouched on error.
func (w *Wizard) Save(ctx context.Context, saver ScopeSaver) (*SavedScope, error) {
	if w.draft.ReportID == "" {
		return nil, ErrNoReportID
	}
	saved, err := saver.SaveScope(ctx, w.Draft())
	if err != nil {
		return nil, fmt.Errorf("save scope %s: %w", w.draft.ReportID, err)
	}
	w.summary = saved.Summary
	return saved, nil
}

func cloneScopeDraft(d ScopeDraft) ScopeDraft {
	out := d
	out.Labour = append([]LabourRole(nil), d.Labour...)
	out.Equipment = append([]EquipmentLine(nil), d.Equipment...)
	out.Chemicals = append([]ChemicalLine(nil), d.Chemicals...)
	out.Compliance = append([]ComplianceItem(nil), d.Compliance...)
	return out
}

// DefaultCompliance is the checklist offered on the Compliance step.
func DefaultCompliance() []ComplianceItem {
	return []ComplianceItem{
		{Standard: "IICRC S500 Water Damage Restoration"},
		{Standard: "IICRC S520 Mould Remediation"},
		{Standard: "AS/NZS 4360 Risk Management"},
		{Standard: "Work Health and Safety Act 2011"},
	}
}
