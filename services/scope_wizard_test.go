package services

import (
	"context"
	"errors"
	"testing"
)

func TestWizard_Navigation(t *testing.T) {
	w := NewWizard(ScopeDraft{ReportID: "R1"}, DefaultCatalog())
	if w.Step() != StepInput {
		t.Fatalf("initial step = %v, want Input", w.Step())
	}
	if err := w.Back(); !errors.Is(err, ErrFirstStep) {
		t.Errorf("Back on first step err = %v", err)
	}
	if err := w.GoTo(StepLabour); !errors.Is(err, ErrStepNotReached) {
		t.Errorf("GoTo unreached step err = %v", err)
	}

	for i := 0; i < 7; i++ {
		if err := w.Next(); err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
	}
	if w.Step() != StepOutput {
		t.Fatalf("step = %v, want Output", w.Step())
	}
	if err := w.Next(); !errors.Is(err, ErrLastStep) {
		t.Errorf("Next past Output err = %v", err)
	}

	if err := w.GoTo(StepEquipment); err != nil {
		t.Fatalf("GoTo Equipment: %v", err)
	}
	if w.Step() != StepEquipment {
		t.Errorf("step = %v, want Equipment", w.Step())
	}
	// Steps already reached stay reachable after going back.
	if err := w.GoTo(StepCompliance); err != nil {
		t.Errorf("GoTo Compliance after reaching Output: %v", err)
	}
	if err := w.GoTo(WizardStep(9)); err == nil {
		t.Error("GoTo out of range should fail")
	}
}

func TestWizard_RecomputesOnEveryMutation(t *testing.T) {
	w := NewWizard(ScopeDraft{}, DefaultCatalog())
	if w.Summary().Total != 0 {
		t.Fatalf("empty total = %v", w.Summary().Total)
	}

	w.AddLabour(LabourRole{Role: "Labourer", HourlyRate: 55, Hours: 2})
	if !approxEqual(w.Summary().Total, 110) {
		t.Errorf("after AddLabour total = %v, want 110", w.Summary().Total)
	}

	if err := w.UpdateLabour(0, LabourRole{Role: "Labourer", HourlyRate: 55, Hours: 4}); err != nil {
		t.Fatal(err)
	}
	if !approxEqual(w.Summary().Total, 220) {
		t.Errorf("after UpdateLabour total = %v, want 220", w.Summary().Total)
	}

	w.SetModifiers(Modifiers{Weekend: true})
	if !approxEqual(w.Summary().Total, 220*1.15) {
		t.Errorf("after SetModifiers total = %v, want %v", w.Summary().Total, 220*1.15)
	}

	w.AddEquipment(EquipmentLine{Type: EquipmentAirMover, Quantity: 2, DurationDays: 10})
	w.AddChemical(ChemicalLine{Type: ChemicalAntimicrobial, TreatedArea: 40})
	if !approxEqual(w.Summary().Total, 220*1.15+640+180) {
		t.Errorf("total = %v", w.Summary().Total)
	}

	if err := w.RemoveEquipment(0); err != nil {
		t.Fatal(err)
	}
	if err := w.RemoveChemical(0); err != nil {
		t.Fatal(err)
	}
	if err := w.RemoveLabour(0); err != nil {
		t.Fatal(err)
	}
	if w.Summary().Total != 0 {
		t.Errorf("after removing everything total = %v", w.Summary().Total)
	}

	w.SetSite(SiteVariables{AffectedArea: 100})
	if w.Summary().Productivity.DurationDays != 2 {
		t.Errorf("DurationDays = %d, want 2", w.Summary().Productivity.DurationDays)
	}
}

func TestWizard_IndexErrors(t *testing.T) {
	w := NewWizard(ScopeDraft{}, DefaultCatalog())
	if err := w.RemoveLabour(0); !errors.Is(err, ErrIndexRange) {
		t.Errorf("RemoveLabour err = %v", err)
	}
	if err := w.UpdateLabour(-1, LabourRole{}); !errors.Is(err, ErrIndexRange) {
		t.Errorf("UpdateLabour err = %v", err)
	}
	if err := w.RemoveEquipment(3); !errors.Is(err, ErrIndexRange) {
		t.Errorf("RemoveEquipment err = %v", err)
	}
	if err := w.RemoveChemical(0); !errors.Is(err, ErrIndexRange) {
		t.Errorf("RemoveChemical err = %v", err)
	}
}

func TestWizard_RemoveKeepsOrder(t *testing.T) {
	w := NewWizard(ScopeDraft{}, DefaultCatalog())
	for _, r := range []string{"A", "B", "C"} {
		w.AddLabour(LabourRole{Role: r})
	}
	if err := w.RemoveLabour(1); err != nil {
		t.Fatal(err)
	}
	got := w.Draft().Labour
	if len(got) != 2 || got[0].Role != "A" || got[1].Role != "C" {
		t.Errorf("labour after remove = %+v", got)
	}
}

func TestWizardStepString(t *testing.T) {
	if StepTime.String() != "Time/Productivity" {
		t.Errorf("StepTime = %q", StepTime.String())
	}
	if WizardStep(0).String() != "Step(0)" {
		t.Errorf("unknown = %q", WizardStep(0).String())
	}
}

func TestWizard_Compliance(t *testing.T) {
	w := NewWizard(ScopeDraft{}, DefaultCatalog())
	items := DefaultCompliance()
	items[0].Acknowledged = true
	w.SetCompliance(items)
	if !w.Draft().Compliance[0].Acknowledged {
		t.Error("compliance not stored")
	}
}

func TestWizard_DraftIsACopy(t *testing.T) {
	input := ScopeDraft{
		ReportID: "R1",
		Labour:   []LabourRole{{Role: "Labourer", HourlyRate: 100, Hours: 1}},
	}
	w := NewWizard(input, DefaultCatalog())
	if !approxEqual(w.Summary().Total, 100) {
		t.Fatalf("initial total = %v, want 100", w.Summary().Total)
	}

	d := w.Draft()
	d.Labour[0].Hours = 10
	input.Labour[0].Hours = 20

	if got := w.Draft().Labour[0].Hours; got != 1 {
		t.Errorf("wizard hours = %v, want 1", got)
	}
	fresh := CalcScopeSummary(w.Draft(), DefaultCatalog())
	if !approxEqual(w.Summary().Total, fresh.Total) || !approxEqual(fresh.Total, 100) {
		t.Errorf("summary total = %v, recomputed = %v, want 100", w.Summary().Total, fresh.Total)
	}

	items := DefaultCompliance()
	w.SetCompliance(items)
	items[0].Acknowledged = true
	if w.Draft().Compliance[0].Acknowledged {
		t.Error("compliance shares the caller's slice")
	}
}

type fakeSaver struct {
	got   ScopeDraft
	saved *SavedScope
	err   error
}

func (f *fakeSaver) SaveScope(_ context.Context, draft ScopeDraft) (*SavedScope, error) {
	f.got = draft
	if f.err != nil {
		return nil, f.err
	}
	return f.saved, nil
}

func TestWizard_Save(t *testing.T) {
	tests := []struct {
		name      string
		reportID  string
		saverErr  error
		wantErr   error
		wantTotal float64
	}{
		{"adopts server summary", "R1", nil, nil, 999},
		{"keeps local summary on error", "R1", errors.New("boom"), nil, 110},
		{"requires report id", "", nil, ErrNoReportID, 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWizard(ScopeDraft{ReportID: tt.reportID}, DefaultCatalog())
			w.AddLabour(LabourRole{Role: "Labourer", HourlyRate: 55, Hours: 2})

			saver := &fakeSaver{
				saved: &SavedScope{ID: "s1", ReportID: tt.reportID, Summary: ScopeSummary{Total: 999}},
				err:   tt.saverErr,
			}
			saved, err := w.Save(context.Background(), saver)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.saverErr != nil:
				if !errors.Is(err, tt.saverErr) {
					t.Fatalf("err = %v, want %v", err, tt.saverErr)
				}
			default:
				if err != nil {
					t.Fatalf("Save: %v", err)
				}
				if saved.ID != "s1" {
					t.Errorf("saved id = %q", saved.ID)
				}
				if len(saver.got.Labour) != 1 || saver.got.ReportID != "R1" {
					t.Errorf("posted draft = %+v", saver.got)
				}
			}
			if !approxEqual(w.Summary().Total, tt.wantTotal) {
				t.Errorf("total = %v, want %v", w.Summary().Total, tt.wantTotal)
			}
		})
	}
}
