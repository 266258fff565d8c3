package growth

import (
	"context"
	"errors"
	"math"
	"testing"

	"oncosim/internal/patient"
	"oncosim/internal/treatment"
)

func validProfile() patient.Profile {
	return patient.Profile{Age: 60, Diet: patient.DietNormal, GeneticFactor: 1.0}
}

func TestNewRejectsInvalidProfile(t *testing.T) {
	_, err := New(patient.Profile{Age: 10, Diet: patient.DietNormal, GeneticFactor: 1.0})
	if !errors.Is(err, patient.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestSetInitialConditions(t *testing.T) {
	eng, err := New(validProfile())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		s, r float64
		ok   bool
	}{
		{"valid", 5.0, 0.5, true},
		{"resistant only", 0, 1.0, true},
		{"zero total", 0, 0, false},
		{"negative sensitive", -1, 2, false},
		{"negative resistant", 2, -1, false},
	}

	for _, tt := range tests {
		err := eng.SetInitialConditions(tt.s, tt.r)
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrInitialVolume) {
			t.Errorf("%s: expected ErrInitialVolume, got %v", tt.name, err)
		}
	}
}

func TestCapacityReflectsSmoking(t *testing.T) {
	smoker := patient.Profile{Age: 60, Smoker: true, PackYears: 50, Diet: patient.DietNormal, GeneticFactor: 1.0}
	eng, err := New(smoker)
	if err != nil {
		t.Fatal(err)
	}

	expected := 100.0 * 0.85 // 1 - 0.003*50
	if math.Abs(eng.Capacity()-expected) > 1e-9 {
		t.Errorf("expected capacity %.2f, got %.2f", expected, eng.Capacity())
	}
}

func TestResistantRateExcludesAge(t *testing.T) {
	elderly := patient.Profile{Age: 80, Diet: patient.DietPoor, GeneticFactor: 1.2}
	eng, err := New(elderly)
	if err != nil {
		t.Fatal(err)
	}

	expectedRs := 0.012 * elderly.AgeGrowthModifier() * 1.1 * 1.2
	expectedRr := 0.008 * 1.1 * 1.2

	if math.Abs(eng.AdjustedSensitiveRate()-expectedRs) > 1e-12 {
		t.Errorf("rs: expected %.8f, got %.8f", expectedRs, eng.AdjustedSensitiveRate())
	}
	if math.Abs(eng.AdjustedResistantRate()-expectedRr) > 1e-12 {
		t.Errorf("rr: expected %.8f, got %.8f", expectedRr, eng.AdjustedResistantRate())
	}
}

func TestDeriveGuards(t *testing.T) {
	eng, _ := New(validProfile())

	// empty tumor: whole derivative is zero
	d := eng.Derive([]float64{0, 0}, 0)
	if d[0] != 0 || d[1] != 0 {
		t.Errorf("expected zero derivatives at N=0, got %v", d)
	}

	// at capacity: growth halts but treatment still kills
	eng.SetTreatment(treatment.Chemotherapy)
	d = eng.Derive([]float64{eng.Capacity(), 0}, 10.0)
	if d[0] >= 0 {
		t.Errorf("expected negative sensitive derivative under treatment at capacity, got %f", d[0])
	}
}

func TestSimulateNoOpOnNonPositiveSpan(t *testing.T) {
	eng, _ := New(validProfile())
	if err := eng.SetInitialConditions(5.0, 0.5); err != nil {
		t.Fatal(err)
	}

	before := eng.SensitiveVolume()
	if err := eng.Simulate(0); err != nil {
		t.Fatalf("zero span errored: %v", err)
	}
	if err := eng.Simulate(-3); err != nil {
		t.Fatalf("negative span errored: %v", err)
	}
	if eng.SensitiveVolume() != before || eng.CurrentTime() != 0 {
		t.Error("non-positive span mutated state")
	}
}

func TestUntreatedTumorGrows(t *testing.T) {
	eng, _ := New(validProfile())
	if err := eng.SetInitialConditions(5.0, 0.5); err != nil {
		t.Fatal(err)
	}

	if err := eng.Simulate(30); err != nil {
		t.Fatal(err)
	}

	if eng.TotalVolume() <= 5.5 {
		t.Errorf("untreated tumor did not grow: %.3f", eng.TotalVolume())
	}
	if eng.CurrentTime() != 30 {
		t.Errorf("expected t=30, got %f", eng.CurrentTime())
	}
}

func TestSetTreatmentResetsClock(t *testing.T) {
	eng, _ := New(validProfile())
	if err := eng.SetInitialConditions(5.0, 0.5); err != nil {
		t.Fatal(err)
	}
	if err := eng.Simulate(40); err != nil {
		t.Fatal(err)
	}

	eng.SetTreatment(treatment.Radiotherapy)
	if eng.TreatmentStart() != 40 {
		t.Errorf("expected treatment start 40, got %f", eng.TreatmentStart())
	}
	if eng.TreatmentDays() != 0 {
		t.Errorf("expected 0 treatment days right after start, got %d", eng.TreatmentDays())
	}

	if err := eng.Simulate(7); err != nil {
		t.Fatal(err)
	}
	if eng.TreatmentDays() != 7 {
		t.Errorf("expected 7 treatment days, got %d", eng.TreatmentDays())
	}
}

func TestStageBuckets(t *testing.T) {
	tests := []struct {
		volume   float64
		expected Stage
	}{
		{0.5, StageIA},
		{3.0, StageIA},
		{6.0, StageIB},
		{20.0, StageIIA},
		{50.0, StageIIB},
		{100.0, StageIII},
		{1000.0, StageIV},
	}

	for _, tt := range tests {
		if got := StageForVolume(tt.volume); got != tt.expected {
			t.Errorf("volume %.1f: expected %s, got %s", tt.volume, tt.expected, got)
		}
	}

	if StageIV.String() != "IV" || StageIA.String() != "IA" {
		t.Error("stage labels wrong")
	}
}

func TestDoublingTime(t *testing.T) {
	eng, _ := New(validProfile())
	if err := eng.SetInitialConditions(5.0, 0.5); err != nil {
		t.Fatal(err)
	}

	dt := eng.DoublingTime()
	if math.IsInf(dt, 1) || dt <= 0 {
		t.Errorf("growing tumor must have finite positive doubling time, got %f", dt)
	}

	// at capacity with no treatment the growth rate is zero
	eng.Restore(eng.Capacity(), 0, 0, treatment.None, 0)
	if !math.IsInf(eng.DoublingTime(), 1) {
		t.Errorf("expected +Inf doubling time at capacity, got %f", eng.DoublingTime())
	}
}

func TestResistanceFraction(t *testing.T) {
	eng, _ := New(validProfile())

	if eng.ResistanceFraction() != 0 {
		t.Error("empty tumor must report zero resistance fraction")
	}

	if err := eng.SetInitialConditions(9.0, 1.0); err != nil {
		t.Fatal(err)
	}
	if math.Abs(eng.ResistanceFraction()-0.1) > 1e-12 {
		t.Errorf("expected 0.1, got %f", eng.ResistanceFraction())
	}
}

func TestRestoreDetachesFromTimelineValues(t *testing.T) {
	eng, _ := New(validProfile())
	eng.Restore(7.5, 1.5, 12.0, treatment.Immunotherapy, 10.0)

	if eng.SensitiveVolume() != 7.5 || eng.ResistantVolume() != 1.5 {
		t.Error("restore did not apply volumes")
	}
	if eng.CurrentTime() != 12.0 || eng.Treatment() != treatment.Immunotherapy {
		t.Error("restore did not apply time or treatment")
	}
	if eng.TreatmentDays() != 2 {
		t.Errorf("expected 2 treatment days after restore, got %d", eng.TreatmentDays())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	eng, _ := New(validProfile())
	if err := eng.SetInitialConditions(5.0, 0.5); err != nil {
		t.Fatal(err)
	}

	clone := eng.Clone()
	if err := clone.Simulate(60); err != nil {
		t.Fatal(err)
	}

	if eng.CurrentTime() != 0 || eng.TotalVolume() != 5.5 {
		t.Error("simulating a clone mutated the original")
	}
}

func TestCloneRebuildsIntegrator(t *testing.T) {
	eng, _ := New(validProfile())
	if err := eng.SetInitialConditions(10.0, 1.0); err != nil {
		t.Fatal(err)
	}

	// clones step concurrently in comparisons; a shared integrator would
	// race on its stage buffer
	if clone := eng.Clone(); clone.integ == eng.integ {
		t.Fatal("clone shares the base engine's integrator")
	}

	arms := []Arm{
		{Name: "observation", Kind: treatment.None},
		{Name: "chemo", Kind: treatment.Chemotherapy},
		{Name: "radio", Kind: treatment.Radiotherapy},
		{Name: "immuno", Kind: treatment.Immunotherapy},
	}
	results := CompareTreatments(context.Background(), eng, arms, 60)

	// every concurrent arm must reproduce its serial equivalent exactly
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("arm %s failed: %v", r.Arm.Name, r.Err)
		}
		serial := eng.Clone()
		serial.SetTreatment(r.Arm.Kind)
		for day := 0; day < 60; day++ {
			if err := serial.Simulate(1.0); err != nil {
				t.Fatal(err)
			}
		}
		if r.Final[0] != serial.SensitiveVolume() || r.Final[1] != serial.ResistantVolume() {
			t.Errorf("arm %s diverged from its serial run: (%g, %g) vs (%g, %g)",
				r.Arm.Name, r.Final[0], r.Final[1], serial.SensitiveVolume(), serial.ResistantVolume())
		}
	}
}

func TestCompareTreatments(t *testing.T) {
	eng, _ := New(validProfile())
	if err := eng.SetInitialConditions(10.0, 1.0); err != nil {
		t.Fatal(err)
	}

	arms := []Arm{
		{Name: "observation", Kind: treatment.None},
		{Name: "chemo", Kind: treatment.Chemotherapy},
		{Name: "radio", Kind: treatment.Radiotherapy},
	}

	results := CompareTreatments(context.Background(), eng, arms, 30)
	if len(results) != 3 {
		t.Fatalf("expected 3 arm results, got %d", len(results))
	}

	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("arm %s failed: %v", r.Arm.Name, r.Err)
		}
		if len(r.Trajectory) != 31 {
			t.Errorf("arm %s: expected 31 trajectory points, got %d", r.Arm.Name, len(r.Trajectory))
		}
	}

	untreated := results[0].Final[0]
	chemo := results[1].Final[0]
	if chemo >= untreated {
		t.Errorf("chemotherapy arm should end with fewer sensitive cells: %.3f vs %.3f", chemo, untreated)
	}

	// base engine untouched
	if eng.CurrentTime() != 0 {
		t.Error("comparison mutated the base engine")
	}
}

func TestCompareTreatmentsCancellation(t *testing.T) {
	eng, _ := New(validProfile())
	if err := eng.SetInitialConditions(10.0, 1.0); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := CompareTreatments(ctx, eng, []Arm{{Name: "obs", Kind: treatment.None}}, 1000)
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", results[0].Err)
	}
}
