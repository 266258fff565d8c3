package growth_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"oncosim/internal/growth"
	"oncosim/internal/patient"
	"oncosim/internal/treatment"
)

func mustEngine(p patient.Profile) *growth.Engine {
	eng, err := growth.New(p)
	Expect(err).NotTo(HaveOccurred())
	return eng
}

var sampleProfiles = map[string]patient.Profile{
	"baseline":      {Age: 60, Diet: patient.DietNormal, GeneticFactor: 1.0},
	"young healthy": {Age: 18, Diet: patient.DietHealthy, GeneticFactor: 0.5},
	"elderly poor":  {Age: 120, Diet: patient.DietPoor, GeneticFactor: 2.0},
	"heavy smoker":  {Age: 55, Smoker: true, PackYears: 150, Diet: patient.DietPoor, GeneticFactor: 1.3},
	"light smoker":  {Age: 45, Smoker: true, PackYears: 5, Diet: patient.DietHealthy, GeneticFactor: 0.9},
}

var _ = Describe("Gompertz model invariants", func() {
	It("keeps both populations non-negative under any simulate sequence", func() {
		for name, profile := range sampleProfiles {
			for _, k := range treatment.Kinds() {
				eng := mustEngine(profile)
				Expect(eng.SetInitialConditions(4.0, 0.4)).To(Succeed())
				eng.SetTreatment(k)

				for _, span := range []float64{0.3, 1, 7, 0, 30, 90, 365} {
					Expect(eng.Simulate(span)).To(Succeed())
					Expect(eng.SensitiveVolume()).To(BeNumerically(">=", 0),
						"%s under %s", name, k)
					Expect(eng.ResistantVolume()).To(BeNumerically(">=", 0),
						"%s under %s", name, k)
				}
			}
		}
	})

	It("never exceeds carrying capacity by more than one percent", func() {
		for name, profile := range sampleProfiles {
			eng := mustEngine(profile)
			Expect(eng.SetInitialConditions(1.0, 0.1)).To(Succeed())

			Expect(eng.Simulate(3650)).To(Succeed())
			Expect(eng.TotalVolume()).To(BeNumerically("<=", eng.Capacity()*1.01),
				"profile %s", name)
		}
	})

	It("orders the adjusted resistant rate strictly below the sensitive rate", func() {
		for name, profile := range sampleProfiles {
			eng := mustEngine(profile)
			Expect(eng.AdjustedResistantRate()).To(BeNumerically("<", eng.AdjustedSensitiveRate()),
				"profile %s", name)
		}
	})
})

var _ = Describe("Treatment efficacy", func() {
	It("chemotherapy lowers the sensitive volume against the untreated trajectory", func() {
		profile := patient.Profile{Age: 60, Diet: patient.DietNormal, GeneticFactor: 1.0}

		treated := mustEngine(profile)
		Expect(treated.SetInitialConditions(100.0, 10.0)).To(Succeed())
		treated.SetTreatment(treatment.Chemotherapy)
		Expect(treated.Simulate(10)).To(Succeed())

		untreated := mustEngine(profile)
		Expect(untreated.SetInitialConditions(100.0, 10.0)).To(Succeed())
		Expect(untreated.Simulate(10)).To(Succeed())

		Expect(treated.SensitiveVolume()).To(BeNumerically("<", untreated.SensitiveVolume()))
	})

	It("applies intensity relative to treatment start, not simulation start", func() {
		profile := patient.Profile{Age: 60, Diet: patient.DietNormal, GeneticFactor: 1.0}

		late := mustEngine(profile)
		Expect(late.SetInitialConditions(50.0, 5.0)).To(Succeed())
		Expect(late.Simulate(100)).To(Succeed())
		late.SetTreatment(treatment.Radiotherapy)

		// one day into a course started at day 100 must match the law at t=1
		beta := late.Treatment().Intensity(late.CurrentTime() + 1 - late.TreatmentStart())
		s := math.Sin(math.Pi * 1.0 / 14.0)
		Expect(beta).To(BeNumerically("~", 0.85*s*s, 1e-12))
	})
})

var _ = Describe("Stage bucketing", func() {
	It("places 6.0 cm³ in the lowest bucket under 14 and 1000 cm³ in the highest", func() {
		Expect(growth.StageForVolume(6.0)).To(Equal(growth.StageIB))
		Expect(growth.StageForVolume(1000.0)).To(Equal(growth.StageIV))
	})
})
