package patient

// Presets are named sample profiles for demos and tests.
var Presets = map[string]Profile{
	"default": {Age: 60, Diet: DietNormal, GeneticFactor: 1.0},
	"young":   {Age: 35, Diet: DietHealthy, GeneticFactor: 1.0},
	"elderly": {Age: 75, Diet: DietNormal, GeneticFactor: 1.1},
	"smoker":  {Age: 55, Smoker: true, PackYears: 30, Diet: DietNormal, GeneticFactor: 1.0},
	"healthy": {Age: 50, Diet: DietHealthy, GeneticFactor: 0.8},
	"high_risk": {
		Age:           70,
		Smoker:        true,
		PackYears:     40,
		Diet:          DietPoor,
		GeneticFactor: 1.2,
	},
}

// GetPreset returns a named preset profile, or false when unknown.
func GetPreset(name string) (Profile, bool) {
	p, ok := Presets[name]
	return p, ok
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
