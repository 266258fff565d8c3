package growth

// Stage is a simplified TNM bucket derived from total volume. Educational
// approximation, not a diagnostic staging.
type Stage int

const (
	StageIA Stage = iota
	StageIB
	StageIIA
	StageIIB
	StageIII
	StageIV
)

var stageLabels = [...]string{"IA", "IB", "IIA", "IIB", "III", "IV"}

func (s Stage) String() string {
	if s < StageIA || s > StageIV {
		return "unknown"
	}
	return stageLabels[s]
}

// Volume thresholds (cm³) between consecutive buckets.
var stageThresholds = [...]float64{3.0, 14.0, 28.0, 65.0, 130.0}

// StageForVolume maps a total volume onto its ordinal bucket.
func StageForVolume(volume float64) Stage {
	for i, limit := range stageThresholds {
		if volume <= limit {
			return Stage(i)
		}
	}
	return StageIV
}
