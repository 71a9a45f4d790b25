package scan

import "math"

// Severity weights for the curse score.
const (
	weightMinor    = 1
	weightModerate = 3
	weightCritical = 10
)

func severityWeight(s Severity) int {
	switch s {
	case SeverityCritical:
		return weightCritical
	case SeverityModerate:
		return weightModerate
	case SeverityMinor:
		return weightMinor
	default:
		return 0
	}
}

// CurseScore aggregates findings into one normalized severity score in
// [0,100]. The denominator models the worst case in which every finding were
// critical, making the score a severity-density metric rather than a raw
// count. An empty finding list scores 0.
func CurseScore(findings []Finding) int {
	if len(findings) == 0 {
		return 0
	}
	total := 0
	for _, f := range findings {
		total += severityWeight(f.Severity)
	}
	score := int(math.Round(100 * float64(total) / float64(weightCritical*len(findings))))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
