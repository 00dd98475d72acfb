package ml

import "strings"

// AddedLines returns the trimmed, non-empty lines a unified diff adds. File headers are skipped.
func AddedLines(diff string) []string {
	var lines []string
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		if code := strings.TrimSpace(line[1:]); code != "" {
			lines = append(lines, code)
		}
	}
	return lines
}

// RiskScore weights the risk counters of f. Dangerous calls weigh most, injection keywords least.
func RiskScore(f CodeFeatures) float64 {
	return 2*f.SQLRisk + 2*f.XSSRisk + 3*f.ConcatRisk + 4*f.DangerousCount + f.InjectionRisk
}
