package ml

import "strings"

const (
	PatternSQL       = "SQL patterns detected"
	PatternXSS       = "XSS patterns detected"
	PatternConcat    = "unsafe string concatenation"
	PatternDangerous = "dangerous or deprecated functions"
)

var (
	sqlHints       = []string{"select", "insert", "update", "delete"}
	xssHints       = []string{"alert", "document", "innerhtml", "eval"}
	concatHints    = []string{"' +", "\" +"}
	dangerousHints = []string{"gets", "strcpy", "system", "exec"}
)

// DetectPatterns lists the risk families found in snippet, in a fixed order.
func DetectPatterns(snippet string) []string {
	text := strings.ToLower(snippet)
	var found []string
	if containsAny(text, sqlHints) {
		found = append(found, PatternSQL)
	}
	if containsAny(text, xssHints) {
		found = append(found, PatternXSS)
	}
	if containsAny(text, concatHints) {
		found = append(found, PatternConcat)
	}
	if containsAny(text, dangerousHints) {
		found = append(found, PatternDangerous)
	}
	return found
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
