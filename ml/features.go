package ml

import (
	"strings"
	"unicode/utf8"
)

// datasetMeanScore is the mean "score" column of the training corpus. Snippets scored
// outside the corpus carry it unchanged.
const datasetMeanScore = 5.52572202166065

var (
	sqlPatterns       = []string{"select", "insert", "update", "delete", "union", "drop", "alter"}
	xssPatterns       = []string{"alert", "document", "innerhtml", "script", "eval", "settimeout"}
	concatPatterns    = []string{"' +", "\" +", "+ '", "+ \""}
	dangerousFuncs    = []string{"gets", "strcpy", "sprintf", "strcat", "system", "exec"}
	injectionPatterns = []string{"where", "from", "into", "values"}
)

type CodeFeatures struct {
	Length         float64
	NumLines       float64
	NumSemi        float64
	NumIf          float64
	NumFor         float64
	NumWhile       float64
	NumEqual       float64
	SQLRisk        float64
	XSSRisk        float64
	ConcatRisk     float64
	DangerousCount float64
	InjectionRisk  float64
	Score          float64
}

// ExtractFeatures counts lexical risk markers in a lower-cased snippet.
func ExtractFeatures(snippet string) CodeFeatures {
	text := strings.ToLower(snippet)
	return CodeFeatures{
		Length:         float64(utf8.RuneCountInString(text)),
		NumLines:       float64(strings.Count(text, "\n") + 1),
		NumSemi:        float64(strings.Count(text, ";")),
		NumIf:          float64(strings.Count(text, "if")),
		NumFor:         float64(strings.Count(text, "for")),
		NumWhile:       float64(strings.Count(text, "while")),
		NumEqual:       float64(strings.Count(text, "=")),
		SQLRisk:        countAll(text, sqlPatterns),
		XSSRisk:        countAll(text, xssPatterns),
		ConcatRisk:     countAll(text, concatPatterns),
		DangerousCount: countAll(text, dangerousFuncs),
		InjectionRisk:  countAll(text, injectionPatterns),
		Score:          datasetMeanScore,
	}
}

func FeatureVector(f CodeFeatures) []float64 {
	return []float64{
		f.Length,
		f.NumLines,
		f.NumSemi,
		f.NumIf,
		f.NumFor,
		f.NumWhile,
		f.NumEqual,
		f.SQLRisk,
		f.XSSRisk,
		f.ConcatRisk,
		f.DangerousCount,
		f.InjectionRisk,
		f.Score,
	}
}

func FeatureNames() []string {
	return []string{
		"length",
		"num_lines",
		"num_semi",
		"num_if",
		"num_for",
		"num_while",
		"num_equal",
		"sql_risk",
		"xss_risk",
		"concat_risk",
		"dangerous_count",
		"injection_risk",
		"score",
	}
}

func countAll(text string, patterns []string) float64 {
	total := 0
	for _, pattern := range patterns {
		total += strings.Count(text, pattern)
	}
	return float64(total)
}
