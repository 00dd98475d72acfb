package risk

type Tier string

const (
	TierCritical Tier = "CRITICAL"
	TierWarning  Tier = "WARNING"
	TierSafe     Tier = "SAFE"
)

const (
	criticalThreshold = 0.70
	warningThreshold  = 0.50
)

type Advice struct {
	Tier    Tier   `json:"tier"`
	Message string `json:"message"`
}

// Advise maps the probability of the vulnerable class to an advisory. Both thresholds are strict.
func Advise(probVulnerable float64) Advice {
	switch {
	case probVulnerable > criticalThreshold:
		return Advice{
			Tier:    TierCritical,
			Message: "CRITICAL ALERT: high probability of vulnerability detected. Recommendation: review the code immediately.",
		}
	case probVulnerable > warningThreshold:
		return Advice{
			Tier:    TierWarning,
			Message: "WARNING: possible vulnerability detected. Recommendation: review the code as a precaution.",
		}
	default:
		return Advice{
			Tier:    TierSafe,
			Message: "SAFE CODE: low probability of vulnerability.",
		}
	}
}
