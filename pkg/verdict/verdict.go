// Package verdict provides the discrete risk classification derived from
// audit report text.
package verdict

import "strings"

// Verdict represents the overall risk state of an audited contract.
type Verdict string

const (
	// Secure - no critical vulnerabilities were detected.
	Secure Verdict = "secure"

	// CriticalRisk - major security threats were found.
	CriticalRisk Verdict = "critical_risk"

	// Incomplete - only partial source code could be analyzed.
	Incomplete Verdict = "incomplete"

	// Caution - potential risks identified; the default when no other
	// classification applies.
	Caution Verdict = "caution"
)

// AllVerdicts returns all verdicts in classification precedence order.
func AllVerdicts() []Verdict {
	return []Verdict{Secure, CriticalRisk, Incomplete, Caution}
}

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// Display returns the banner text the UI and PDF report use for the verdict.
func (v Verdict) Display() string {
	switch v {
	case Secure:
		return "SECURE"
	case CriticalRisk:
		return "CRITICAL RISK"
	case Incomplete:
		return "INCOMPLETE"
	default:
		return "CAUTION"
	}
}

// Detail returns the one-line explanation shown under the banner.
func (v Verdict) Detail() string {
	switch v {
	case Secure:
		return "No critical vulnerabilities detected."
	case CriticalRisk:
		return "Major security threats found."
	case Incomplete:
		return "Partial source code analysis."
	default:
		return "Potential risks identified."
	}
}

// FromToken classifies a verdict token extracted from report text.
//
// The containment tests run in a fixed order: SAFE, then CRITICAL/FAIL,
// then INCOMPLETE, with Caution as the fallback. A token containing both
// "SAFE" and "CRITICAL" therefore classifies as Secure. That precedence
// matches the upstream report phrasing ("100% SAFE ... no CRITICAL issues")
// and must not be reordered.
func FromToken(token string) Verdict {
	t := strings.ToUpper(token)
	switch {
	case strings.Contains(t, "SAFE"):
		return Secure
	case strings.Contains(t, "CRITICAL"), strings.Contains(t, "FAIL"):
		return CriticalRisk
	case strings.Contains(t, "INCOMPLETE"):
		return Incomplete
	default:
		return Caution
	}
}

// FromScore converts a 0-100 safety score to a verdict using the scoring
// engine's thresholds: below 50 is critical, below 75 is caution.
func FromScore(score int) Verdict {
	switch {
	case score < 50:
		return CriticalRisk
	case score < 75:
		return Caution
	default:
		return Secure
	}
}

// ScoreBand returns the display band for a safety score: "safe" (>=80),
// "warn" (>=50) or "critical". The UI colors the score dial with it.
func ScoreBand(score int) string {
	switch {
	case score >= 80:
		return "safe"
	case score >= 50:
		return "warn"
	default:
		return "critical"
	}
}
