package verdict

import "testing"

func TestFromToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  Verdict
	}{
		{"plain safe", "SAFE", Secure},
		{"safe with prefix", "100% SAFE", Secure},
		{"critical", "CRITICAL RISK DETECTED", CriticalRisk},
		{"failed analysis", "ANALYSIS FAILED", CriticalRisk},
		{"incomplete", "INCOMPLETE: PARTIAL SOURCE", Incomplete},
		{"unknown token", "PROCEED WITH CARE", Caution},
		{"empty token", "", Caution},
		{"lowercase input", "safe", Secure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromToken(tt.token); got != tt.want {
				t.Errorf("FromToken(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

// A token naming both outcomes classifies as Secure; the SAFE check runs
// before the CRITICAL one and reordering them would flip real reports.
func TestFromTokenSafeTakesPrecedenceOverCritical(t *testing.T) {
	token := "100% SAFE, NO CRITICAL ISSUES"
	if got := FromToken(token); got != Secure {
		t.Fatalf("FromToken(%q) = %v, want %v", token, got, Secure)
	}
}

func TestFromScore(t *testing.T) {
	tests := []struct {
		score int
		want  Verdict
	}{
		{0, CriticalRisk},
		{49, CriticalRisk},
		{50, Caution},
		{74, Caution},
		{75, Secure},
		{100, Secure},
	}

	for _, tt := range tests {
		if got := FromScore(tt.score); got != tt.want {
			t.Errorf("FromScore(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestDisplayAndDetail(t *testing.T) {
	for _, v := range AllVerdicts() {
		if v.Display() == "" {
			t.Errorf("verdict %v has empty display text", v)
		}
		if v.Detail() == "" {
			t.Errorf("verdict %v has empty detail text", v)
		}
	}
}

func TestScoreBand(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "safe"},
		{80, "safe"},
		{79, "warn"},
		{50, "warn"},
		{49, "critical"},
		{0, "critical"},
	}

	for _, tt := range tests {
		if got := ScoreBand(tt.score); got != tt.want {
			t.Errorf("ScoreBand(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
