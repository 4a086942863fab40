package report

import "testing"

const sampleReport = `
🕵️‍♂️ DEPLOYER INTEL
- Address: 0xabc
- Total Transactions: 3
🚨 WARNING: Deployer is a brand new wallet.
###
🧠 SMART CONTRACT INTELLIGENCE
Standard ERC20 with owner-only mint.
###
💰 GAS OPTIMIZATION
Loops over holders on transfer.
###
🚨 THREAT DETECTION
Owner can mint unlimited tokens.
###
AUDIT VERDICT: critical risk detected
###
`

func TestParserExtractsAllSections(t *testing.T) {
	p := NewParser()
	parsed := p.Parse(sampleReport)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"deployer", parsed.Deployer(), "- Address: 0xabc\n- Total Transactions: 3\n🚨 WARNING: Deployer is a brand new wallet."},
		{"contract", parsed.Contract(), "Standard ERC20 with owner-only mint."},
		{"gas", parsed.Gas(), "Loops over holders on transfer."},
		{"threats", parsed.Threats(), "Owner can mint unlimited tokens."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("section = %q, want %q", tt.got, tt.want)
			}
		})
	}

	if parsed.VerdictToken != "CRITICAL RISK DETECTED" {
		t.Errorf("VerdictToken = %q, want CRITICAL RISK DETECTED", parsed.VerdictToken)
	}
}

func TestParserEmptyInput(t *testing.T) {
	parsed := NewParser().Parse("")

	for _, name := range []string{SectionDeployer, SectionContract, SectionGas, SectionThreats} {
		if got := parsed.Section(name); got != "" {
			t.Errorf("Section(%q) = %q, want empty", name, got)
		}
	}
	if parsed.VerdictToken != "" {
		t.Errorf("VerdictToken = %q, want empty", parsed.VerdictToken)
	}
	if !parsed.Empty() {
		t.Error("Empty() = false for empty input")
	}
}

func TestParserMissingMarkerYieldsEmptySection(t *testing.T) {
	raw := "🧠 SMART CONTRACT INTELLIGENCE\nMinimal proxy.\n###\nAUDIT VERDICT: 100% SAFE\n###"
	parsed := NewParser().Parse(raw)

	if parsed.Deployer() != "" {
		t.Errorf("Deployer = %q, want empty", parsed.Deployer())
	}
	if parsed.Contract() != "Minimal proxy." {
		t.Errorf("Contract = %q", parsed.Contract())
	}
	if parsed.VerdictToken != "100% SAFE" {
		t.Errorf("VerdictToken = %q, want 100%% SAFE", parsed.VerdictToken)
	}
	if parsed.Empty() {
		t.Error("Empty() = true for report with content")
	}
}

func TestParserSectionWithoutDelimiterRunsToEnd(t *testing.T) {
	raw := "💰 GAS OPTIMIZATION\nNothing notable."
	parsed := NewParser().Parse(raw)
	if parsed.Gas() != "Nothing notable." {
		t.Errorf("Gas = %q, want text up to end of input", parsed.Gas())
	}
}

func TestParserVerdictIsUppercased(t *testing.T) {
	raw := "AUDIT VERDICT: incomplete analysis ### rest"
	parsed := NewParser().Parse(raw)
	if parsed.VerdictToken != "INCOMPLETE ANALYSIS" {
		t.Errorf("VerdictToken = %q, want INCOMPLETE ANALYSIS", parsed.VerdictToken)
	}
}

func TestParserCustomGrammar(t *testing.T) {
	grammar := append(DefaultGrammar(), SectionMarker{Token: "🌊 LIQUIDITY NOTES", Name: "liquidity"})
	p := NewParserWithGrammar(grammar)

	raw := "🌊 LIQUIDITY NOTES\nPool locked for 12 months.\n###"
	parsed := p.Parse(raw)
	if parsed.Section("liquidity") != "Pool locked for 12 months." {
		t.Errorf("custom section = %q", parsed.Section("liquidity"))
	}
}

func TestParserOnlyFirstMarkerOccurrenceCounts(t *testing.T) {
	raw := "🚨 THREAT DETECTION\nfirst\n###\n🚨 THREAT DETECTION\nsecond\n###"
	parsed := NewParser().Parse(raw)
	if parsed.Threats() != "first" {
		t.Errorf("Threats = %q, want first occurrence", parsed.Threats())
	}
}
