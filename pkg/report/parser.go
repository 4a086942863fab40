// Package report parses the raw audit report text returned by the deep-scan
// endpoint into named sections and a verdict token.
//
// The report format is not guaranteed: the text is produced by an upstream
// language model prompted to emit fixed header markers. Parsing is therefore
// pure and total: a missing marker yields an empty section, never an error,
// and callers treat empty sections as "no content".
package report

import "strings"

// Section names used by the default grammar.
const (
	SectionDeployer = "deployer"
	SectionContract = "contract"
	SectionGas      = "gas"
	SectionThreats  = "threats"
)

// Default markers as emitted by the audit backend.
const (
	DeployerMarker = "🕵️‍♂️ DEPLOYER INTEL"
	ContractMarker = "🧠 SMART CONTRACT INTELLIGENCE"
	GasMarker      = "💰 GAS OPTIMIZATION"
	ThreatsMarker  = "🚨 THREAT DETECTION"

	// VerdictMarker precedes the overall verdict line.
	VerdictMarker = "AUDIT VERDICT:"

	// SubsectionDelimiter terminates a section body.
	SubsectionDelimiter = "###"
)

// SectionMarker pairs a literal header token with the section name it
// introduces. Adding a section to the report format is a data change here,
// not new parsing code.
type SectionMarker struct {
	Token string
	Name  string
}

// DefaultGrammar returns the ordered marker list for the current report
// format.
func DefaultGrammar() []SectionMarker {
	return []SectionMarker{
		{Token: DeployerMarker, Name: SectionDeployer},
		{Token: ContractMarker, Name: SectionContract},
		{Token: GasMarker, Name: SectionGas},
		{Token: ThreatsMarker, Name: SectionThreats},
	}
}

// ParsedReport holds the extracted sections and verdict token. It is built
// once per report and never mutated afterwards.
type ParsedReport struct {
	// Sections maps section name to trimmed body text. A section whose
	// marker is absent from the report maps to the empty string.
	Sections map[string]string

	// VerdictToken is the trimmed, upper-cased text following the verdict
	// marker, or "" when the marker is absent.
	VerdictToken string
}

// Section returns the body for the named section, or "" if unknown.
func (r *ParsedReport) Section(name string) string {
	return r.Sections[name]
}

// Deployer returns the deployer intelligence section.
func (r *ParsedReport) Deployer() string { return r.Sections[SectionDeployer] }

// Contract returns the contract architecture section.
func (r *ParsedReport) Contract() string { return r.Sections[SectionContract] }

// Gas returns the gas optimization section.
func (r *ParsedReport) Gas() string { return r.Sections[SectionGas] }

// Threats returns the threat detection section.
func (r *ParsedReport) Threats() string { return r.Sections[SectionThreats] }

// Empty reports whether no section produced content and no verdict token
// was found.
func (r *ParsedReport) Empty() bool {
	if r.VerdictToken != "" {
		return false
	}
	for _, body := range r.Sections {
		if body != "" {
			return false
		}
	}
	return true
}

// Parser segments raw report text according to a grammar.
type Parser struct {
	grammar       []SectionMarker
	verdictMarker string
	delimiter     string
}

// NewParser creates a parser with the default grammar.
func NewParser() *Parser {
	return NewParserWithGrammar(DefaultGrammar())
}

// NewParserWithGrammar creates a parser for a custom marker set.
func NewParserWithGrammar(grammar []SectionMarker) *Parser {
	return &Parser{
		grammar:       grammar,
		verdictMarker: VerdictMarker,
		delimiter:     SubsectionDelimiter,
	}
}

// Parse extracts all grammar sections and the verdict token from raw.
// It never fails: malformed or empty input produces empty sections.
func (p *Parser) Parse(raw string) *ParsedReport {
	parsed := &ParsedReport{
		Sections: make(map[string]string, len(p.grammar)),
	}
	for _, marker := range p.grammar {
		parsed.Sections[marker.Name] = p.extract(raw, marker.Token)
	}
	parsed.VerdictToken = strings.ToUpper(p.extract(raw, p.verdictMarker))
	return parsed
}

// extract returns the trimmed text between the first occurrence of token and
// the next delimiter, or "" when the token is absent.
func (p *Parser) extract(raw, token string) string {
	_, after, found := strings.Cut(raw, token)
	if !found {
		return ""
	}
	body, _, _ := strings.Cut(after, p.delimiter)
	return strings.TrimSpace(body)
}
