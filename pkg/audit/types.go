// Package audit defines the shared data model for the Web3 Shield SDK:
// scan modes, scan requests and results, and the market snapshot attached
// to token contracts. The JSON tags are wire-compatible with the Web3
// Shield backend responses.
package audit

import (
	"encoding/json"
	"strconv"
)

// Mode selects the analysis depth of a scan.
type Mode string

const (
	// ModeQuick is the unrestricted, low-depth scan. No entitlement gating.
	ModeQuick Mode = "quick"

	// ModeDeep is the entitlement-gated high-depth audit. Consumes one
	// credit or requires a license key once credits are exhausted.
	ModeDeep Mode = "deep"
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	return m == ModeQuick || m == ModeDeep
}

// ScanRequest is the body sent to the scan endpoints.
// LicenseKey is meaningful only for deep scans when the credit balance is
// zero; callers must omit it otherwise.
type ScanRequest struct {
	Address    string `json:"address"`
	UserID     string `json:"user_id,omitempty"`
	LicenseKey string `json:"license_key,omitempty"`
}

// ScanResult is the decoded success body from a scan endpoint.
// Deep scans carry a score and a raw report; quick scans leave both absent,
// which the UI renders as a locked score dial. A ScanResult is never
// mutated after decoding.
type ScanResult struct {
	Score        *int            `json:"score,omitempty"`
	Name         string          `json:"name,omitempty"`
	Verified     bool            `json:"verified"`
	Size         int             `json:"size"`
	Report       string          `json:"report,omitempty"`
	RiskLevel    string          `json:"risk_level,omitempty"`
	BasicFlags   []string        `json:"basic_flags,omitempty"`
	ScoreReasons []string        `json:"score_reasons,omitempty"`
	Market       *MarketSnapshot `json:"market,omitempty"`
	CreditsUsed  int             `json:"credits_used,omitempty"`
}

// ContractName returns the contract name, or "Unknown" when the backend
// could not resolve one.
func (r *ScanResult) ContractName() string {
	if r.Name == "" {
		return "Unknown"
	}
	return r.Name
}

// HasReport reports whether the result carries a raw audit report to parse.
func (r *ScanResult) HasReport() bool {
	return r.Report != ""
}

// MarketSnapshot holds live DEX market data for a token contract.
type MarketSnapshot struct {
	LiquidityUSD float64     `json:"liquidity_usd"`
	FDV          float64     `json:"fdv"`
	PriceUSD     PriceString `json:"price_usd"`
	DexID        string      `json:"dex_id,omitempty"`
	URL          string      `json:"url,omitempty"`
}

// PriceString is a USD price that the backend passes through from
// DexScreener, sometimes as a JSON string and sometimes as a number.
type PriceString float64

// UnmarshalJSON accepts both "0.00001234" and 0.00001234.
func (p *PriceString) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*p = 0
			return nil
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			*p = 0
			return nil
		}
		*p = PriceString(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = PriceString(f)
	return nil
}

// MarshalJSON emits the price as a JSON number.
func (p PriceString) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(p))
}

// ExtensionReport is the response of the browser-extension audit endpoint:
// a simplified, one-shot version of the report contract with no
// entitlement gating.
type ExtensionReport struct {
	RiskLevel string   `json:"risk_level"`
	Summary   string   `json:"summary"`
	RedFlags  []string `json:"red_flags"`
}

// HighRisk reports whether the extension verdict is the distinguished
// "HIGH" level; every other value renders as the safe styling.
func (r *ExtensionReport) HighRisk() bool {
	return r.RiskLevel == "HIGH"
}

// DownloadRequest is the body of the report-download endpoint. The
// response is an opaque PDF payload the SDK does not inspect.
type DownloadRequest struct {
	Name         string          `json:"name"`
	Address      string          `json:"address"`
	Report       string          `json:"report"`
	Verdict      string          `json:"verdict"`
	Market       *MarketSnapshot `json:"market,omitempty"`
	Score        int             `json:"score,omitempty"`
	ScoreReasons []string        `json:"score_reasons,omitempty"`
}
