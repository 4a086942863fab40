// Package entitlement decides whether a scan request may be sent, based on
// the scan mode, the user's session, and their credit balance. It also owns
// the credit-refresh lifecycle around auth events.
package entitlement

import (
	"github.com/web3shield/shield-sdk/pkg/audit"
)

// Decision is the outcome of an entitlement check.
type Decision string

const (
	// Proceed - the request may be sent to the server.
	Proceed Decision = "proceed"

	// RequireAuth - the user must sign in before retrying.
	RequireAuth Decision = "require_auth"

	// RequirePayment - the user has no credits and no license key.
	RequirePayment Decision = "require_payment"
)

// State is a point-in-time snapshot of the entitlement inputs.
// CreditsKnown is false until a refresh has applied; the gate treats an
// unknown balance the same as zero, erring toward the license key path.
type State struct {
	Authenticated bool
	UserID        string
	Credits       int
	CreditsKnown  bool
	LicenseKey    string
}

// Evaluate applies the entitlement rules for a scan in the given mode.
//
// Quick scans are unrestricted. Deep scans require a session; with a
// positive balance they proceed on credits, and at zero balance they
// proceed only when a license key is present. The local balance is a
// hint: the server's 402 response stays authoritative and callers map
// it to RequirePayment regardless of what Evaluate returned.
func Evaluate(mode audit.Mode, s State) Decision {
	if mode != audit.ModeDeep {
		return Proceed
	}
	if !s.Authenticated {
		return RequireAuth
	}
	if s.Credits > 0 {
		return Proceed
	}
	if s.LicenseKey != "" {
		return Proceed
	}
	return RequirePayment
}

// EvaluateMode applies the entitlement rules against the manager's current
// state snapshot.
func (m *Manager) EvaluateMode(mode audit.Mode) Decision {
	return Evaluate(mode, m.State())
}

// RequestFor builds the scan request body for the given mode and state.
// The license key is attached only for a deep scan at an exhausted credit
// balance; a user with credits always spends them first, and a quick scan
// never transmits the key at all.
func RequestFor(address string, mode audit.Mode, s State) audit.ScanRequest {
	req := audit.ScanRequest{Address: address}
	if s.Authenticated {
		req.UserID = s.UserID
		if mode == audit.ModeDeep && s.Credits == 0 {
			req.LicenseKey = s.LicenseKey
		}
	}
	return req
}
