// Package scan coordinates a scan submission end to end: address validation,
// the entitlement check, the network call, report parsing, and history.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/web3shield/shield-sdk/pkg/audit"
	"github.com/web3shield/shield-sdk/pkg/core"
	"github.com/web3shield/shield-sdk/pkg/entitlement"
	"github.com/web3shield/shield-sdk/pkg/errors"
	"github.com/web3shield/shield-sdk/pkg/history"
	"github.com/web3shield/shield-sdk/pkg/metrics"
	"github.com/web3shield/shield-sdk/pkg/report"
	"github.com/web3shield/shield-sdk/pkg/verdict"
)

// Scanner issues scan requests to the backend. *client.Client implements it.
type Scanner interface {
	Scan(ctx context.Context, mode audit.Mode, req audit.ScanRequest) (*audit.ScanResult, error)
}

// Entitlements is the slice of the entitlement manager the orchestrator
// needs. *entitlement.Manager implements it.
type Entitlements interface {
	State() entitlement.State
	EvaluateMode(mode audit.Mode) entitlement.Decision
	Refresh(ctx context.Context) error
}

// OutcomeKind tags the variant of a scan outcome.
type OutcomeKind string

const (
	// OutcomeCompleted - the scan succeeded and Result is populated.
	OutcomeCompleted OutcomeKind = "completed"

	// OutcomeRequireAuth - the user must sign in first.
	OutcomeRequireAuth OutcomeKind = "require_auth"

	// OutcomeRequirePayment - no credits and no license key, locally or by
	// the server's 402.
	OutcomeRequirePayment OutcomeKind = "require_payment"

	// OutcomeFailed - the request failed; Err carries the cause.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the result of a scan submission. Exactly one variant applies:
// Completed populates Result (and Parsed/Verdict when a report is present),
// Failed populates Err, and the two gate variants carry nothing else.
type Outcome struct {
	Kind    OutcomeKind
	Result  *audit.ScanResult
	Parsed  *report.ParsedReport
	Verdict verdict.Verdict
	Err     error

	// PreviouslyScanned is set when the address already has a recorded
	// scan in history. The server's matching no-recharge rule stays
	// authoritative; this drives the "no credit will be consumed" hint.
	PreviouslyScanned bool
}

// UserMessage returns the text to show the user for a failed outcome.
func (o *Outcome) UserMessage() string {
	if o.Kind != OutcomeFailed {
		return ""
	}
	return errors.UserMessage(o.Err)
}

// Orchestrator runs scan submissions. A single instance allows one scan in
// flight at a time; submissions while one is pending are rejected.
type Orchestrator struct {
	scanner      Scanner
	entitlements Entitlements
	parser       *report.Parser
	store        history.Store
	collector    metrics.Collector
	logger       core.Logger

	mu       sync.Mutex
	inFlight bool
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithHistory records completed scans in the given store.
func WithHistory(s history.Store) OrchestratorOption {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c metrics.Collector) OrchestratorOption {
	return func(o *Orchestrator) {
		if c != nil {
			o.collector = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l core.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithParser overrides the report parser, e.g. for a custom grammar.
func WithParser(p *report.Parser) OrchestratorOption {
	return func(o *Orchestrator) {
		if p != nil {
			o.parser = p
		}
	}
}

// NewOrchestrator creates an orchestrator over the given scanner and
// entitlement manager.
func NewOrchestrator(scanner Scanner, ent Entitlements, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		scanner:      scanner,
		entitlements: ent,
		parser:       report.NewParser(),
		collector:    metrics.Nop{},
		logger:       core.NopLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit runs one scan. The address is validated before anything else; a
// malformed address never reaches the network. Gate rejections come back as
// outcomes without a network call. The returned error is non-nil only for
// caller mistakes (bad address, submission while busy); request failures are
// reported inside the outcome.
func (o *Orchestrator) Submit(ctx context.Context, address string, mode audit.Mode) (*Outcome, error) {
	if !ValidAddress(address) {
		return nil, errors.ErrInvalidAddress
	}

	if !o.acquire() {
		return nil, errors.ErrScanInFlight
	}
	defer o.release()

	o.collector.GaugeInc(metrics.ScansInFlight.Name)
	defer o.collector.GaugeDec(metrics.ScansInFlight.Name)

	switch o.entitlements.EvaluateMode(mode) {
	case entitlement.RequireAuth:
		o.count(mode, OutcomeRequireAuth)
		return &Outcome{Kind: OutcomeRequireAuth}, nil
	case entitlement.RequirePayment:
		o.count(mode, OutcomeRequirePayment)
		return &Outcome{Kind: OutcomeRequirePayment}, nil
	}

	state := o.entitlements.State()
	req := entitlement.RequestFor(address, mode, state)

	var previouslyScanned bool
	if o.store != nil {
		seen, err := o.store.AlreadyScanned(ctx, address)
		if err != nil {
			o.logger.Warn("history lookup for %s: %v", address, err)
		}
		previouslyScanned = seen
	}

	start := time.Now()
	result, err := o.scanner.Scan(ctx, mode, req)
	o.collector.HistogramObserve(metrics.ScanDuration.Name, time.Since(start).Seconds(), "mode", mode.String())

	if err != nil {
		// The server's verdict on payment overrides the local pre-check.
		if errors.IsPaymentRequired(err) {
			o.count(mode, OutcomeRequirePayment)
			return &Outcome{Kind: OutcomeRequirePayment, Err: err}, nil
		}
		o.count(mode, OutcomeFailed)
		o.logger.Warn("scan failed for %s: %v", address, err)
		return &Outcome{Kind: OutcomeFailed, Err: err}, nil
	}

	outcome := &Outcome{Kind: OutcomeCompleted, Result: result, PreviouslyScanned: previouslyScanned}
	if result.HasReport() {
		parsed := o.parser.Parse(result.Report)
		outcome.Parsed = parsed
		outcome.Verdict = verdict.FromToken(parsed.VerdictToken)
	} else if result.Score != nil {
		outcome.Verdict = verdict.FromScore(*result.Score)
	}

	// The balance must be current before the next deep-scan gate check,
	// so the refresh completes before Submit returns.
	if state.Authenticated {
		if err := o.entitlements.Refresh(ctx); err != nil {
			o.collector.CounterInc(metrics.CreditRefreshTotal.Name, "result", "error")
			o.logger.Warn("credit refresh after scan failed: %v", err)
		} else {
			o.collector.CounterInc(metrics.CreditRefreshTotal.Name, "result", "ok")
		}
	}

	o.record(ctx, address, mode, outcome)
	o.count(mode, OutcomeCompleted)
	return outcome, nil
}

func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return false
	}
	o.inFlight = true
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.inFlight = false
	o.mu.Unlock()
}

func (o *Orchestrator) count(mode audit.Mode, kind OutcomeKind) {
	o.collector.CounterInc(metrics.ScansTotal.Name, "mode", mode.String(), "outcome", string(kind))
}

func (o *Orchestrator) record(ctx context.Context, address string, mode audit.Mode, outcome *Outcome) {
	if o.store == nil {
		return
	}
	entry := &history.Entry{
		Address:   address,
		Mode:      mode.String(),
		Name:      outcome.Result.ContractName(),
		Verdict:   outcome.Verdict.String(),
		Score:     outcome.Result.Score,
		RawReport: outcome.Result.Report,
	}
	if err := o.store.Save(ctx, entry); err != nil {
		o.logger.Warn("record scan history: %v", err)
	}
}
