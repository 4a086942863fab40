// Shieldctl - Web3 Shield contract audit CLI
//
// Usage:
//
//	shieldctl -address 0xdac17f958d2ee523a2206206994597c13d831ec7
//	shieldctl -mode deep -address 0x... -user-id u1 -license-key lk-...
//	shieldctl -audit -address 0x...            (one-shot extension audit)
//	shieldctl -address 0x... -pdf report.pdf   (download the PDF report)
//
// The address flag also accepts a block-explorer URL; the first contract
// address found in it is scanned.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/web3shield/shield-sdk/pkg/audit"
	"github.com/web3shield/shield-sdk/pkg/client"
	"github.com/web3shield/shield-sdk/pkg/core"
	"github.com/web3shield/shield-sdk/pkg/credentials"
	"github.com/web3shield/shield-sdk/pkg/entitlement"
	"github.com/web3shield/shield-sdk/pkg/errors"
	"github.com/web3shield/shield-sdk/pkg/health"
	"github.com/web3shield/shield-sdk/pkg/history"
	"github.com/web3shield/shield-sdk/pkg/scan"
)

const (
	appName    = "shieldctl"
	appVersion = "1.0.0"

	defaultBaseURL = "https://api.web3shield.io"
)

// Config is the CLI configuration file format.
type Config struct {
	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	User struct {
		ID         string `yaml:"id"`
		LicenseKey string `yaml:"license_key"`
	} `yaml:"user"`

	History struct {
		Path    string `yaml:"path"`
		Enabled bool   `yaml:"enabled"`
	} `yaml:"history"`

	Verbose bool `yaml:"verbose"`
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	address := flag.String("address", "", "Contract address or explorer URL to scan")
	mode := flag.String("mode", "quick", "Scan mode: quick or deep")
	apiURL := flag.String("api-url", "", "API base URL (or WEB3SHIELD_API_URL env)")
	userID := flag.String("user-id", "", "User ID for deep scans (or WEB3SHIELD_USER_ID env)")
	licenseKey := flag.String("license-key", "", "License key for zero-credit deep scans (or WEB3SHIELD_LICENSE_KEY env)")
	doAudit := flag.Bool("audit", false, "Run the one-shot extension audit instead of a full scan")
	pdfPath := flag.String("pdf", "", "Download the PDF report to this path after a successful scan")
	historyPath := flag.String("history", "", "Path to the scan history database (empty = disabled)")
	showHistory := flag.Bool("show-history", false, "Print recent scan history and exit")
	saveCreds := flag.Bool("save-credentials", false, "Persist the user ID and license key for future runs")
	doctor := flag.Bool("doctor", false, "Run local diagnostics and exit")
	outputJSON := flag.Bool("json", false, "Output results as JSON")
	verbose := flag.Bool("verbose", false, "Verbose output")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted.")
		cancel()
	}()

	var cfg Config
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = envOr("WEB3SHIELD_API_URL", defaultBaseURL)
	}
	if *userID != "" {
		cfg.User.ID = *userID
	}
	if *licenseKey != "" {
		cfg.User.LicenseKey = *licenseKey
	}
	credStore := credentials.Default()
	if cfg.User.ID == "" || cfg.User.LicenseKey == "" {
		if profile, err := credStore.Load(ctx); err == nil {
			if cfg.User.ID == "" {
				cfg.User.ID = profile.UserID
			}
			if cfg.User.LicenseKey == "" {
				cfg.User.LicenseKey = profile.LicenseKey
			}
		}
	}
	if *saveCreds {
		profile := &credentials.Profile{UserID: cfg.User.ID, LicenseKey: cfg.User.LicenseKey}
		if err := credStore.Save(ctx, profile); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving credentials: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Credentials saved.")
	}
	if *historyPath != "" {
		cfg.History.Path = *historyPath
		cfg.History.Enabled = true
	}
	cfg.Verbose = cfg.Verbose || *verbose

	logger := core.LoggerFromVerbose(appName, cfg.Verbose)

	timeout := cfg.API.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	api := client.NewWithOptions(
		client.WithBaseURL(cfg.API.BaseURL),
		client.WithTimeout(timeout),
		client.WithLogger(logger),
	)

	var store history.Store
	if cfg.History.Enabled {
		path := cfg.History.Path
		if path == "" {
			home, _ := os.UserHomeDir()
			path = filepath.Join(home, ".web3shield", "history.db")
		}
		var err error
		store, err = history.NewSQLiteStore(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	if *doctor {
		runDoctor(ctx, cfg, credStore, store, *outputJSON)
		return
	}

	if *showHistory {
		if store == nil {
			fmt.Fprintln(os.Stderr, "History is not enabled; pass -history <path>.")
			os.Exit(1)
		}
		printHistory(ctx, store, *outputJSON)
		return
	}

	if *address == "" {
		fmt.Fprintln(os.Stderr, "An -address is required.")
		flag.Usage()
		os.Exit(2)
	}

	target := *address
	if !scan.ValidAddress(target) {
		extracted, ok := scan.ExtractAddress(target)
		if !ok {
			fmt.Fprintf(os.Stderr, "No contract address found in %q.\n", target)
			os.Exit(2)
		}
		target = extracted
	}

	if *doAudit {
		runExtensionAudit(ctx, api, target, *outputJSON)
		return
	}

	scanMode := audit.Mode(*mode)
	if !scanMode.Valid() {
		fmt.Fprintf(os.Stderr, "Unknown mode %q; use quick or deep.\n", *mode)
		os.Exit(2)
	}

	manager := entitlement.NewManager(
		entitlement.CreditSourceFunc(api.Credits),
		entitlement.WithLogger(logger),
	)
	manager.SetLicenseKey(cfg.User.LicenseKey)
	if scanMode == audit.ModeDeep && cfg.User.ID != "" {
		if err := manager.SignIn(ctx, cfg.User.ID); err != nil {
			logger.Warn("sign-in: %v", err)
		}
	}

	orchestratorOpts := []scan.OrchestratorOption{scan.WithLogger(logger)}
	if store != nil {
		orchestratorOpts = append(orchestratorOpts, scan.WithHistory(store))
	}
	orchestrator := scan.NewOrchestrator(api, manager, orchestratorOpts...)

	outcome, err := orchestrator.Submit(ctx, target, scanMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch outcome.Kind {
	case scan.OutcomeRequireAuth:
		fmt.Fprintln(os.Stderr, "Deep scans require a user; pass -user-id.")
		os.Exit(1)
	case scan.OutcomeRequirePayment:
		fmt.Fprintln(os.Stderr, "Out of credits. Provide a -license-key or top up.")
		os.Exit(1)
	case scan.OutcomeFailed:
		fmt.Fprintf(os.Stderr, "Scan failed: %s\n", outcome.UserMessage())
		os.Exit(1)
	}

	printOutcome(outcome, target, *outputJSON)

	if *pdfPath != "" {
		downloadPDF(ctx, api, target, outcome, *pdfPath)
	}
}

func runExtensionAudit(ctx context.Context, api *client.Client, address string, asJSON bool) {
	rep, err := api.AuditAddress(ctx, address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Audit failed: %s\n", errors.UserMessage(err))
		os.Exit(1)
	}

	if asJSON {
		json.NewEncoder(os.Stdout).Encode(rep)
		return
	}

	fmt.Printf("Risk level: %s\n", rep.RiskLevel)
	if rep.Summary != "" {
		fmt.Printf("Summary:    %s\n", rep.Summary)
	}
	for _, f := range rep.RedFlags {
		fmt.Printf("  - %s\n", f)
	}
}

func printOutcome(outcome *scan.Outcome, address string, asJSON bool) {
	if asJSON {
		json.NewEncoder(os.Stdout).Encode(map[string]any{
			"address": address,
			"verdict": outcome.Verdict,
			"result":  outcome.Result,
		})
		return
	}

	result := outcome.Result
	fmt.Printf("Contract: %s (%s)\n", result.ContractName(), address)
	if outcome.PreviouslyScanned {
		fmt.Println("Previously scanned; no credit will be consumed.")
	}
	if result.Verified {
		fmt.Println("Source:   verified")
	} else {
		fmt.Println("Source:   unverified")
	}
	if result.Score != nil {
		fmt.Printf("Score:    %d/100\n", *result.Score)
	}
	if outcome.Verdict != "" {
		fmt.Printf("Verdict:  %s - %s\n", outcome.Verdict.Display(), outcome.Verdict.Detail())
	}
	for _, f := range result.BasicFlags {
		fmt.Printf("  ! %s\n", f)
	}

	if outcome.Parsed != nil {
		printSection("Deployer Intel", outcome.Parsed.Deployer())
		printSection("Contract Intelligence", outcome.Parsed.Contract())
		printSection("Gas Optimization", outcome.Parsed.Gas())
		printSection("Threat Detection", outcome.Parsed.Threats())
	}

	if m := result.Market; m != nil {
		fmt.Println("\nMarket:")
		fmt.Printf("  Price:     $%g\n", float64(m.PriceUSD))
		fmt.Printf("  Liquidity: $%.0f\n", m.LiquidityUSD)
		fmt.Printf("  FDV:       $%.0f\n", m.FDV)
	}
}

func printSection(title, body string) {
	if body == "" {
		return
	}
	fmt.Printf("\n%s:\n%s\n", title, body)
}

func printHistory(ctx context.Context, store history.Store, asJSON bool) {
	entries, err := store.Recent(ctx, 20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		json.NewEncoder(os.Stdout).Encode(entries)
		return
	}

	for _, e := range entries {
		score := "-"
		if e.Score != nil {
			score = fmt.Sprintf("%d", *e.Score)
		}
		fmt.Printf("%s  %-7s %-44s %-14s score=%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Mode, e.Address, e.Verdict, score)
	}
}

func downloadPDF(ctx context.Context, api *client.Client, address string, outcome *scan.Outcome, path string) {
	req := audit.DownloadRequest{
		Name:         outcome.Result.ContractName(),
		Address:      address,
		Report:       outcome.Result.Report,
		Verdict:      outcome.Verdict.Display(),
		Market:       outcome.Result.Market,
		ScoreReasons: outcome.Result.ScoreReasons,
	}
	if outcome.Result.Score != nil {
		req.Score = *outcome.Result.Score
	}

	data, err := api.DownloadReport(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "PDF download failed: %s\n", errors.UserMessage(err))
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Report written to %s (%d bytes)\n", path, len(data))
}

func runDoctor(ctx context.Context, cfg Config, credStore credentials.Store, store history.Store, asJSON bool) {
	runner := health.NewRunner(health.WithVersion(appVersion))
	runner.Register("api", &health.APICheck{BaseURL: cfg.API.BaseURL, Timeout: 10 * time.Second})
	runner.Register("credentials", &health.CredentialsCheck{Store: credStore})
	runner.Register("system_memory", &health.SystemMemoryCheck{MaxUsagePercent: 95})
	if home, err := os.UserHomeDir(); err == nil {
		runner.Register("disk", &health.DiskCheck{Path: home, MinFreePercent: 5})
	}
	if store != nil {
		runner.Register("history", &health.HistoryCheck{PingFunc: func(ctx context.Context) error {
			_, err := store.Recent(ctx, 1)
			return err
		}})
	}

	report := runner.Run(ctx)

	if asJSON {
		json.NewEncoder(os.Stdout).Encode(report)
	} else {
		names := make([]string, 0, len(report.Checks))
		for name := range report.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("Overall: %s\n", report.Status)
		for _, name := range names {
			res := report.Checks[name]
			detail := res.Message
			if res.Error != "" {
				detail = res.Error
			}
			fmt.Printf("  %-14s %-10s %s\n", name, res.Status, detail)
		}
	}

	if report.Status == health.StatusUnhealthy {
		os.Exit(1)
	}
}

func loadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
