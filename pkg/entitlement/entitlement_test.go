package entitlement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/web3shield/shield-sdk/pkg/audit"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		mode  audit.Mode
		state State
		want  Decision
	}{
		{
			"quick scan unauthenticated",
			audit.ModeQuick,
			State{},
			Proceed,
		},
		{
			"quick scan ignores balance",
			audit.ModeQuick,
			State{Authenticated: true, Credits: 0},
			Proceed,
		},
		{
			"deep scan unauthenticated",
			audit.ModeDeep,
			State{},
			RequireAuth,
		},
		{
			"deep scan with credits",
			audit.ModeDeep,
			State{Authenticated: true, Credits: 3},
			Proceed,
		},
		{
			"deep scan zero credits with license key",
			audit.ModeDeep,
			State{Authenticated: true, Credits: 0, LicenseKey: "lk-123"},
			Proceed,
		},
		{
			"deep scan zero credits no license key",
			audit.ModeDeep,
			State{Authenticated: true, Credits: 0},
			RequirePayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.mode, tt.state); got != tt.want {
				t.Errorf("Evaluate(%v, %+v) = %v, want %v", tt.mode, tt.state, got, tt.want)
			}
		})
	}
}

func TestRequestFor(t *testing.T) {
	t.Run("anonymous carries address only", func(t *testing.T) {
		req := RequestFor("0xabc", audit.ModeQuick, State{LicenseKey: "lk"})
		if req.UserID != "" || req.LicenseKey != "" {
			t.Errorf("anonymous request leaked identity fields: %+v", req)
		}
	})

	t.Run("credits present omits license key", func(t *testing.T) {
		req := RequestFor("0xabc", audit.ModeDeep, State{Authenticated: true, UserID: "u1", Credits: 2, LicenseKey: "lk"})
		if req.UserID != "u1" {
			t.Errorf("UserID = %q, want u1", req.UserID)
		}
		if req.LicenseKey != "" {
			t.Error("license key must not be sent while credits remain")
		}
	})

	t.Run("deep scan at zero credits attaches license key", func(t *testing.T) {
		req := RequestFor("0xabc", audit.ModeDeep, State{Authenticated: true, UserID: "u1", Credits: 0, LicenseKey: "lk"})
		if req.LicenseKey != "lk" {
			t.Errorf("LicenseKey = %q, want lk", req.LicenseKey)
		}
	})

	t.Run("quick scan never transmits the license key", func(t *testing.T) {
		req := RequestFor("0xabc", audit.ModeQuick, State{Authenticated: true, UserID: "u1", Credits: 0, LicenseKey: "lk-secret"})
		if req.LicenseKey != "" {
			t.Errorf("LicenseKey = %q, want empty on the free endpoint", req.LicenseKey)
		}
		if req.UserID != "u1" {
			t.Errorf("UserID = %q, want u1", req.UserID)
		}
	})
}

// fakeCredits returns scripted balances in call order and records calls.
type fakeCredits struct {
	mu       sync.Mutex
	balances []int
	calls    int
}

func (f *fakeCredits) Credits(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.balances) {
		i = len(f.balances) - 1
	}
	return f.balances[i], nil
}

func (f *fakeCredits) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSignInRefreshesOnceThenRetriesOnce(t *testing.T) {
	src := &fakeCredits{balances: []int{0, 5}}
	m := NewManager(src, WithRefreshRetryDelay(10*time.Millisecond))

	if err := m.SignIn(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if got := m.State().Credits; got != 0 {
		t.Fatalf("credits after immediate refresh = %d, want 0", got)
	}

	// The delayed re-check picks up the provisioned balance.
	deadline := time.After(time.Second)
	for m.State().Credits != 5 {
		select {
		case <-deadline:
			t.Fatalf("delayed refresh never applied; credits = %d", m.State().Credits)
		case <-time.After(time.Millisecond):
		}
	}

	// No further retries are scheduled.
	time.Sleep(50 * time.Millisecond)
	if got := src.callCount(); got != 2 {
		t.Errorf("credit source called %d times, want exactly 2", got)
	}
}

func TestSignOutClearsStateAndInvalidatesRetry(t *testing.T) {
	src := &fakeCredits{balances: []int{3, 9}}
	m := NewManager(src, WithRefreshRetryDelay(20*time.Millisecond))

	if err := m.SignIn(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if got := m.State().Credits; got != 3 {
		t.Fatalf("credits = %d, want 3", got)
	}

	if !m.State().CreditsKnown {
		t.Error("CreditsKnown should be set once a refresh has applied")
	}

	m.SignOut()
	s := m.State()
	if s.Authenticated || s.UserID != "" || s.Credits != 0 || s.CreditsKnown {
		t.Errorf("state not cleared on sign-out: %+v", s)
	}

	// The scheduled re-check must not resurrect the old session's balance.
	time.Sleep(60 * time.Millisecond)
	if got := m.State().Credits; got != 0 {
		t.Errorf("credits after sign-out = %d, want 0", got)
	}
}

func TestRefreshRequiresSession(t *testing.T) {
	m := NewManager(&fakeCredits{balances: []int{1}})
	if err := m.Refresh(context.Background()); err == nil {
		t.Fatal("expected error refreshing without a session")
	}
}

// gatedCredits blocks each lookup on its own release channel so tests can
// control the order responses arrive in.
type gatedCredits struct {
	mu      sync.Mutex
	started []chan struct{}
	release []chan int
}

func newGatedCredits(n int) *gatedCredits {
	g := &gatedCredits{}
	for i := 0; i < n; i++ {
		g.started = append(g.started, make(chan struct{}))
		g.release = append(g.release, make(chan int))
	}
	return g
}

func (g *gatedCredits) Credits(ctx context.Context, userID string) (int, error) {
	g.mu.Lock()
	if len(g.started) == 0 {
		g.mu.Unlock()
		return 0, nil
	}
	started, release := g.started[0], g.release[0]
	g.started, g.release = g.started[1:], g.release[1:]
	g.mu.Unlock()

	close(started)
	return <-release, nil
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	src := newGatedCredits(2)
	started := make([]chan struct{}, 2)
	release := make([]chan int, 2)
	copy(started, src.started)
	copy(release, src.release)

	m := NewManager(src)
	m.mu.Lock()
	m.state.Authenticated = true
	m.state.UserID = "u1"
	m.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = m.Refresh(context.Background()) // claims seq 1
	}()
	<-started[0]
	go func() {
		defer wg.Done()
		_ = m.Refresh(context.Background()) // claims seq 2
	}()
	<-started[1]

	release[1] <- 7 // newer refresh resolves first
	for m.State().Credits != 7 {
		time.Sleep(time.Millisecond)
	}
	release[0] <- 1 // older refresh resolves late and must be discarded
	wg.Wait()

	if got := m.State().Credits; got != 7 {
		t.Errorf("credits = %d, want 7 (stale refresh applied)", got)
	}
}
