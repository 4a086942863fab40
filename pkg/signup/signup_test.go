package signup

import (
	"math/rand"
	"strconv"
	"testing"
)

func TestEvaluatePassword(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		wantScore int
		wantLabel StrengthLabel
	}{
		{"all five checks", "Abc123!@", 5, StrengthStrong},
		{"lowercase only", "abc", 1, StrengthWeak},
		{"empty", "", 0, StrengthWeak},
		{"long lowercase", "abcdefgh", 2, StrengthWeak},
		{"three checks", "Abcdefgh", 3, StrengthMedium},
		{"four checks", "Abcdefg1", 4, StrengthMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluatePassword(tt.password)
			if got.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", got.Label, tt.wantLabel)
			}
		})
	}
}

func TestEvaluatePasswordChecks(t *testing.T) {
	r := EvaluatePassword("aB3!")
	if r.HasLength {
		t.Error("HasLength should be false for 4 chars")
	}
	if !r.HasLower || !r.HasUpper || !r.HasDigit || !r.HasSpecial {
		t.Errorf("expected lower/upper/digit/special all true, got %+v", r)
	}
	if r.Acceptable() != (r.Score >= 3) {
		t.Error("Acceptable disagrees with score threshold")
	}
}

func TestCanSubmit(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want bool
	}{
		{
			"sign-in always allowed",
			Form{Mode: ModeSignIn, Password: "x", StrengthScore: 0},
			true,
		},
		{
			"sign-up all requirements met",
			Form{Mode: ModeSignUp, Password: "Abc123!@", ConfirmPassword: "Abc123!@", StrengthScore: 5, CaptchaOK: true},
			true,
		},
		{
			"sign-up weak password",
			Form{Mode: ModeSignUp, Password: "abc", ConfirmPassword: "abc", StrengthScore: 1, CaptchaOK: true},
			false,
		},
		{
			"sign-up mismatched confirmation",
			Form{Mode: ModeSignUp, Password: "Abc123!@", ConfirmPassword: "Abc123!!", StrengthScore: 5, CaptchaOK: true},
			false,
		},
		{
			"sign-up captcha unsolved",
			Form{Mode: ModeSignUp, Password: "Abc123!@", ConfirmPassword: "Abc123!@", StrengthScore: 5, CaptchaOK: false},
			false,
		},
		{
			"sign-up minimum acceptable score",
			Form{Mode: ModeSignUp, Password: "Abcdefgh", ConfirmPassword: "Abcdefgh", StrengthScore: 3, CaptchaOK: true},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSubmit(tt.form); got != tt.want {
				t.Errorf("CanSubmit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCaptchaVerify(t *testing.T) {
	c := NewCaptcha(rand.NewSource(1))
	a, b := c.Operands()
	if a < 1 || a > 10 || b < 1 || b > 10 {
		t.Fatalf("operands out of range: %d, %d", a, b)
	}

	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"correct", strconv.Itoa(a + b), true},
		{"correct with whitespace", "  " + strconv.Itoa(a+b) + " ", true},
		{"wrong value", strconv.Itoa(a + b + 1), false},
		{"non-numeric", strconv.Itoa(a+b) + "x", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCaptcha(rand.NewSource(1))
			if got := c.Verify(tt.answer); got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.answer, got, tt.want)
			}
		})
	}
}

func TestCaptchaSingleUse(t *testing.T) {
	c := NewCaptcha(rand.NewSource(7))
	a, b := c.Operands()
	if !c.Verify(strconv.Itoa(a + b)) {
		t.Fatal("first verification should succeed")
	}
	if c.Verify(strconv.Itoa(a + b)) {
		t.Fatal("consumed challenge must not verify again")
	}

	c.Regenerate()
	a, b = c.Operands()
	if !c.Verify(strconv.Itoa(a + b)) {
		t.Fatal("regenerated challenge should verify")
	}
}

func TestCaptchaFailedVerifyConsumesChallenge(t *testing.T) {
	c := NewCaptcha(rand.NewSource(3))
	a, b := c.Operands()

	if c.Verify("999") {
		t.Fatal("wrong answer should not verify")
	}
	// The failed attempt burned the challenge; even the right answer is
	// rejected until a fresh one is issued.
	if c.Verify(strconv.Itoa(a + b)) {
		t.Fatal("correct answer must not verify after a failed attempt")
	}

	c.Regenerate()
	a, b = c.Operands()
	if !c.Verify(strconv.Itoa(a + b)) {
		t.Fatal("regenerated challenge should verify")
	}
}

func TestCaptchaRegenerateChangesChallenge(t *testing.T) {
	c := NewCaptcha(rand.NewSource(42))
	q1 := c.Question()
	changed := false
	for i := 0; i < 20; i++ {
		c.Regenerate()
		if c.Question() != q1 {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("regeneration never produced a different challenge")
	}
}

