package signup

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
)

// Captcha is a single-use arithmetic challenge shown on the sign-up form.
// Both operands are in [1, 10]. Any verification attempt, successful or
// not, consumes the challenge; the stale answer cannot be replayed and a
// fresh challenge must be issued with Regenerate before the next attempt.
type Captcha struct {
	mu   sync.Mutex
	rng  *rand.Rand
	a, b int
	used bool
}

// NewCaptcha creates a challenge seeded from the provided source. A nil
// source falls back to the global generator.
func NewCaptcha(src rand.Source) *Captcha {
	c := &Captcha{}
	if src != nil {
		c.rng = rand.New(src)
	}
	c.roll()
	return c
}

func (c *Captcha) roll() {
	if c.rng != nil {
		c.a = c.rng.Intn(10) + 1
		c.b = c.rng.Intn(10) + 1
	} else {
		c.a = rand.Intn(10) + 1
		c.b = rand.Intn(10) + 1
	}
	c.used = false
}

// Question returns the prompt shown to the user, e.g. "3 + 4 = ?".
func (c *Captcha) Question() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strconv.Itoa(c.a) + " + " + strconv.Itoa(c.b) + " = ?"
}

// Operands returns the current challenge operands.
func (c *Captcha) Operands() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.a, c.b
}

// Verify checks the user's answer against the current challenge. The answer
// is trimmed and parsed as a base-10 integer; anything that does not parse
// fails. Every attempt consumes the challenge, so a wrong answer cannot be
// followed by a retry against the same operands.
func (c *Captcha) Verify(answer string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.used {
		return false
	}
	c.used = true

	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return false
	}
	return n == c.a+c.b
}

// Regenerate issues a fresh challenge. Called after any verification
// attempt and after a rejected sign-up so an answer cannot be replayed.
func (c *Captcha) Regenerate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roll()
}
