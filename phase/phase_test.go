package phase

import (
	"testing"
	"time"
)

// TestNext walks the cycle twice and checks every preempted transition resets to Red
func TestNext(t *testing.T) {
	expected := []Phase{YellowToGreen, Green, YellowToRed, Red, YellowToGreen, Green, YellowToRed, Red}
	cur := Red
	for i, want := range expected {
		cur = Next(cur, false)
		if cur != want {
			t.Errorf("step %d: expected %v, received %v", i, want, cur)
		}
	}
	for _, p := range Cycle {
		if n := Next(p, true); n != Red {
			t.Errorf("Preempted transition from %v should reset to RED, received %v", p, n)
		}
	}
}

// TestDwellAndCodes checks the fixed dwell durations and indicator codes of each phase
func TestDwellAndCodes(t *testing.T) {
	cases := []struct {
		p     Phase
		dwell time.Duration
		code  string
	}{
		{Red, 5 * time.Second, "RED"},
		{YellowToGreen, 2 * time.Second, "YELLOW"},
		{Green, 4 * time.Second, "GREEN"},
		{YellowToRed, 2 * time.Second, "YELLOW"},
	}
	for _, c := range cases {
		t.Run(c.p.String(), func(t *testing.T) {
			if c.p.Dwell() != c.dwell {
				t.Errorf("Expected dwell %v, received %v", c.dwell, c.p.Dwell())
			}
			if c.p.IndicatorCode() != c.code {
				t.Errorf("Expected code %s, received %s", c.code, c.p.IndicatorCode())
			}
		})
	}
}
