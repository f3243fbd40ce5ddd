package perception

import "testing"

func TestGateBands(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Directive
	}{
		{0.0, DirectiveHardClarify},
		{0.3, DirectiveHardClarify},
		{0.6499, DirectiveHardClarify},
		{0.65, DirectiveSoftConfirm},
		{0.7, DirectiveSoftConfirm},
		{0.8499, DirectiveSoftConfirm},
		{0.85, DirectiveNone},
		{0.95, DirectiveNone},
		{1.0, DirectiveNone},
	}
	for _, tt := range tests {
		if got := Gate(tt.confidence); got != tt.want {
			t.Errorf("Gate(%.4f) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

func TestGateTotalOnUnitInterval(t *testing.T) {
	// Sweep the interval: every value must map to exactly one directive.
	for i := 0; i <= 1000; i++ {
		c := float64(i) / 1000
		d := Gate(c)
		if d != DirectiveNone && d != DirectiveSoftConfirm && d != DirectiveHardClarify {
			t.Fatalf("Gate(%.3f) returned unknown directive %v", c, d)
		}
	}
}
