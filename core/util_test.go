package core

import "testing"

func TestRoundPercent(t *testing.T) {
	tests := []struct {
		name     string
		num, div int
		want     int
	}{
		{name: "zero divisor", num: 3, div: 0, want: 0},
		{name: "negative divisor", num: 3, div: -1, want: 0},
		{name: "zero numerator", num: 0, div: 5, want: 0},
		{name: "exact", num: 1, div: 4, want: 25},
		{name: "rounds down", num: 1, div: 3, want: 33},
		{name: "rounds up", num: 2, div: 3, want: 67},
		{name: "half rounds up", num: 5, div: 8, want: 63},
		{name: "complete", num: 8, div: 8, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundPercent(tt.num, tt.div); got != tt.want {
				t.Errorf("RoundPercent(%d, %d) = %d, want %d", tt.num, tt.div, got, tt.want)
			}
		})
	}
}
