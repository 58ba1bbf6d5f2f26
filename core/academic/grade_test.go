package academic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/academia/core"
)

func TestGradeFor(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "A"},
		{90, "A"},
		{89.999, "B"},
		{80, "B"},
		{79.99, "C"},
		{70, "C"},
		{69.5, "D"},
		{60, "D"},
		{59.999, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.score); got != tt.want {
			t.Errorf("GradeFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestGradeFor_total(t *testing.T) {
	grades := map[string]bool{"A": true, "B": true, "C": true, "D": true, "F": true}
	prev := "F"
	order := map[string]int{"F": 0, "D": 1, "C": 2, "B": 3, "A": 4}
	for score := 0.0; score <= 100; score += 0.25 {
		got := GradeFor(score)
		if !grades[got] {
			t.Fatalf("GradeFor(%v) = %q, not a grade", score, got)
		}
		if order[got] < order[prev] {
			t.Fatalf("GradeFor(%v) = %q, lower than previous %q", score, got, prev)
		}
		prev = got
	}
}

func Test_validateScore(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		wantErr bool
	}{
		{name: "min", score: 0},
		{name: "max", score: 100},
		{name: "negative", score: -0.01, wantErr: true},
		{name: "above max", score: 100.01, wantErr: true},
		{name: "NaN", score: math.NaN(), wantErr: true},
		{name: "Inf", score: math.Inf(1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateScore(tt.score)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateScore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))
			}
		})
	}
}
