package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/worduel/internal/model"
)

const (
	c = model.VerdictCorrect
	p = model.VerdictPresent
	a = model.VerdictAbsent
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		secret string
		want   []model.Verdict
	}{
		{"exact match", "CRANE", "CRANE", []model.Verdict{c, c, c, c, c}},
		{"no overlap", "BUMPY", "CRANE", []model.Verdict{a, a, a, a, a}},
		{"duplicate letters consumed once", "LOLLY", "ALLOY", []model.Verdict{p, p, c, a, c}},
		{"correct beats earlier present", "SPEED", "ABIDE", []model.Verdict{a, a, p, a, p}},
		{"all present anagram", "NACRE", "CRANE", []model.Verdict{p, p, p, p, c}},
		{"repeated guess letter single in secret", "EERIE", "THOSE", []model.Verdict{a, a, a, a, c}},
		{"both repeats present", "ALLEY", "LEVEL", []model.Verdict{a, p, p, c, a}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.guess, tt.secret))
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	first := Evaluate("LOLLY", "ALLOY")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate("LOLLY", "ALLOY"))
	}
}

func TestSolved(t *testing.T) {
	assert.True(t, Solved([]model.Verdict{c, c, c, c, c}))
	assert.False(t, Solved([]model.Verdict{c, c, c, c, p}))
	assert.False(t, Solved(nil))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "CRANE", Normalize("  crane\n"))
	assert.Equal(t, "CRANE", Normalize("CrAnE"))
}

func TestWellFormed(t *testing.T) {
	assert.True(t, WellFormed("CRANE"))
	assert.True(t, WellFormed("crane"))
	assert.False(t, WellFormed("CRAN"))
	assert.False(t, WellFormed("CRANES"))
	assert.False(t, WellFormed("CR4NE"))
	assert.False(t, WellFormed(""))
}
