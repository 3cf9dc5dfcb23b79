package solver

import (
	"errors"
	"testing"
)

// TestSolve covers the extraction pipeline stage by stage: bracketed
// layouts, direct operand pairs, glyph normalization, the cleaned retry and
// the full-expression fallback.
func TestSolve(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"simple addition", "12 + 3", 15},
		{"prompt decoration", "12 + 3 = ?", 15},
		{"subtraction", "20 - 7", 13},
		{"multiplication", "6 * 7", 42},
		{"division", "84 / 2", 42},
		{"multiplication glyph", "6 × 7", 42},
		{"division glyph", "84 ÷ 2", 42},
		{"latin x operator", "6 x 7", 42},
		{"uppercase x operator", "6 X 7", 42},
		{"persian digits", "۱۲ × ۳", 36},
		{"arabic indic digits", "٤ + ٥", 9},
		{"persian question mark", "۹ - ۴ = ؟", 5},
		{"decimal operands", "2.5 + 0.5", 3},
		{"no spacing", "12+3", 15},
		{"bracketed pair", "{4}{11}", 15},
		{"bracketed triple", "{4}{5}{6}", 15},
		{"mixed bracket styles", "[2] (3) {10}", 15},
		{"bracketed decimals", "{1.5}{2.5}", 4},
		{"junk around pair", "answer: 12a+3 please", 15},
		{"text before pair", "حاصل 9 * 9 چند است", 81},
		{"first pair wins", "1 + 2 and 3 + 4", 3},
		{"parenthesized resolves via pair", "(2+3)*4", 5},
		{"unary minus fallback", "12 + -3", 9},
		{"unary chain fallback", "--4 + -3", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Solve(tt.text)
			if err != nil {
				t.Fatalf("Solve(%q) returned error %v, want %v", tt.text, err, tt.want)
			}
			if got != tt.want {
				t.Errorf("Solve(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// TestSolveUnsolvable verifies that every failure mode collapses into
// ErrUnsolvable and never a numeric artifact like Inf or NaN.
func TestSolveUnsolvable(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no numbers", "hello there"},
		{"lone number", "42"},
		{"division by zero", "10/0"},
		{"division by zero glyph", "10÷0"},
		{"nested division by zero", "7/+0"},
		{"operator without operands", "+ * /"},
		{"unbalanced parens", "2+(3"},
		{"single bracketed number", "{42}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Solve(tt.text)
			if !errors.Is(err, ErrUnsolvable) {
				t.Errorf("Solve(%q) = %v, %v, want ErrUnsolvable", tt.text, got, err)
			}
		})
	}
}

// TestSolveStableAcrossRendering checks that a decorated input and its
// canonical cleaned form agree on the answer.
func TestSolveStableAcrossRendering(t *testing.T) {
	pairs := [][2]string{
		{"12 + 3 = ?", "12+3"},
		{"۶ × ۷ = ؟", "6*7"},
		{"answer: 10a/4", "10/4"},
	}
	for _, p := range pairs {
		decorated, canonical := p[0], p[1]
		a, err := Solve(decorated)
		if err != nil {
			t.Fatalf("Solve(%q) returned error %v", decorated, err)
		}
		b, err := Solve(canonical)
		if err != nil {
			t.Fatalf("Solve(%q) returned error %v", canonical, err)
		}
		if a != b {
			t.Errorf("Solve(%q) = %v but Solve(%q) = %v", decorated, a, canonical, b)
		}
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{15, "15"},
		{-2, "-2"},
		{0, "0"},
		{7.5, "7.5"},
		{2.25, "2.25"},
		{1.0 / 3.0, "0.3333333333333333"},
	}
	for _, tt := range tests {
		if got := Render(tt.v); got != tt.want {
			t.Errorf("Render(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestEvalExpr(t *testing.T) {
	tests := []struct {
		expr    string
		want    float64
		wantErr bool
	}{
		{"2+3*4", 14, false},
		{"(2+3)*4", 20, false},
		{"10/4", 2.5, false},
		{"-(2+3)", -5, false},
		{"2*(3+(4-1))", 12, false},
		{"1/0", 0, true},
		{"2*(1-1+0)/(3-3)", 0, true},
		{"2++", 0, true},
		{"1..2+1", 0, true},
		{"()", 0, true},
	}
	for _, tt := range tests {
		got, err := evalExpr(tt.expr)
		if tt.wantErr {
			if err == nil {
				t.Errorf("evalExpr(%q) = %v, want error", tt.expr, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("evalExpr(%q) returned error %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("evalExpr(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}
