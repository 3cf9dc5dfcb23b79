// Package solver extracts a single arithmetic problem from OCR text and
// computes its answer. Recognition output is messy: glyph variants for the
// operators, localized digits, stray markup and prompt characters. The
// pipeline tries a sequence of increasingly permissive interpretations and
// the first one that yields a number wins.
package solver

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnsolvable is returned when no arithmetic answer can be extracted.
// Malformed input, missing numeric pattern, division by zero and evaluation
// errors all collapse into it; callers never see a partial result.
var ErrUnsolvable = errors.New("solver: no solvable expression")

var (
	// Numbers wrapped individually in brackets, braces or parens. Structured
	// OCR output renders each operand as its own cell, e.g. "{4}{5}{6}".
	bracketedNumRe = regexp.MustCompile(`[\[{(]\s*(\d+(?:\.\d+)?)\s*[\]})]`)

	// First two-operand form in the text, decimals allowed.
	pairRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([+\-*/])\s*(\d+(?:\.\d+)?)`)

	// Everything an arithmetic expression may not contain.
	junkRe = regexp.MustCompile(`[^0-9+\-*/.() ]`)

	exprCharsRe = regexp.MustCompile(`^[0-9+\-*/.() ]+$`)
)

// glyphNormalizer maps operator glyph variants to their canonical form and
// localized digits to ASCII. OCR engines emit "×"/"÷" for the game's
// challenge images, and the surrounding chat text carries Persian digits.
var glyphNormalizer = strings.NewReplacer(
	"×", "*", "x", "*", "X", "*",
	"÷", "/",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"=", " ", "?", " ", "؟", " ",
	"[", " ", "]", " ", "{", " ", "}", " ",
)

// Solve parses text and returns the numeric answer.
//
// The stages run in order and the first success wins:
//  1. Bracketed layout: two or more numbers each enclosed in markup are
//     summed. This handles structured OCR output, not general equations.
//  2. Glyph and digit normalization, then the first <number> <op> <number>
//     pair is evaluated directly.
//  3. The text is stripped to expression characters only and the pair
//     search retries on the cleaned string.
//  4. If the cleaned string is a pure arithmetic expression with at least
//     one operator, it is evaluated in full with standard precedence.
//
// Any failure, including division by zero, returns ErrUnsolvable.
func Solve(text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrUnsolvable
	}

	if v, ok := solveBracketed(text); ok {
		return v, nil
	}

	norm := glyphNormalizer.Replace(text)
	if v, ok, err := solvePair(norm); ok {
		return v, err
	}

	cleaned := junkRe.ReplaceAllString(norm, "")
	if v, ok, err := solvePair(cleaned); ok {
		return v, err
	}

	if exprCharsRe.MatchString(cleaned) && strings.ContainsAny(cleaned, "+-*/") {
		v, err := evalExpr(cleaned)
		if err != nil {
			return 0, ErrUnsolvable
		}
		return v, nil
	}

	return 0, ErrUnsolvable
}

// solveBracketed sums numbers that appear individually wrapped in markup.
// Requires at least two so that a lone parenthesized operand does not
// short-circuit the real parse.
func solveBracketed(text string) (float64, bool) {
	matches := bracketedNumRe.FindAllStringSubmatch(text, -1)
	if len(matches) < 2 {
		return 0, false
	}
	var sum float64
	for _, m := range matches {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		sum += n
	}
	return sum, true
}

// solvePair evaluates the first two-operand expression found in s. The
// second return value reports whether a pair was found at all; when it is
// true the error is ErrUnsolvable only for division by zero.
func solvePair(s string) (float64, bool, error) {
	m := pairRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false, nil
	}
	a, err1 := strconv.ParseFloat(m[1], 64)
	b, err2 := strconv.ParseFloat(m[3], 64)
	if err1 != nil || err2 != nil {
		return 0, false, nil
	}
	switch m[2] {
	case "+":
		return a + b, true, nil
	case "-":
		return a - b, true, nil
	case "*":
		return a * b, true, nil
	case "/":
		if b == 0 {
			return 0, true, ErrUnsolvable
		}
		return a / b, true, nil
	}
	return 0, false, nil
}

// Render formats an answer for the reply message. Integral values drop the
// decimal point so "15" is sent rather than "15.0".
func Render(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
