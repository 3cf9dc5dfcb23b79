package solver

import (
	"fmt"
	"strconv"
	"strings"
)

// evalExpr evaluates a full arithmetic expression with standard operator
// precedence and parentheses. Only digits, ".", "+-*/", parens and spaces
// are expected; anything else is a parse error. Division by zero anywhere
// in the expression is an error, never an Inf result.
func evalExpr(s string) (float64, error) {
	p := &exprParser{input: s}
	v, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("trailing input at offset %d", p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() (byte, bool) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

// parseSum handles the lowest precedence level: addition and subtraction.
func (p *exprParser) parseSum() (float64, error) {
	v, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		c, ok := p.peek()
		if !ok || (c != '+' && c != '-') {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseProduct()
		if err != nil {
			return 0, err
		}
		if c == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

func (p *exprParser) parseProduct() (float64, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		c, ok := p.peek()
		if !ok || (c != '*' && c != '/') {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if c == '*' {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero at offset %d", p.pos)
			}
			v /= rhs
		}
	}
}

// parseUnary consumes any run of leading signs before a primary.
func (p *exprParser) parseUnary() (float64, error) {
	neg := false
	for {
		c, ok := p.peek()
		if !ok {
			return 0, fmt.Errorf("unexpected end of expression")
		}
		if c == '-' {
			neg = !neg
			p.pos++
			continue
		}
		if c == '+' {
			p.pos++
			continue
		}
		break
	}
	v, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	c, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	if c == '(' {
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		c, ok := p.peek()
		if !ok || c != ')' {
			return 0, fmt.Errorf("missing closing parenthesis at offset %d", p.pos)
		}
		p.pos++
		return v, nil
	}
	return p.parseNumber()
}

func (p *exprParser) parseNumber() (float64, error) {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected number at offset %d", start)
	}
	lit := p.input[start:p.pos]
	if strings.Count(lit, ".") > 1 {
		return 0, fmt.Errorf("malformed number %q", lit)
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed number %q", lit)
	}
	return v, nil
}
