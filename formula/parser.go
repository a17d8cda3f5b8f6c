package formula

import (
	"fmt"
	"strings"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 200

// Expr is a parsed formula.
type Expr interface {
	eval(bindings map[string]float64, src string) (float64, error)
	String() string
}

type numberExpr struct {
	value float64
	text  string
}

type identExpr struct {
	name string
	pos  int
}

type unaryExpr struct {
	op      tokenKind
	operand Expr
}

type binaryExpr struct {
	op          tokenKind
	left, right Expr
	pos         int
}

func (e numberExpr) String() string { return e.text }
func (e identExpr) String() string  { return e.name }

func (e unaryExpr) String() string {
	if e.op == tokMinus {
		return "(-" + e.operand.String() + ")"
	}
	return "(+" + e.operand.String() + ")"
}

func (e binaryExpr) String() string {
	var op string
	switch e.op {
	case tokPlus:
		op = "+"
	case tokMinus:
		op = "-"
	case tokStar:
		op = "*"
	case tokSlash:
		op = "/"
	}
	return "(" + e.left.String() + " " + op + " " + e.right.String() + ")"
}

type parser struct {
	src   string
	toks  []token
	pos   int
	depth int
}

// Parse builds the expression tree of a formula.
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := ('+' | '-') unary | primary
//	primary := number | identifier | '(' expr ')'
func Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, syntaxError(src, 0, "empty formula")
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, syntaxError(src, tok.pos, "unexpected %s", describe(tok))
	}
	return e, nil
}

// Identifiers returns the distinct identifiers referenced by a formula, in
// order of first appearance.
func Identifiers(src string) ([]string, error) {
	e, err := Parse(src)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case identExpr:
			if !seen[n.name] {
				seen[n.name] = true
				names = append(names, n.name)
			}
		case unaryExpr:
			walk(n.operand)
		case binaryExpr:
			walk(n.left)
			walk(n.right)
		}
	}
	walk(e)
	return names, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return syntaxError(p.src, p.peek().pos, "formula nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseExpr() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPlus && tok.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: tok.kind, left: left, right: right, pos: tok.pos}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokStar && tok.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: tok.kind, left: left, right: right, pos: tok.pos}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	tok := p.peek()
	if tok.kind == tokPlus || tok.kind == tokMinus {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryExpr{op: tok.kind, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return numberExpr{value: tok.num, text: tok.text}, nil
	case tokIdent:
		return identExpr{name: tok.text, pos: tok.pos}, nil
	case tokLParen:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, syntaxError(p.src, closing.pos, "expected ')' but found %s", describe(closing))
		}
		return e, nil
	}
	return nil, syntaxError(p.src, tok.pos, "unexpected %s", describe(tok))
}

func describe(tok token) string {
	switch tok.kind {
	case tokNumber, tokIdent:
		return fmt.Sprintf("%s %q", tok.kind, tok.text)
	}
	return tok.kind.String()
}
