// Package formula evaluates the arithmetic expressions carried by calculated
// table columns. Only + - * / ( ), number literals and identifiers bound to
// row fields are understood; there is no way to reach anything outside the
// bindings map.
package formula

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of formula"
	case tokNumber:
		return "number"
	case tokIdent:
		return "identifier"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	}
	return "unknown token"
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int // byte offset in the formula
}

// lex splits a formula into tokens. It stops at the first character that
// cannot start a token.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '+':
			toks = append(toks, token{kind: tokPlus, text: "+", pos: i})
			i++
		case r == '-':
			toks = append(toks, token{kind: tokMinus, text: "-", pos: i})
			i++
		case r == '*':
			toks = append(toks, token{kind: tokStar, text: "*", pos: i})
			i++
		case r == '/':
			toks = append(toks, token{kind: tokSlash, text: "/", pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case isDigit(r) || r == '.':
			tok, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += len(tok.text)
		case isIdentStart(r):
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			return nil, syntaxError(src, i, "unexpected character %q", r)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// lexNumber reads digits, an optional fraction and an optional exponent.
func lexNumber(src string, start int) (token, error) {
	i := start
	digits := 0
	for i < len(src) && isDigit(rune(src[i])) {
		i++
		digits++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(rune(src[i])) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return token{}, syntaxError(src, start, "malformed number")
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(src) && isDigit(rune(src[j])) {
			j++
			expDigits++
		}
		if expDigits == 0 {
			return token{}, syntaxError(src, i, "malformed exponent")
		}
		i = j
	}
	text := src[start:i]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, syntaxError(src, start, "malformed number %q", text)
	}
	return token{kind: tokNumber, text: text, num: v, pos: start}, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool { return isIdentStart(r) || unicode.IsDigit(r) }
