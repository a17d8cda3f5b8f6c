package formula

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ErrFormula is wrapped by every *Error.
var ErrFormula = errors.New("formula error")

// ErrorKind classifies formula failures.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindUnknownIdentifier
	KindDivisionByZero
	KindNonFinite
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindUnknownIdentifier:
		return "unknown identifier"
	case KindDivisionByZero:
		return "division by zero"
	case KindNonFinite:
		return "non-finite result"
	}
	return "formula error"
}

// Error describes why a formula could not be evaluated.
type Error struct {
	Kind    ErrorKind
	Formula string
	Pos     int
	Msg     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d in %q: %s", e.Kind, e.Pos, e.Formula, e.Msg)
}

func (e *Error) Unwrap() error { return ErrFormula }

func syntaxError(src string, pos int, format string, args ...any) *Error {
	return &Error{Kind: KindSyntax, Formula: src, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Evaluate parses and evaluates a formula against named bindings. Every
// identifier must be present in bindings.
func Evaluate(src string, bindings map[string]float64) (float64, error) {
	e, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return Eval(e, src, bindings)
}

// Eval evaluates an already parsed expression. src is only used in errors.
func Eval(e Expr, src string, bindings map[string]float64) (float64, error) {
	v, err := e.eval(bindings, src)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{Kind: KindNonFinite, Formula: src, Msg: fmt.Sprintf("result is %v", v)}
	}
	return v, nil
}

func (e numberExpr) eval(map[string]float64, string) (float64, error) {
	return e.value, nil
}

func (e identExpr) eval(bindings map[string]float64, src string) (float64, error) {
	v, ok := bindings[e.name]
	if !ok {
		return 0, &Error{Kind: KindUnknownIdentifier, Formula: src, Pos: e.pos, Msg: fmt.Sprintf("%q is not bound", e.name)}
	}
	return v, nil
}

func (e unaryExpr) eval(bindings map[string]float64, src string) (float64, error) {
	v, err := e.operand.eval(bindings, src)
	if err != nil {
		return 0, err
	}
	if e.op == tokMinus {
		return -v, nil
	}
	return v, nil
}

func (e binaryExpr) eval(bindings map[string]float64, src string) (float64, error) {
	l, err := e.left.eval(bindings, src)
	if err != nil {
		return 0, err
	}
	r, err := e.right.eval(bindings, src)
	if err != nil {
		return 0, err
	}
	switch e.op {
	case tokPlus:
		return l + r, nil
	case tokMinus:
		return l - r, nil
	case tokStar:
		return l * r, nil
	case tokSlash:
		if r == 0 {
			return 0, &Error{Kind: KindDivisionByZero, Formula: src, Pos: e.pos, Msg: "divisor evaluates to 0"}
		}
		return l / r, nil
	}
	return 0, &Error{Kind: KindSyntax, Formula: src, Pos: e.pos, Msg: "unknown operator"}
}

// Evaluator evaluates formulas for calculated columns and reports failures
// to a structured logger instead of the caller.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator returns an Evaluator logging to logger (slog.Default when nil).
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{logger: logger}
}

// EvalOrZero evaluates src and returns 0 when it cannot be evaluated. The
// failure is logged with the formula and the row it was evaluated for.
func (ev *Evaluator) EvalOrZero(src string, bindings map[string]float64, rowID string) float64 {
	v, err := Evaluate(src, bindings)
	if err != nil {
		ev.logger.Warn("formula evaluation failed",
			slog.String("formula", src),
			slog.String("row", rowID),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return v
}
