package adt

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"yamlet.dev/go/internal/core/token"
)

// decCtx is shared across every arithmetic operation; 60 digits of
// precision comfortably covers anything a configuration expression needs
// while staying far from apd's own limits.
var decCtx = apd.BaseContext.WithPrecision(60)

// parseIntLiteral parses an integer literal, including the `0xNN`
// hexadecimal form spec.md §4.D calls out explicitly.
func parseIntLiteral(text string, rng token.Range) (Int, error) {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		bi, ok := new(big.Int).SetString(text[2:], 16)
		if !ok {
			return Int{}, &Error{Kind: NotImplemented, Message: "invalid hex literal `" + text + "`"}
		}
		var d apd.Decimal
		d.SetString(bi.String())
		return Int{D: d, rng: rng}, nil
	}
	var d apd.Decimal
	if _, _, err := d.SetString(text); err != nil {
		return Int{}, &Error{Kind: NotImplemented, Message: "invalid integer literal `" + text + "`"}
	}
	return Int{D: d, rng: rng}, nil
}

func parseFloatLiteral(text string, rng token.Range) (Float, error) {
	var d apd.Decimal
	if _, _, err := d.SetString(text); err != nil {
		return Float{}, &Error{Kind: NotImplemented, Message: "invalid float literal `" + text + "`"}
	}
	return Float{D: d, rng: rng}, nil
}

// ParseIntLiteral and ParseFloatLiteral expose the expression grammar's own
// numeric-literal parsing to the YAML tag-constructor layer, so `!!int`/
// `!!float` scalars are parsed identically to their expression-literal
// counterparts (spec.md §4.C, §4.D).
func ParseIntLiteral(text string, rng token.Range) (Int, error)     { return parseIntLiteral(text, rng) }
func ParseFloatLiteral(text string, rng token.Range) (Float, error) { return parseFloatLiteral(text, rng) }

// asDecimal extracts the underlying decimal from an Int or Float value, so
// arithmetic and bitwise helpers can share one numeric path.
func asDecimal(v Value) (apd.Decimal, bool, bool) { // (value, isFloat, ok)
	switch x := v.(type) {
	case Int:
		return x.D, false, true
	case Float:
		return x.D, true, true
	}
	return apd.Decimal{}, false, false
}

func asBigInt(d apd.Decimal) (*big.Int, bool) {
	var i apd.Decimal
	if _, err := decCtx.RoundToIntegralValue(&i, &d); err != nil {
		return nil, false
	}
	bi, ok := new(big.Int).SetString(i.Text('f'), 10)
	return bi, ok
}

func arith(op string, a, b Value, rng token.Range) (Value, error) {
	da, fa, oka := asDecimal(a)
	db, fb, okb := asDecimal(b)
	if !oka || !okb {
		if op == "+" {
			if sa, ok := a.(String); ok {
				if sb, ok := b.(String); ok {
					return String(string(sa) + string(sb)), nil
				}
			}
			if la, ok := a.(List); ok {
				if lb, ok := b.(List); ok {
					out := append(append([]Value{}, la.Elems...), lb.Elems...)
					return NewList(out, rng), nil
				}
			}
		}
		return nil, &Error{Kind: NotImplemented, Message: "unsupported operand types for `" + op + "`"}
	}
	isFloat := fa || fb
	var out apd.Decimal
	switch op {
	case "+":
		decCtx.Add(&out, &da, &db)
	case "-":
		decCtx.Sub(&out, &da, &db)
	case "*":
		decCtx.Mul(&out, &da, &db)
	case "/":
		if db.IsZero() {
			return nil, &Error{Kind: NotImplemented, Message: "division by zero"}
		}
		decCtx.Quo(&out, &da, &db)
		isFloat = true
	case "//":
		if db.IsZero() {
			return nil, &Error{Kind: NotImplemented, Message: "division by zero"}
		}
		decCtx.QuoInteger(&out, &da, &db)
	case "%":
		if db.IsZero() {
			return nil, &Error{Kind: NotImplemented, Message: "modulo by zero"}
		}
		decCtx.Rem(&out, &da, &db)
	case "&", "|", "^", "<<", ">>":
		bia, ok1 := asBigInt(da)
		bib, ok2 := asBigInt(db)
		if !ok1 || !ok2 {
			return nil, &Error{Kind: NotImplemented, Message: "bitwise operator requires integer operands"}
		}
		var r big.Int
		switch op {
		case "&":
			r.And(bia, bib)
		case "|":
			r.Or(bia, bib)
		case "^":
			r.Xor(bia, bib)
		case "<<":
			r.Lsh(bia, uint(bib.Int64()))
		case ">>":
			r.Rsh(bia, uint(bib.Int64()))
		}
		out.SetString(r.String())
		return Int{D: out, rng: rng}, nil
	default:
		return nil, &Error{Kind: NotImplemented, Message: "unsupported binary operator `" + op + "`"}
	}
	if isFloat {
		return Float{D: out, rng: rng}, nil
	}
	return Int{D: out, rng: rng}, nil
}

func numericCompare(a, b apd.Decimal) int {
	return a.Cmp(&b)
}

func intDecimal(n int64) apd.Decimal {
	var d apd.Decimal
	d.SetInt64(n)
	return d
}

func asInt64(v Value) int64 {
	switch x := v.(type) {
	case Int:
		n, _ := x.D.Int64()
		return n
	case Float:
		n, _ := x.D.Int64()
		return n
	}
	return 0
}
