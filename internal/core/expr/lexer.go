package expr

import (
	"fmt"
	"strings"
)

// TokKind enumerates lexical token kinds.
type TokKind int

const (
	TokEOF TokKind = iota
	TokName
	TokNumber
	TokString
	TokOp
	TokKeyword
)

// Token is one lexical unit, with enough position information for the
// implicit-composition pass to reason about adjacency.
type Token struct {
	Kind  TokKind
	Text  string
	Start Pos
	End   Pos
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "for": true, "True": true, "False": true,
	"None": true, "lambda": true,
}

// Lexer tokenizes Yamlet expression text. It is hand-written (rather than
// driven off a general-purpose Python tokenizer) so that the
// implicit-composition adapter in spec.md §4.D can be applied as an exact,
// well-defined second pass over its output (spec.md §9).
type Lexer struct {
	src []rune
	pos int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src)}
}

// Tokenize returns every token in src, including a trailing TokEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekRuneAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		if c == '#' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

var multiCharOps = []string{
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=",
}

func (l *Lexer) next() (Token, error) {
	l.skipSpace()
	start := Pos(l.pos)
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Start: start, End: start}, nil
	}
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		begin := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		text := string(l.src[begin:l.pos])
		// "is not" and "not in" fold into single two-word operators
		// handled by the parser by peeking ahead, so the lexer just
		// emits plain keyword/name tokens here.
		kind := TokName
		if keywords[text] {
			kind = TokKeyword
		}
		return Token{Kind: kind, Text: text, Start: start, End: Pos(l.pos)}, nil

	case isDigit(c):
		return l.lexNumber(start)

	case c == '"' || c == '\'':
		return l.lexString(start, c)

	default:
		for _, op := range multiCharOps {
			n := len([]rune(op))
			if l.pos+n <= len(l.src) && string(l.src[l.pos:l.pos+n]) == op {
				l.pos += n
				return Token{Kind: TokOp, Text: op, Start: start, End: Pos(l.pos)}, nil
			}
		}
		if strings.ContainsRune("+-*/%&|^~<>()[]{}:,.=@", c) {
			l.pos++
			return Token{Kind: TokOp, Text: string(c), Start: start, End: Pos(l.pos)}, nil
		}
		return Token{}, fmt.Errorf("unexpected character %q at offset %d", c, l.pos)
	}
}

func (l *Lexer) lexNumber(start Pos) (Token, error) {
	begin := l.pos
	if l.peekRune() == '0' && (l.peekRuneAt(1) == 'x' || l.peekRuneAt(1) == 'X') {
		l.pos += 2
		for l.pos < len(l.src) && isHexDigit(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: TokNumber, Text: string(l.src[begin:l.pos]), Start: start, End: Pos(l.pos)}, nil
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.peekRune() == '.' && isDigit(l.peekRuneAt(1)) {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.peekRune() == 'e' || l.peekRune() == 'E' {
		save := l.pos
		l.pos++
		if l.peekRune() == '+' || l.peekRune() == '-' {
			l.pos++
		}
		if isDigit(l.peekRune()) {
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	return Token{Kind: TokNumber, Text: string(l.src[begin:l.pos]), Start: start, End: Pos(l.pos)}, nil
}

func (l *Lexer) lexString(start Pos, quote rune) (Token, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, fmt.Errorf("unterminated string starting at offset %d", int(start))
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			break
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			b.WriteRune(unescape(l.src[l.pos]))
			l.pos++
			continue
		}
		b.WriteRune(c)
		l.pos++
	}
	return Token{Kind: TokString, Text: b.String(), Start: start, End: Pos(l.pos)}, nil
}

func unescape(c rune) rune {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
