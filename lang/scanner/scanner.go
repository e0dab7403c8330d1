// Package scanner tokenizes ember source text. The compiler drives the
// scanner one token at a time: the compiler is single-pass, so the scanner
// is too, and never needs a full token slice up front.
package scanner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ember-lang/ember/lang/token"
)

// Tok holds one scanned token: its kind, source line, and (for IDENT/NUM)
// the decoded literal value.
type Tok struct {
	Kind  token.Token
	Line  int
	Ident string  // set when Kind == token.IDENT
	Num   float64 // set when Kind == token.NUM
}

// Scanner turns source text into a stream of Tok values, one at a time.
type Scanner struct {
	src    string
	file   string
	cursor int
	line   int
}

// New creates a scanner over src. file is used only for error messages.
func New(file, src string) *Scanner {
	return &Scanner{src: src, file: file, line: 1}
}

func (s *Scanner) peek() byte {
	if s.cursor >= len(s.src) {
		return 0
	}
	return s.src[s.cursor]
}

func (s *Scanner) peekAt(offset int) byte {
	if s.cursor+offset >= len(s.src) {
		return 0
	}
	return s.src[s.cursor+offset]
}

func isWhitespace(ch byte) bool { return ch == '\r' || ch == '\n' || ch == '\t' || ch == ' ' }
func isDigit(ch byte) bool      { return ch >= '0' && ch <= '9' }
func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}
func isIdentContinue(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }

func (s *Scanner) skipWhitespace() {
	for isWhitespace(s.peek()) {
		ch := s.peek()
		if ch == '\r' && s.peekAt(1) == '\n' {
			s.cursor++
		}
		if ch == '\n' || ch == '\r' {
			s.line++
		}
		s.cursor++
	}
}

// multiChar pairs a first byte with a possible second byte and the token
// produced when both match.
type multiChar struct {
	first, second byte
	tok           token.Token
}

var multiChars = []multiChar{
	{'.', '.', token.CONCAT},
	{'+', '=', token.ADD_ASSIGN},
	{'-', '=', token.SUB_ASSIGN},
	{'*', '=', token.MUL_ASSIGN},
	{'/', '=', token.DIV_ASSIGN},
	{'%', '=', token.MOD_ASSIGN},
	{'<', '=', token.LE},
	{'>', '=', token.GE},
	{'=', '=', token.EQ},
	{'!', '=', token.NEQ},
	{'&', '&', token.AND},
	{'|', '|', token.OR},
}

// Next scans and returns the next token.
func (s *Scanner) Next() (Tok, error) {
	s.skipWhitespace()
	line := s.line

	ch := s.peek()
	switch {
	case ch == 0:
		return Tok{Kind: token.EOF, Line: line}, nil
	case isIdentStart(ch):
		return s.scanIdent(line), nil
	case isDigit(ch):
		return s.scanNumber(line)
	}

	for _, mc := range multiChars {
		if ch == mc.first && s.peekAt(1) == mc.second {
			s.cursor += 2
			return Tok{Kind: mc.tok, Line: line}, nil
		}
	}

	s.cursor++
	return Tok{Kind: token.Token(ch), Line: line}, nil
}

func (s *Scanner) scanIdent(line int) Tok {
	start := s.cursor
	for isIdentContinue(s.peek()) {
		s.cursor++
	}
	name := s.src[start:s.cursor]
	if kw, ok := token.Keywords[name]; ok {
		return Tok{Kind: kw, Line: line}
	}
	return Tok{Kind: token.IDENT, Line: line, Ident: name}
}

func (s *Scanner) scanNumber(line int) (Tok, error) {
	base := 10
	if s.peek() == '0' {
		switch s.peekAt(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
	}
	if base != 10 {
		return s.scanInt(line, base)
	}
	return s.scanFloat(line)
}

func (s *Scanner) scanInt(line int, base int) (Tok, error) {
	start := s.cursor
	s.cursor += 2 // skip the 0x/0o/0b prefix; ParseUint wants the digits alone
	for isDigitForBase(s.peek(), base) {
		s.cursor++
	}
	digits := s.src[start+2 : s.cursor]
	if digits == "" {
		return Tok{}, s.errorf(line, "failed to parse number")
	}
	n, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Tok{}, s.errorf(line, "failed to parse number")
	}
	return Tok{Kind: token.NUM, Line: line, Num: float64(n)}, nil
}

func isDigitForBase(ch byte, base int) bool {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch-'0') < base
	case ch >= 'a' && ch <= 'f':
		return base == 16
	case ch >= 'A' && ch <= 'F':
		return base == 16
	}
	return false
}

func (s *Scanner) scanFloat(line int) (Tok, error) {
	start := s.cursor
	for isDigit(s.peek()) {
		s.cursor++
	}
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.cursor++
		for isDigit(s.peek()) {
			s.cursor++
		}
	}
	if s.peek() == 'e' || s.peek() == 'E' {
		save := s.cursor
		s.cursor++
		if s.peek() == '+' || s.peek() == '-' {
			s.cursor++
		}
		if isDigit(s.peek()) {
			for isDigit(s.peek()) {
				s.cursor++
			}
		} else {
			s.cursor = save
		}
	}
	text := s.src[start:s.cursor]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Tok{}, s.errorf(line, "failed to parse number")
	}
	return Tok{Kind: token.NUM, Line: line, Num: n}, nil
}

func (s *Scanner) errorf(line int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if s.file != "" {
		return fmt.Errorf("%s:%d: %s", s.file, line, msg)
	}
	return fmt.Errorf("%d: %s", line, msg)
}

// Name returns a readable form of the token kind for use in parser errors.
func Name(tok token.Token) string {
	return strings.TrimSpace(tok.String())
}
