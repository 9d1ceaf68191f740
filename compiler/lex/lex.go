package lex

import (
	"bufio"
	"fmt"
	"io"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Lexer pulls tokens from a character stream one at a time.
	Lexer struct {
		r *bufio.Reader

		// MaxLen limits identifier and number text. Zero means no limit.
		MaxLen   int
		Overflow Overflow

		pos  Pos // position of the next byte
		prev Pos // position before the last read, for unread
	}

	// Overflow selects what happens to a token longer than MaxLen.
	Overflow int

	TooLongError struct {
		Pos Pos
		Len int
		Max int
	}
)

const (
	// OverflowError fails the token with TooLongError.
	OverflowError Overflow = iota

	// OverflowTruncate consumes the whole run but keeps only MaxLen characters.
	OverflowTruncate
)

const DefaultMaxLen = 99

func New(r io.Reader) *Lexer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	return &Lexer{
		r:      br,
		MaxLen: DefaultMaxLen,
		pos:    Pos{Line: 1, Col: 1},
	}
}

// Next returns the next token advancing the stream past it.
// Once EOF is returned it is returned forever.
func (l *Lexer) Next() (t Token, err error) {
	t, err = l.next()

	tlog.V("lex").Printw("token", "tok", t, "err", err)

	return t, err
}

func (l *Lexer) next() (Token, error) {
	for {
		st := l.pos

		c, err := l.read()
		if err == io.EOF {
			return Token{Kind: EOF, Pos: st}, nil
		}
		if err != nil {
			return Token{Pos: st}, errors.Wrap(err, "read")
		}

		if isSpace(c) {
			continue
		}

		switch {
		case isAlpha(c):
			text, err := l.run(c, st, isAlnum)

			kind := Ident
			if k, ok := keywords[text]; ok {
				kind = k
			}

			return Token{Kind: kind, Text: text, Pos: st}, err
		case isDigit(c):
			text, err := l.run(c, st, isDigit)

			return Token{Kind: Number, Text: text, Pos: st}, err
		case c == '=':
			n, err := l.read()
			switch {
			case err == nil && n == '=':
				return Token{Kind: Equal, Text: "==", Pos: st}, nil
			case err == nil:
				l.unread()
			case err != io.EOF:
				return Token{Pos: st}, errors.Wrap(err, "read")
			}

			return Token{Kind: Assign, Text: "=", Pos: st}, nil
		}

		if k, ok := punct[c]; ok {
			return Token{Kind: k, Text: string(c), Pos: st}, nil
		}

		return Token{Kind: Unknown, Text: string(c), Pos: st}, nil
	}
}

// run reads the rest of a token started with c while ok holds.
func (l *Lexer) run(c byte, st Pos, ok func(byte) bool) (string, error) {
	buf := []byte{c}
	n := 1

	for {
		c, err := l.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return string(buf), errors.Wrap(err, "read")
		}

		if !ok(c) {
			l.unread()
			break
		}

		n++

		if l.MaxLen <= 0 || len(buf) < l.MaxLen {
			buf = append(buf, c)
		}
	}

	if l.MaxLen > 0 && n > l.MaxLen {
		if l.Overflow != OverflowTruncate {
			return string(buf), TooLongError{Pos: st, Len: n, Max: l.MaxLen}
		}

		tlog.V("lex").Printw("token truncated", "pos", st, "len", n, "max", l.MaxLen, "text", buf)
	}

	return string(buf), nil
}

func (l *Lexer) read() (byte, error) {
	c, err := l.r.ReadByte()
	if err != nil {
		return 0, err
	}

	l.prev = l.pos

	if c == '\n' {
		l.pos.Line++
		l.pos.Col = 1
	} else {
		l.pos.Col++
	}

	return c, nil
}

func (l *Lexer) unread() {
	_ = l.r.UnreadByte()
	l.pos = l.prev
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}

	return false
}

func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }

func (e TooLongError) Error() string {
	return fmt.Sprintf("%v: token too long: %d characters, max %d", e.Pos, e.Len, e.Max)
}
