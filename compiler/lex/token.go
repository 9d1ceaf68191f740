package lex

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"
)

type (
	Kind int

	Pos struct {
		Line int
		Col  int
	}

	Token struct {
		Kind Kind
		Text string
		Pos  Pos
	}
)

const (
	Int Kind = iota
	If

	Ident
	Number

	Assign
	Plus
	Minus
	Equal

	LParen
	RParen
	LBrace
	RBrace

	Semicolon

	EOF
	Unknown
)

var kindNames = [...]string{
	Int:       "int",
	If:        "if",
	Ident:     "identifier",
	Number:    "number",
	Assign:    "=",
	Plus:      "+",
	Minus:     "-",
	Equal:     "==",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	Semicolon: ";",
	EOF:       "end of input",
	Unknown:   "unknown",
}

var keywords = map[string]Kind{
	"int": Int,
	"if":  If,
}

var punct = map[byte]Kind{
	'+': Plus,
	'-': Minus,
	';': Semicolon,
	'(': LParen,
	')': RParen,
	'{': LBrace,
	'}': RBrace,
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

func (t Token) String() string {
	switch t.Kind {
	case Ident, Number, Unknown:
		return fmt.Sprintf("%v %q", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

func (t Token) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 3)

	b = e.AppendString(b, "kind")
	b = e.AppendString(b, t.Kind.String())
	b = e.AppendString(b, "text")
	b = e.AppendString(b, t.Text)
	b = e.AppendString(b, "pos")
	b = e.AppendString(b, t.Pos.String())

	return b
}
