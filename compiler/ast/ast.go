package ast

import (
	"github.com/slowlang/simplelang/compiler/lex"
)

type (
	Node interface {
		node()
	}

	Stmt interface {
		Node
		stmt()
	}

	Expr interface {
		Node
		expr()
	}

	Base struct {
		Pos lex.Pos
	}

	Program struct {
		Stmts []Stmt
	}

	Decl struct {
		Base `tlog:",embed"`

		Name string
	}

	Assign struct {
		Base `tlog:",embed"`

		Target *Var
		Value  Expr
	}

	If struct {
		Base `tlog:",embed"`

		Cond *BinOp // Op is always Eq, Left is always *Var
		Body []Stmt
	}

	BinOp struct {
		Base `tlog:",embed"`

		Op    Op
		Left  Expr
		Right Expr
	}

	Var struct {
		Base `tlog:",embed"`

		Name string
	}

	Num struct {
		Base `tlog:",embed"`

		Value int
	}

	Op string
)

const (
	Add Op = "+"
	Sub Op = "-"
	Eq  Op = "=="
)

func (*Program) node() {}
func (*Decl) node()    {}
func (*Assign) node()  {}
func (*If) node()      {}
func (*BinOp) node()   {}
func (*Var) node()     {}
func (*Num) node()     {}

func (*Decl) stmt()   {}
func (*Assign) stmt() {}
func (*If) stmt()     {}

func (*BinOp) expr() {}
func (*Var) expr()   {}
func (*Num) expr()   {}
