package parse

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/simplelang/compiler/ast"
	"github.com/slowlang/simplelang/compiler/lex"
	"github.com/slowlang/simplelang/compiler/symtab"
)

type (
	// Parser is a recursive descent parser with one token of lookahead.
	// Declarations are registered in the symbol table as they are parsed.
	Parser struct {
		l    *lex.Lexer
		syms *symtab.Table

		tok lex.Token
	}

	SyntaxError struct {
		Pos  lex.Pos
		Want string
		Got  lex.Token
	}

	UndeclaredError struct {
		Pos  lex.Pos
		Name string
	}
)

func ParseFile(ctx context.Context, name string, syms *symtab.Table) (*ast.Program, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}

	defer f.Close()

	return Parse(ctx, f, syms)
}

func Parse(ctx context.Context, r io.Reader, syms *symtab.Table) (*ast.Program, error) {
	return New(lex.New(r), syms).Parse(ctx)
}

func New(l *lex.Lexer, syms *symtab.Table) *Parser {
	return &Parser{
		l:    l,
		syms: syms,
	}
}

// Parse parses the whole input. The first error stops parsing
// and no program is returned.
func (p *Parser) Parse(ctx context.Context) (prog *ast.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse program")
	defer tr.Finish("err", &err)

	err = p.advance()
	if err != nil {
		return nil, err
	}

	prog = &ast.Program{}

	for p.tok.Kind != lex.EOF {
		s, err := p.statement(ctx)
		if err != nil {
			return nil, err
		}

		prog.Stmts = append(prog.Stmts, s)
	}

	if tr.If("dump_ast") {
		for i, s := range prog.Stmts {
			tr.Printw("stmt", "i", i, "typ", tlog.NextAsType, s, "val", s)
		}
	}

	tr.Printw("program parsed", "stmts", len(prog.Stmts), "symbols", p.syms.Len())

	return prog, nil
}

func (p *Parser) statement(ctx context.Context) (ast.Stmt, error) {
	switch p.tok.Kind {
	case lex.Int:
		return p.decl(ctx)
	case lex.Ident:
		return p.assign(ctx)
	case lex.If:
		return p.ifStmt(ctx)
	default:
		return nil, p.unexpected("statement")
	}
}

func (p *Parser) decl(ctx context.Context) (_ ast.Stmt, err error) {
	x := &ast.Decl{Base: p.base()}

	err = p.advance() // int
	if err != nil {
		return
	}

	err = p.expect(lex.Ident, "identifier after int")
	if err != nil {
		return
	}

	x.Name = p.tok.Text

	_, err = p.syms.Declare(x.Name)
	if err != nil {
		return nil, errors.Wrap(err, "%v", p.tok.Pos)
	}

	err = p.advance()
	if err != nil {
		return
	}

	err = p.semicolon()
	if err != nil {
		return
	}

	return x, nil
}

func (p *Parser) assign(ctx context.Context) (_ ast.Stmt, err error) {
	x := &ast.Assign{Base: p.base()}

	x.Target, err = p.variable()
	if err != nil {
		return
	}

	err = p.expect(lex.Assign, "= after variable")
	if err != nil {
		return
	}

	err = p.advance()
	if err != nil {
		return
	}

	x.Value, err = p.expr(ctx)
	if err != nil {
		return
	}

	err = p.semicolon()
	if err != nil {
		return
	}

	return x, nil
}

func (p *Parser) ifStmt(ctx context.Context) (_ ast.Stmt, err error) {
	x := &ast.If{Base: p.base()}

	err = p.advance() // if
	if err != nil {
		return
	}

	err = p.skip(lex.LParen, "( after if")
	if err != nil {
		return
	}

	x.Cond, err = p.cond(ctx)
	if err != nil {
		return
	}

	err = p.skip(lex.RParen, ") after condition")
	if err != nil {
		return
	}

	err = p.skip(lex.LBrace, "{ after condition")
	if err != nil {
		return
	}

	for p.tok.Kind != lex.RBrace {
		if p.tok.Kind == lex.EOF {
			return nil, p.unexpected("statement or }")
		}

		s, err := p.statement(ctx)
		if err != nil {
			return nil, err
		}

		x.Body = append(x.Body, s)
	}

	err = p.advance() // }
	if err != nil {
		return
	}

	return x, nil
}

func (p *Parser) cond(ctx context.Context) (x *ast.BinOp, err error) {
	x = &ast.BinOp{Base: p.base(), Op: ast.Eq}

	x.Left, err = p.variable()
	if err != nil {
		return nil, err
	}

	err = p.skip(lex.Equal, "== in condition")
	if err != nil {
		return nil, err
	}

	x.Right, err = p.term(ctx)
	if err != nil {
		return nil, err
	}

	return x, nil
}

func (p *Parser) expr(ctx context.Context) (ast.Expr, error) {
	pos := p.base()

	l, err := p.term(ctx)
	if err != nil {
		return nil, err
	}

	var op ast.Op

	switch p.tok.Kind {
	case lex.Plus:
		op = ast.Add
	case lex.Minus:
		op = ast.Sub
	default:
		return l, nil
	}

	err = p.advance()
	if err != nil {
		return nil, err
	}

	r, err := p.term(ctx)
	if err != nil {
		return nil, err
	}

	return &ast.BinOp{Base: pos, Op: op, Left: l, Right: r}, nil
}

func (p *Parser) term(ctx context.Context) (ast.Expr, error) {
	switch p.tok.Kind {
	case lex.Ident:
		return p.variable()
	case lex.Number:
	default:
		return nil, p.unexpected("identifier or number")
	}

	v, err := strconv.Atoi(p.tok.Text)
	if err != nil {
		return nil, p.unexpected("number in int range")
	}

	x := &ast.Num{Base: p.base(), Value: v}

	err = p.advance()
	if err != nil {
		return nil, err
	}

	return x, nil
}

// variable parses a use of an already declared identifier.
func (p *Parser) variable() (*ast.Var, error) {
	err := p.expect(lex.Ident, "identifier")
	if err != nil {
		return nil, err
	}

	if _, ok := p.syms.Lookup(p.tok.Text); !ok {
		return nil, UndeclaredError{Pos: p.tok.Pos, Name: p.tok.Text}
	}

	x := &ast.Var{Base: p.base(), Name: p.tok.Text}

	err = p.advance()
	if err != nil {
		return nil, err
	}

	return x, nil
}

func (p *Parser) semicolon() error {
	return p.skip(lex.Semicolon, "; after statement")
}

// skip checks the current token and advances past it.
func (p *Parser) skip(k lex.Kind, want string) error {
	err := p.expect(k, want)
	if err != nil {
		return err
	}

	return p.advance()
}

func (p *Parser) expect(k lex.Kind, want string) error {
	if p.tok.Kind == k {
		return nil
	}

	tlog.V("parse").Printw("unexpected token", "want", want, "got", p.tok, "from", loc.Caller(1))

	return p.unexpected(want)
}

func (p *Parser) unexpected(want string) error {
	return SyntaxError{Pos: p.tok.Pos, Want: want, Got: p.tok}
}

func (p *Parser) advance() (err error) {
	p.tok, err = p.l.Next()
	if err != nil {
		return errors.Wrap(err, "next token")
	}

	return nil
}

func (p *Parser) base() ast.Base {
	return ast.Base{Pos: p.tok.Pos}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%v: expected %s, got %v", e.Pos, e.Want, e.Got)
}

func (e UndeclaredError) Error() string {
	return fmt.Sprintf("%v: variable used before declaration: %s", e.Pos, e.Name)
}
