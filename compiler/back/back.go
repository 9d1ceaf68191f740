package back

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/simplelang/compiler/asm"
	"github.com/slowlang/simplelang/compiler/ast"
	"github.com/slowlang/simplelang/compiler/symtab"
)

type (
	// Compiler generates accumulator machine code.
	// Labels are numbered across all programs compiled by the same Compiler.
	Compiler struct {
		Syms        *symtab.Table
		LabelPrefix string

		labels int
	}

	UnsupportedNodeError struct {
		Node ast.Node
	}
)

const DefaultLabelPrefix = "if_end_"

func New(syms *symtab.Table) *Compiler {
	return &Compiler{
		Syms:        syms,
		LabelPrefix: DefaultLabelPrefix,
	}
}

func (c *Compiler) CompileProgram(ctx context.Context, p *ast.Program) (code []asm.Instr, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile program", "stmts", len(p.Stmts))
	defer tr.Finish("err", &err)

	code, err = c.compileBlock(ctx, code, p.Stmts)
	if err != nil {
		return nil, err
	}

	if tr.If("dump_code") {
		for i, x := range code {
			tr.Printw("code", "i", i, "typ", tlog.NextAsType, x, "instr", string(x.AppendText(nil)))
		}
	}

	tr.Printw("program compiled", "instrs", len(code), "labels", c.labels)

	return code, nil
}

func (c *Compiler) compileBlock(ctx context.Context, code []asm.Instr, block []ast.Stmt) (_ []asm.Instr, err error) {
	for i, s := range block {
		code, err = c.compileStmt(ctx, code, s)
		if err != nil {
			return nil, errors.Wrap(err, "stmt %d", i)
		}
	}

	return code, nil
}

func (c *Compiler) compileStmt(ctx context.Context, code []asm.Instr, s ast.Stmt) (_ []asm.Instr, err error) {
	switch s := s.(type) {
	case *ast.Decl:
		// memory is allocated by the symbol table
		return code, nil
	case *ast.Assign:
		addr, err := c.addr(s.Target)
		if err != nil {
			return nil, err
		}

		code, err = c.compileExpr(ctx, code, s.Value)
		if err != nil {
			return nil, errors.Wrap(err, "assign %v", s.Target.Name)
		}

		return append(code, asm.Store{Addr: addr}), nil
	case *ast.If:
		return c.compileIf(ctx, code, s)
	default:
		return nil, UnsupportedNodeError{Node: s}
	}
}

func (c *Compiler) compileIf(ctx context.Context, code []asm.Instr, s *ast.If) (_ []asm.Instr, err error) {
	if s.Cond == nil || s.Cond.Op != ast.Eq {
		return nil, errors.New("%v: equality condition expected", s.Pos)
	}

	l, ok := s.Cond.Left.(*ast.Var)
	if !ok {
		return nil, UnsupportedNodeError{Node: s.Cond.Left}
	}

	addr, err := c.addr(l)
	if err != nil {
		return nil, err
	}

	var arg asm.Operand

	switch r := s.Cond.Right.(type) {
	case *ast.Num:
		arg = asm.Imm(r.Value)
	case *ast.Var:
		raddr, err := c.addr(r)
		if err != nil {
			return nil, err
		}

		arg = asm.Mem(raddr)
	default:
		return nil, UnsupportedNodeError{Node: s.Cond.Right}
	}

	label := c.label()

	tlog.V("codegen").Printw("if", "pos", s.Pos, "label", label, "body", len(s.Body))

	code = append(code,
		asm.Load{Addr: addr},
		asm.Cmp{Arg: arg},
		asm.Jnz{Label: label},
	)

	code, err = c.compileBlock(ctx, code, s.Body)
	if err != nil {
		return nil, errors.Wrap(err, "if %v", label)
	}

	return append(code, asm.Label{Name: label}), nil
}

func (c *Compiler) compileExpr(ctx context.Context, code []asm.Instr, e ast.Expr) (_ []asm.Instr, err error) {
	switch e := e.(type) {
	case *ast.Num:
		return append(code, asm.LoadI{Val: e.Value}), nil
	case *ast.Var:
		addr, err := c.addr(e)
		if err != nil {
			return nil, err
		}

		return append(code, asm.Load{Addr: addr}), nil
	case *ast.BinOp:
		return c.compileBinOp(ctx, code, e)
	default:
		return nil, UnsupportedNodeError{Node: e}
	}
}

// compileBinOp leaves left op right in A.
func (c *Compiler) compileBinOp(ctx context.Context, code []asm.Instr, x *ast.BinOp) (_ []asm.Instr, err error) {
	var op asm.Instr

	switch x.Op {
	case ast.Add:
		op = asm.Add{}
	case ast.Sub:
		op = asm.Sub{}
	default:
		return nil, errors.New("%v: unsupported operator: %v", x.Pos, x.Op)
	}

	code, err = c.compileExpr(ctx, code, x.Left)
	if err != nil {
		return nil, errors.Wrap(err, "left")
	}

	code = append(code, asm.Push{})

	code, err = c.compileExpr(ctx, code, x.Right)
	if err != nil {
		return nil, errors.Wrap(err, "right")
	}

	return append(code, asm.Pop{}, op), nil
}

func (c *Compiler) addr(v *ast.Var) (asm.Addr, error) {
	addr, ok := c.Syms.Lookup(v.Name)
	if !ok {
		return 0, errors.New("%v: no address for variable %v", v.Pos, v.Name)
	}

	return asm.Addr(addr), nil
}

func (c *Compiler) label() string {
	l := c.LabelPrefix + strconv.Itoa(c.labels)
	c.labels++

	return l
}

// Labels returns the number of labels allocated so far.
func (c *Compiler) Labels() int { return c.labels }

// AppendHeader writes the variable map as a comment block.
func AppendHeader(b []byte, syms *symtab.Table) []byte {
	b = append(b, "; -------- SimpleLang Compiler Output --------\n"...)
	b = append(b, "; Variables:\n"...)

	for _, s := range syms.Symbols() {
		b = hfmt.Appendf(b, "; %s -> %s\n", s.Name, asm.Addr(s.Addr).String())
	}

	b = append(b, "; -------------------------------------------\n\n"...)

	return b
}

func (e UnsupportedNodeError) Error() string {
	return fmt.Sprintf("unsupported node: %T", e.Node)
}
