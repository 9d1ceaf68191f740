package parse

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/simplelang/compiler/ast"
	"github.com/slowlang/simplelang/compiler/lex"
	"github.com/slowlang/simplelang/compiler/symtab"
)

func parseString(t *testing.T, text string) (*ast.Program, *symtab.Table, error) {
	t.Helper()

	syms := symtab.New(symtab.DefaultBase, symtab.DefaultCap)

	prog, err := Parse(context.Background(), strings.NewReader(text), syms)

	return prog, syms, err
}

func TestParseExample(t *testing.T) {
	prog, syms, err := parseString(t, "int x; x = 5; if (x == 5) { x = x + 1; }")
	require.NoError(t, err)

	require.Len(t, prog.Stmts, 3)

	d, ok := prog.Stmts[0].(*ast.Decl)
	require.True(t, ok)
	assert.Equal(t, "x", d.Name)

	a, ok := prog.Stmts[1].(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "x", a.Target.Name)
	assert.Equal(t, &ast.Num{Base: ast.Base{Pos: lex.Pos{Line: 1, Col: 12}}, Value: 5}, a.Value)

	x, ok := prog.Stmts[2].(*ast.If)
	require.True(t, ok)
	assert.Equal(t, ast.Eq, x.Cond.Op)
	assert.Equal(t, "x", x.Cond.Left.(*ast.Var).Name)
	assert.Equal(t, 5, x.Cond.Right.(*ast.Num).Value)

	require.Len(t, x.Body, 1)

	inner := x.Body[0].(*ast.Assign)
	sum := inner.Value.(*ast.BinOp)
	assert.Equal(t, ast.Add, sum.Op)
	assert.Equal(t, "x", sum.Left.(*ast.Var).Name)
	assert.Equal(t, 1, sum.Right.(*ast.Num).Value)

	assert.Equal(t, []symtab.Symbol{{Name: "x", Addr: 0x10}}, syms.Symbols())
}

func TestParseSubtractionOrder(t *testing.T) {
	prog, _, err := parseString(t, "int x; x = 5 - 3;")
	require.NoError(t, err)

	b := prog.Stmts[1].(*ast.Assign).Value.(*ast.BinOp)
	assert.Equal(t, ast.Sub, b.Op)
	assert.Equal(t, 5, b.Left.(*ast.Num).Value)
	assert.Equal(t, 3, b.Right.(*ast.Num).Value)
}

func TestParseNestedDeclarationsShareNamespace(t *testing.T) {
	prog, syms, err := parseString(t, `
int a;
if (a == 0) {
	int b;
	if (b == a) {
		int c;
	}
}
int d;
c = d;
`)
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 4)

	assert.Equal(t, []symtab.Symbol{
		{Name: "a", Addr: 0x10},
		{Name: "b", Addr: 0x11},
		{Name: "c", Addr: 0x12},
		{Name: "d", Addr: 0x13},
	}, syms.Symbols())
}

func TestParseEmpty(t *testing.T) {
	prog, _, err := parseString(t, "  \n")
	require.NoError(t, err)
	assert.Empty(t, prog.Stmts)

	prog, _, err = parseString(t, "int x; if (x == x) {}")
	require.NoError(t, err)
	assert.Empty(t, prog.Stmts[1].(*ast.If).Body)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		pos  lex.Pos
	}{
		{"BadStatement", "5;", "statement", lex.Pos{Line: 1, Col: 1}},
		{"UnknownChar", "int x; x = 1 * 2;", "; after statement", lex.Pos{Line: 1, Col: 14}},
		{"UnknownStatementChar", "@", "statement", lex.Pos{Line: 1, Col: 1}},
		{"DeclNoIdent", "int 5;", "identifier after int", lex.Pos{Line: 1, Col: 5}},
		{"DeclNoSemicolon", "int x int y;", "; after statement", lex.Pos{Line: 1, Col: 7}},
		{"AssignNoEq", "int x; x 5;", "= after variable", lex.Pos{Line: 1, Col: 10}},
		{"AssignEqEq", "int x; x == 5;", "= after variable", lex.Pos{Line: 1, Col: 10}},
		{"AssignNoTerm", "int x; x = ;", "identifier or number", lex.Pos{Line: 1, Col: 12}},
		{"TwoOperators", "int x; x = 1 + 2 + 3;", "; after statement", lex.Pos{Line: 1, Col: 18}},
		{"IfNoParen", "int x; if x == 1 {}", "( after if", lex.Pos{Line: 1, Col: 11}},
		{"IfNoEq", "int x; if (x = 1) {}", "== in condition", lex.Pos{Line: 1, Col: 14}},
		{"IfNumberLeft", "int x; if (1 == x) {}", "identifier", lex.Pos{Line: 1, Col: 12}},
		{"IfNoRParen", "int x; if (x == 1 {}", ") after condition", lex.Pos{Line: 1, Col: 19}},
		{"IfNoBrace", "int x; if (x == 1) x = 1;", "{ after condition", lex.Pos{Line: 1, Col: 20}},
		{"IfUnclosed", "int x; if (x == 1) { x = 2;", "statement or }", lex.Pos{Line: 1, Col: 28}},
		{"StrayBrace", "int x; }", "statement", lex.Pos{Line: 1, Col: 8}},
		{"HugeNumber", "int x; x = 99999999999999999999999;", "number in int range", lex.Pos{Line: 1, Col: 12}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prog, _, err := parseString(t, tc.text)
			assert.Nil(t, prog)

			var se SyntaxError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tc.want, se.Want)
			assert.Equal(t, tc.pos, se.Pos)
		})
	}
}

func TestParseUndeclared(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		undef string
		pos   lex.Pos
	}{
		{"AssignTarget", "y = 1;", "y", lex.Pos{Line: 1, Col: 1}},
		{"Operand", "int x; x = y;", "y", lex.Pos{Line: 1, Col: 12}},
		{"RightOperand", "int x; x = x - y;", "y", lex.Pos{Line: 1, Col: 16}},
		{"CondLeft", "int x; if (y == x) {}", "y", lex.Pos{Line: 1, Col: 12}},
		{"CondRight", "int x; if (x == y) {}", "y", lex.Pos{Line: 1, Col: 17}},
		{"UseBeforeDecl", "x = 1; int x;", "x", lex.Pos{Line: 1, Col: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prog, _, err := parseString(t, tc.text)
			assert.Nil(t, prog)

			var ue UndeclaredError
			require.True(t, errors.As(err, &ue), "got %v", err)
			assert.Equal(t, tc.undef, ue.Name)
			assert.Equal(t, tc.pos, ue.Pos)
		})
	}
}

func TestParseRedeclared(t *testing.T) {
	prog, syms, err := parseString(t, "int x; int y; if (x == y) { int x; }")
	assert.Nil(t, prog)

	var re symtab.RedeclaredError
	require.True(t, errors.As(err, &re), "got %v", err)
	assert.Equal(t, "x", re.Name)
	assert.Contains(t, err.Error(), "1:33")

	addr, ok := syms.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, 0x10, addr)
}

func TestParseOverflow(t *testing.T) {
	syms := symtab.New(symtab.DefaultBase, 2)

	_, err := Parse(context.Background(), strings.NewReader("int a; int b; int c;"), syms)

	var oe symtab.OverflowError
	require.True(t, errors.As(err, &oe), "got %v", err)
	assert.Equal(t, "c", oe.Name)
}

func TestParseTokenTooLong(t *testing.T) {
	long := strings.Repeat("v", 20)

	l := lex.New(strings.NewReader("int " + long + ";"))
	l.MaxLen = 8

	_, err := New(l, symtab.New(symtab.DefaultBase, 0)).Parse(context.Background())

	var tl lex.TooLongError
	require.True(t, errors.As(err, &tl), "got %v", err)
}

func TestParseTokenTruncated(t *testing.T) {
	a := strings.Repeat("v", 10) + "a"
	b := strings.Repeat("v", 10) + "b"

	l := lex.New(strings.NewReader("int " + a + "; int " + b + ";"))
	l.MaxLen = 10
	l.Overflow = lex.OverflowTruncate

	_, err := New(l, symtab.New(symtab.DefaultBase, 0)).Parse(context.Background())

	var re symtab.RedeclaredError
	require.True(t, errors.As(err, &re), "truncated names collide: %v", err)
	assert.Equal(t, strings.Repeat("v", 10), re.Name)
}

func TestParseFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "input.txt")

	err := os.WriteFile(name, []byte("int x;\nx = 1;\n"), 0o644)
	require.NoError(t, err)

	syms := symtab.New(symtab.DefaultBase, symtab.DefaultCap)

	prog, err := ParseFile(context.Background(), name, syms)
	require.NoError(t, err)
	assert.Len(t, prog.Stmts, 2)

	_, err = ParseFile(context.Background(), name+".missing", syms)
	assert.Error(t, err)
}
