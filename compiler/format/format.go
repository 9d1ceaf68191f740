package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/simplelang/compiler/ast"
)

func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ast.Program:
		return formatBlock(ctx, b, x.Stmts, d)
	case ast.Stmt:
		return formatBlock(ctx, b, []ast.Stmt{x}, d)
	case ast.Expr:
		return formatExpr(ctx, b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatBlock(ctx context.Context, b []byte, block []ast.Stmt, d int) (_ []byte, err error) {
	for _, s := range block {
		switch s := s.(type) {
		case *ast.Decl:
			b = app(b, d, "int %s;\n", s.Name)
		case *ast.Assign:
			b = app(b, d, "%s = ", s.Target.Name)

			b, err = formatExpr(ctx, b, s.Value)
			if err != nil {
				return nil, errors.Wrap(err, "rhs")
			}

			b = append(b, ";\n"...)
		case *ast.If:
			b = app(b, d, "if (")

			b, err = formatExpr(ctx, b, s.Cond)
			if err != nil {
				return nil, errors.Wrap(err, "cond")
			}

			b = append(b, ") {\n"...)

			b, err = formatBlock(ctx, b, s.Body, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "body")
			}

			b = app(b, d, "}\n")
		default:
			return nil, errors.New("unsupported stmt: %T", s)
		}
	}

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Var:
		b = append(b, x.Name...)
	case *ast.Num:
		b = hfmt.Appendf(b, "%d", x.Value)
	case *ast.BinOp:
		b, err = formatExpr(ctx, b, x.Left)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b = hfmt.Appendf(b, " %s ", string(x.Op))

		b, err = formatExpr(ctx, b, x.Right)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"

	for d > len(tabs) {
		b = append(b, tabs...)
		d -= len(tabs)
	}

	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)

	return b
}
