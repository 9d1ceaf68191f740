package compiler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/simplelang/compiler/asm"
	"github.com/slowlang/simplelang/compiler/ast"
	"github.com/slowlang/simplelang/compiler/back"
	"github.com/slowlang/simplelang/compiler/lex"
	"github.com/slowlang/simplelang/compiler/parse"
	"github.com/slowlang/simplelang/compiler/symtab"
	"github.com/slowlang/simplelang/config"
)

type (
	// Session holds all state of one compilation.
	// Sessions are independent of each other.
	Session struct {
		Config config.Config

		Syms *symtab.Table
		Prog *ast.Program
		Code []asm.Instr

		back *back.Compiler
	}

	InputFileError struct {
		Name string
		Err  error
	}

	OutputFileError struct {
		Name string
		Err  error
	}
)

func New(cfg config.Config) *Session {
	syms := symtab.New(cfg.BaseAddr, cfg.MaxSymbols)

	c := back.New(syms)
	c.LabelPrefix = cfg.LabelPrefix

	return &Session{
		Config: cfg,
		Syms:   syms,
		back:   c,
	}
}

// CompileFile reads Config.Input and writes Config.Output.
// The output file is not created unless parsing succeeds.
func CompileFile(ctx context.Context, cfg config.Config) (s *Session, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile file", "input", cfg.Input, "output", cfg.Output)
	defer tr.Finish("err", &err)

	in, err := os.Open(cfg.Input)
	if err != nil {
		return nil, InputFileError{Name: cfg.Input, Err: err}
	}

	defer in.Close()

	s = New(cfg)

	err = s.Parse(ctx, in)
	if err != nil {
		return s, errors.Wrap(err, "parse %v", cfg.Input)
	}

	obj, err := s.Generate(ctx, nil)
	if err != nil {
		return s, errors.Wrap(err, "generate")
	}

	out, err := os.Create(cfg.Output)
	if err != nil {
		return s, OutputFileError{Name: cfg.Output, Err: err}
	}

	defer func() {
		e := out.Close()
		if err == nil && e != nil {
			err = OutputFileError{Name: cfg.Output, Err: e}
		}
	}()

	_, err = out.Write(obj)
	if err != nil {
		return s, OutputFileError{Name: cfg.Output, Err: err}
	}

	tr.Printw("output written", "size", len(obj), "symbols", s.Syms.Len(), "instrs", len(s.Code))

	return s, nil
}

// Compile runs the whole pipeline in memory.
func Compile(ctx context.Context, cfg config.Config, text []byte) (obj []byte, err error) {
	s := New(cfg)

	err = s.Parse(ctx, bytes.NewReader(text))
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	obj, err = s.Generate(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	return obj, nil
}

// Parse builds the AST and the symbol table.
func (s *Session) Parse(ctx context.Context, r io.Reader) (err error) {
	if s.Prog != nil {
		return errors.New("already parsed")
	}

	l := lex.New(r)
	l.MaxLen = s.Config.MaxTokenLen

	if s.Config.TokenOverflow == config.OverflowTruncate {
		l.Overflow = lex.OverflowTruncate
	}

	prog, err := parse.New(l, s.Syms).Parse(ctx)
	if err != nil {
		s.Syms.Reset()

		return err
	}

	s.Prog = prog

	return nil
}

// Generate appends the header and the program listing to b.
func (s *Session) Generate(ctx context.Context, b []byte) (_ []byte, err error) {
	if s.Prog == nil {
		return nil, errors.New("nothing parsed")
	}

	s.Code, err = s.back.CompileProgram(ctx, s.Prog)
	if err != nil {
		return nil, err
	}

	b = back.AppendHeader(b, s.Syms)
	b = asm.Append(b, s.Code...)

	return b, nil
}

func (e InputFileError) Error() string {
	return fmt.Sprintf("input file %v: %v", e.Name, e.Err)
}

func (e InputFileError) Unwrap() error { return e.Err }

func (e OutputFileError) Error() string {
	return fmt.Sprintf("output file %v: %v", e.Name, e.Err)
}

func (e OutputFileError) Unwrap() error { return e.Err }
