package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/simplelang/compiler"
	"github.com/slowlang/simplelang/compiler/asm"
	"github.com/slowlang/simplelang/compiler/format"
	"github.com/slowlang/simplelang/compiler/vm"
	"github.com/slowlang/simplelang/config"
)

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse input and print the program and its symbols",
		Action:      parseAct,
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "compile input and execute it on the accumulator machine",
		Action:      runAct,
	}

	app := &cli.Command{
		Name:        "simplec",
		Description: "simplec compiles simplelang source into accumulator machine code",
		Before:      before,
		Action:      compileAct,
		Flags: []*cli.Flag{
			cli.NewFlag("config", "", "config file, toml or yaml"),
			cli.NewFlag("in", "", "input file (default input.txt)"),
			cli.NewFlag("out", "", "output file (default output.asm)"),
			cli.NewFlag("log", "stderr", "log output: stderr, none or file name"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			parseCmd,
			runCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	var w io.Writer

	switch name := c.String("log"); name {
	case "stderr", "":
		w = tlog.NewConsoleWriter(os.Stderr, tlog.LstdFlags)
	case "none":
		w = io.Discard
	default:
		f, err := os.Create(name)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}

		w = tlog.NewConsoleWriter(f, tlog.LstdFlags)
	}

	tlog.DefaultLogger = tlog.New(w)

	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	_, err = compiler.CompileFile(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "compile")
	}

	fmt.Printf("Parsing completed successfully.\n")
	fmt.Printf("Assembly code generated in %s\n", cfg.Output)

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	s, err := parseInput(ctx, cfg)
	if err != nil {
		return err
	}

	b, err := format.Format(ctx, nil, s.Prog)
	if err != nil {
		return errors.Wrap(err, "format")
	}

	fmt.Printf("%s", b)

	for _, sym := range s.Syms.Symbols() {
		fmt.Printf("// %s -> %v\n", sym.Name, asm.Addr(sym.Addr))
	}

	return nil
}

func runAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	s, err := parseInput(ctx, cfg)
	if err != nil {
		return err
	}

	_, err = s.Generate(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "generate")
	}

	m := vm.New()

	err = m.Run(ctx, s.Code)
	if err != nil {
		return errors.Wrap(err, "run")
	}

	for _, sym := range s.Syms.Symbols() {
		fmt.Printf("%s = %d\n", sym.Name, m.Mem[asm.Addr(sym.Addr)])
	}

	return nil
}

func parseInput(ctx context.Context, cfg config.Config) (*compiler.Session, error) {
	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, compiler.InputFileError{Name: cfg.Input, Err: err}
	}

	defer f.Close()

	s := compiler.New(cfg)

	err = s.Parse(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "parse %v", cfg.Input)
	}

	return s, nil
}

func loadConfig(c *cli.Command) (cfg config.Config, err error) {
	cfg = config.Default()

	if name := c.String("config"); name != "" {
		cfg, err = config.Load(name)
		if err != nil {
			return cfg, errors.Wrap(err, "load config")
		}
	}

	if v := c.String("in"); v != "" {
		cfg.Input = v
	}

	if v := c.String("out"); v != "" {
		cfg.Output = v
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, errors.Wrap(err, "config")
	}

	return cfg, nil
}
