package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/slowlang/simplelang/compiler/asm"
)

type (
	// Config controls one compilation run.
	Config struct {
		Input  string `toml:"input" yaml:"input"`
		Output string `toml:"output" yaml:"output"`

		BaseAddr   int `toml:"base_addr" yaml:"base_addr"`
		MaxSymbols int `toml:"max_symbols" yaml:"max_symbols"`

		MaxTokenLen   int    `toml:"max_token_len" yaml:"max_token_len"`
		TokenOverflow string `toml:"token_overflow" yaml:"token_overflow"`

		LabelPrefix string `toml:"label_prefix" yaml:"label_prefix"`
	}

	Format int
)

const (
	FormatTOML Format = iota
	FormatYAML
)

// AddrSpace is the number of addressable memory cells.
const AddrSpace = 0x100

const (
	OverflowError    = "error"
	OverflowTruncate = "truncate"
)

func Default() Config {
	return Config{
		Input:         "input.txt",
		Output:        "output.asm",
		BaseAddr:      0x10,
		MaxSymbols:    100,
		MaxTokenLen:   99,
		TokenOverflow: OverflowError,
		LabelPrefix:   "if_end_",
	}
}

// Load reads the file over Default values.
// Format is chosen by extension, TOML if unknown.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	return Parse(data, DetectFormat(path))
}

func Parse(data []byte, f Format) (c Config, err error) {
	c = Default()

	switch f {
	case FormatTOML:
		err = toml.Unmarshal(data, &c)
	case FormatYAML:
		err = yaml.Unmarshal(data, &c)
	default:
		return c, errors.New("unsupported config format: %v", f)
	}
	if err != nil {
		return c, errors.Wrap(err, "decode %v", f)
	}

	err = c.Validate()
	if err != nil {
		return c, err
	}

	return c, nil
}

func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input file name is empty")
	}

	if c.Output == "" {
		return errors.New("output file name is empty")
	}

	if c.BaseAddr < 0 {
		return errors.New("negative base address: %d", c.BaseAddr)
	}

	if c.MaxSymbols < 1 {
		return errors.New("symbol table capacity must be positive: %d", c.MaxSymbols)
	}

	if c.BaseAddr+c.MaxSymbols > AddrSpace {
		return errors.New("symbols do not fit memory: base 0x%02X + %d > 0x%X", c.BaseAddr, c.MaxSymbols, AddrSpace)
	}

	if c.MaxTokenLen < 1 {
		return errors.New("max token length must be positive: %d", c.MaxTokenLen)
	}

	switch c.TokenOverflow {
	case OverflowError, OverflowTruncate:
	default:
		return errors.New("unknown token overflow policy: %q", c.TokenOverflow)
	}

	if !asm.IsLabel(c.LabelPrefix + "0") {
		return errors.New("bad label prefix: %q", c.LabelPrefix)
	}

	return nil
}

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}
