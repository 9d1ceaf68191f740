package symtab

import (
	"fmt"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"
)

type (
	// Table maps variable names to memory addresses.
	// There are no scopes: every declaration lives until the end of the program.
	Table struct {
		Base int
		Cap  int // 0 is unlimited

		syms  []Symbol
		index map[string]int
	}

	Symbol struct {
		Name string
		Addr int
	}

	RedeclaredError struct {
		Name string
		Addr int
	}

	OverflowError struct {
		Name string
		Cap  int
	}
)

const (
	DefaultBase = 0x10
	DefaultCap  = 100

	// MaxAddr is the last address that fits two hex digits.
	MaxAddr = 0xFF
)

func New(base, limit int) *Table {
	return &Table{
		Base:  base,
		Cap:   limit,
		index: make(map[string]int),
	}
}

// Declare assigns the next address to name.
func (t *Table) Declare(name string) (addr int, err error) {
	if t.index == nil {
		t.index = make(map[string]int)
	}

	if i, ok := t.index[name]; ok {
		return 0, RedeclaredError{Name: name, Addr: t.syms[i].Addr}
	}

	if t.Cap > 0 && len(t.syms) >= t.Cap {
		return 0, OverflowError{Name: name, Cap: t.Cap}
	}

	addr = t.Base + len(t.syms)
	if addr > MaxAddr {
		return 0, OverflowError{Name: name, Cap: len(t.syms)}
	}

	t.index[name] = len(t.syms)
	t.syms = append(t.syms, Symbol{Name: name, Addr: addr})

	tlog.V("symtab").Printw("declare", "name", name, "addr", addr, "from", loc.Caller(1))

	return addr, nil
}

func (t *Table) Lookup(name string) (addr int, ok bool) {
	i, ok := t.index[name]
	if !ok {
		return 0, false
	}

	return t.syms[i].Addr, true
}

// Symbols returns declared symbols in declaration order.
func (t *Table) Symbols() []Symbol {
	return append([]Symbol{}, t.syms...)
}

func (t *Table) Len() int { return len(t.syms) }

// Reset forgets all symbols. Base and Cap are kept.
func (t *Table) Reset() {
	t.syms = t.syms[:0]
	t.index = make(map[string]int)
}

func (s Symbol) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)

	b = e.AppendString(b, "name")
	b = e.AppendString(b, s.Name)
	b = e.AppendKeyInt(b, "addr", s.Addr)

	return b
}

func (e RedeclaredError) Error() string {
	return fmt.Sprintf("variable redeclared: %s (at 0x%02X)", e.Name, e.Addr)
}

func (e OverflowError) Error() string {
	return fmt.Sprintf("symbol table overflow: %s: capacity %d", e.Name, e.Cap)
}
