package asm

import (
	"fmt"
	"strconv"
	"strings"

	"tlog.app/go/errors"
)

type (
	LineError struct {
		Line int
		Text string
		Err  error
	}
)

// Parse decodes a listing produced by Append.
// Blank lines and ';' comments are skipped.
// Spaces after commas are accepted.
func Parse(text []byte) (code []Instr, err error) {
	for i, line := range strings.Split(string(text), "\n") {
		s := line

		if j := strings.IndexByte(s, ';'); j >= 0 {
			s = s[:j]
		}

		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		x, err := parseInstr(s)
		if err != nil {
			return nil, LineError{Line: i + 1, Text: line, Err: err}
		}

		code = append(code, x)
	}

	return code, nil
}

func parseInstr(s string) (Instr, error) {
	if name, ok := strings.CutSuffix(s, ":"); ok {
		if !IsLabel(name) {
			return nil, errors.New("bad label: %q", name)
		}

		return Label{Name: name}, nil
	}

	op, args, _ := strings.Cut(s, " ")
	args = strings.ReplaceAll(args, " ", "")
	args = strings.ReplaceAll(args, "\t", "")

	switch strings.ToUpper(op) {
	case "LOADI":
		o, err := regOperand(args)
		if err != nil {
			return nil, err
		}
		if o.Mem {
			return nil, errors.New("LOADI: immediate expected: %s", args)
		}

		return LoadI{Val: o.Val}, nil
	case "LOAD", "STORE":
		o, err := regOperand(args)
		if err != nil {
			return nil, err
		}
		if !o.Mem {
			return nil, errors.New("%s: address expected: %s", op, args)
		}

		if strings.EqualFold(op, "LOAD") {
			return Load{Addr: Addr(o.Val)}, nil
		}

		return Store{Addr: Addr(o.Val)}, nil
	case "CMP":
		o, err := regOperand(args)
		if err != nil {
			return nil, err
		}

		return Cmp{Arg: o}, nil
	case "PUSH":
		return Push{}, fixed(args, "A")
	case "POP":
		return Pop{}, fixed(args, "B")
	case "ADD":
		return Add{}, fixed(args, "A,B")
	case "SUB":
		return Sub{}, fixed(args, "A,B")
	case "JNZ":
		if !IsLabel(args) {
			return nil, errors.New("JNZ: bad label: %q", args)
		}

		return Jnz{Label: args}, nil
	}

	return nil, errors.New("unknown instruction: %s", op)
}

func regOperand(args string) (Operand, error) {
	if len(args) < 2 || !strings.EqualFold(args[:2], "A,") {
		return Operand{}, errors.New("A,<operand> expected: %s", args)
	}

	return ParseOperand(args[2:])
}

// ParseOperand parses a decimal immediate or a 0x prefixed address.
func ParseOperand(s string) (Operand, error) {
	if h, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err := strconv.ParseUint(h, 16, 31)
		if err != nil {
			return Operand{}, errors.Wrap(err, "address")
		}

		return Operand{Mem: true, Val: int(v)}, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return Operand{}, errors.Wrap(err, "immediate")
	}

	return Operand{Val: v}, nil
}

func fixed(args, want string) error {
	if !strings.EqualFold(args, want) {
		return errors.New("%s expected, got %q", want, args)
	}

	return nil
}

// IsLabel reports whether s is a valid label name.
func IsLabel(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i != 0:
		default:
			return false
		}
	}

	return true
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, strings.TrimSpace(e.Text), e.Err)
}

func (e LineError) Unwrap() error { return e.Err }
