package vm

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/simplelang/compiler/asm"
)

type (
	// Machine executes accumulator machine code.
	// Memory cells not written read as zero.
	Machine struct {
		A, B int
		Zero bool // set by CMP when A equals the operand

		Stack []int
		Mem   map[asm.Addr]int

		// MaxSteps stops runaway programs. Zero is DefaultMaxSteps.
		MaxSteps int

		Steps int
	}

	StepError struct {
		PC    int
		Instr asm.Instr
		Err   error
	}
)

const DefaultMaxSteps = 1 << 20

var (
	ErrStackUnderflow = errors.New("stack underflow")
	ErrUnknownLabel   = errors.New("unknown label")
	ErrStepLimit      = errors.New("step limit exceeded")
)

func New() *Machine {
	return &Machine{
		Mem: make(map[asm.Addr]int),
	}
}

// Run executes code from the first instruction until it falls off the end.
func (m *Machine) Run(ctx context.Context, code []asm.Instr) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "vm: run", "instrs", len(code))
	defer tr.Finish("err", &err)

	if m.Mem == nil {
		m.Mem = make(map[asm.Addr]int)
	}

	labels := make(map[string]int)

	for pc, x := range code {
		if l, ok := x.(asm.Label); ok {
			labels[l.Name] = pc
		}
	}

	limit := m.MaxSteps
	if limit == 0 {
		limit = DefaultMaxSteps
	}

	for pc := 0; pc < len(code); {
		if m.Steps >= limit {
			return StepError{PC: pc, Instr: code[pc], Err: ErrStepLimit}
		}

		if m.Steps&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "pc %d", pc)
			}
		}

		m.Steps++

		next, err := m.step(code[pc], pc, labels)
		if err != nil {
			return StepError{PC: pc, Instr: code[pc], Err: err}
		}

		if tr.If("vm") {
			tr.Printw("step", "pc", pc, "instr", string(code[pc].AppendText(nil)), "a", m.A, "b", m.B, "zero", m.Zero, "stack", len(m.Stack))
		}

		pc = next
	}

	tr.Printw("program finished", "steps", m.Steps, "a", m.A)

	return nil
}

func (m *Machine) step(x asm.Instr, pc int, labels map[string]int) (next int, err error) {
	next = pc + 1

	switch x := x.(type) {
	case asm.LoadI:
		m.A = x.Val
	case asm.Load:
		m.A = m.Mem[x.Addr]
	case asm.Store:
		m.Mem[x.Addr] = m.A
	case asm.Push:
		m.Stack = append(m.Stack, m.A)
	case asm.Pop:
		if len(m.Stack) == 0 {
			return pc, ErrStackUnderflow
		}

		m.B = m.Stack[len(m.Stack)-1]
		m.Stack = m.Stack[:len(m.Stack)-1]
	case asm.Add:
		m.A = m.B + m.A
	case asm.Sub:
		m.A = m.B - m.A
	case asm.Cmp:
		m.Zero = m.A == m.operand(x.Arg)
	case asm.Jnz:
		to, ok := labels[x.Label]
		if !ok {
			return pc, errors.Wrap(ErrUnknownLabel, "%v", x.Label)
		}

		if !m.Zero {
			next = to
		}
	case asm.Label:
	default:
		return pc, errors.New("unsupported instruction: %T", x)
	}

	return next, nil
}

func (m *Machine) operand(o asm.Operand) int {
	if o.Mem {
		return m.Mem[asm.Addr(o.Val)]
	}

	return o.Val
}

func (e StepError) Error() string {
	return fmt.Sprintf("pc %d: %s: %v", e.PC, e.Instr.AppendText(nil), e.Err)
}

func (e StepError) Unwrap() error { return e.Err }
