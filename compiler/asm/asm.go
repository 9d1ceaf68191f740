// Package asm defines the accumulator machine instruction set
// and its textual listing form.
//
// The machine has a primary register A, a secondary register B,
// a save stack and memory addressed by small integers.
// ADD A,B and SUB A,B compute A = B op A: after
//
//	<left>; PUSH A; <right>; POP B
//
// B holds the left operand and A the right one.
package asm

import (
	"fmt"

	"github.com/nikandfor/hacked/hfmt"
)

type (
	Instr interface {
		AppendText(b []byte) []byte
	}

	Addr int

	// Operand is an immediate value or, if Mem is set, a memory address.
	Operand struct {
		Mem bool
		Val int
	}

	LoadI struct {
		Val int
	}

	Load struct {
		Addr Addr
	}

	Store struct {
		Addr Addr
	}

	Push struct{}

	Pop struct{}

	Add struct{}

	Sub struct{}

	Cmp struct {
		Arg Operand
	}

	Jnz struct {
		Label string
	}

	Label struct {
		Name string
	}
)

// Append encodes instructions one per line.
func Append(b []byte, code ...Instr) []byte {
	for _, x := range code {
		b = x.AppendText(b)
		b = append(b, '\n')
	}

	return b
}

func Text(code ...Instr) string {
	return string(Append(nil, code...))
}

func Imm(v int) Operand  { return Operand{Val: v} }
func Mem(a Addr) Operand { return Operand{Mem: true, Val: int(a)} }

func (x LoadI) AppendText(b []byte) []byte { return hfmt.Appendf(b, "LOADI A,%d", x.Val) }
func (x Load) AppendText(b []byte) []byte  { return hfmt.Appendf(b, "LOAD A,%s", x.Addr.String()) }
func (x Store) AppendText(b []byte) []byte {
	return hfmt.Appendf(b, "STORE A,%s", x.Addr.String())
}
func (x Push) AppendText(b []byte) []byte  { return append(b, "PUSH A"...) }
func (x Pop) AppendText(b []byte) []byte   { return append(b, "POP B"...) }
func (x Add) AppendText(b []byte) []byte   { return append(b, "ADD A,B"...) }
func (x Sub) AppendText(b []byte) []byte   { return append(b, "SUB A,B"...) }
func (x Cmp) AppendText(b []byte) []byte   { return hfmt.Appendf(b, "CMP A,%s", x.Arg.String()) }
func (x Jnz) AppendText(b []byte) []byte   { return hfmt.Appendf(b, "JNZ %s", x.Label) }
func (x Label) AppendText(b []byte) []byte { return hfmt.Appendf(b, "%s:", x.Name) }

func (a Addr) String() string {
	return fmt.Sprintf("0x%02X", int(a))
}

func (o Operand) String() string {
	if o.Mem {
		return Addr(o.Val).String()
	}

	return fmt.Sprintf("%d", o.Val)
}
