package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/simplelang/compiler/asm"
)

func run(t *testing.T, listing string) *Machine {
	t.Helper()

	code, err := asm.Parse([]byte(listing))
	require.NoError(t, err)

	m := New()

	err = m.Run(context.Background(), code)
	require.NoError(t, err)

	return m
}

func TestSubtractKeepsOperandOrder(t *testing.T) {
	m := run(t, `
LOADI A,5
PUSH A
LOADI A,3
POP B
SUB A,B
STORE A,0x10
`)

	assert.Equal(t, 2, m.Mem[0x10])
}

func TestAdd(t *testing.T) {
	m := run(t, `
LOADI A,40
STORE A,0x11
LOAD A,0x11
PUSH A
LOADI A,2
POP B
ADD A,B
STORE A,0x12
`)

	assert.Equal(t, 42, m.Mem[0x12])
}

func TestBranch(t *testing.T) {
	m := run(t, `
LOADI A,1
STORE A,0x10
LOAD A,0x10
CMP A,2
JNZ if_end_0
LOADI A,7
STORE A,0x11
if_end_0:
LOAD A,0x10
CMP A,1
JNZ if_end_1
LOADI A,9
STORE A,0x12
if_end_1:
`)

	assert.Equal(t, 0, m.Mem[0x11], "skipped")
	assert.Equal(t, 9, m.Mem[0x12], "taken")
}

func TestCompareMemory(t *testing.T) {
	m := run(t, `
LOADI A,16
STORE A,0x10
LOADI A,16
STORE A,0x11
LOAD A,0x10
CMP A,0x11
JNZ done
LOADI A,1
STORE A,0x12
done:
`)

	assert.Equal(t, 1, m.Mem[0x12], "compares values, not addresses")
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	err := New().Run(ctx, []asm.Instr{asm.Pop{}})
	assert.True(t, errors.Is(err, ErrStackUnderflow), "%v", err)

	var se StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 0, se.PC)

	err = New().Run(ctx, []asm.Instr{asm.LoadI{Val: 1}, asm.Jnz{Label: "nowhere"}})
	assert.True(t, errors.Is(err, ErrUnknownLabel), "%v", err)

	m := New()
	m.MaxSteps = 10

	err = m.Run(ctx, []asm.Instr{
		asm.Label{Name: "loop"},
		asm.Cmp{Arg: asm.Imm(1)},
		asm.Jnz{Label: "loop"},
	})
	assert.True(t, errors.Is(err, ErrStepLimit), "%v", err)
	assert.Equal(t, 10, m.Steps)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Run(ctx, []asm.Instr{asm.LoadI{Val: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}
