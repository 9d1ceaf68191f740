package asm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	code := []Instr{
		LoadI{Val: 5},
		Store{Addr: 0x10},
		Load{Addr: 0x10},
		Cmp{Arg: Imm(5)},
		Cmp{Arg: Mem(0x1a)},
		Jnz{Label: "if_end_0"},
		Push{},
		Pop{},
		Add{},
		Sub{},
		Label{Name: "if_end_0"},
		Load{Addr: 0x123},
	}

	assert.Equal(t, `LOADI A,5
STORE A,0x10
LOAD A,0x10
CMP A,5
CMP A,0x1A
JNZ if_end_0
PUSH A
POP B
ADD A,B
SUB A,B
if_end_0:
LOAD A,0x123
`, Text(code...))
}

func TestParseListing(t *testing.T) {
	code, err := Parse([]byte(`; -------- header --------
; x -> 0x10

LOADI A,5
STORE A, 0x10
  load a,0x10   ; comment
CMP A,0x11
CMP A,-3
JNZ if_end_0
PUSH A
POP B
ADD A,B
SUB A, B
if_end_0:
`))
	require.NoError(t, err)

	assert.Equal(t, []Instr{
		LoadI{Val: 5},
		Store{Addr: 0x10},
		Load{Addr: 0x10},
		Cmp{Arg: Mem(0x11)},
		Cmp{Arg: Imm(-3)},
		Jnz{Label: "if_end_0"},
		Push{},
		Pop{},
		Add{},
		Sub{},
		Label{Name: "if_end_0"},
	}, code)
}

func TestParseRoundTrip(t *testing.T) {
	code := []Instr{
		LoadI{Val: 1},
		Push{},
		Load{Addr: 0x2f},
		Pop{},
		Sub{},
		Store{Addr: 0x30},
	}

	back, err := Parse(Append(nil, code...))
	require.NoError(t, err)
	assert.Equal(t, code, back)
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"MUL A,B",
		"LOADI A,0x10",
		"LOAD A,5",
		"STORE B,0x10",
		"PUSH B",
		"POP A",
		"ADD B,A",
		"JNZ 1abc",
		"bad label:",
		"CMP A,zz",
		"CMP A,0xZZ",
	} {
		_, err := Parse([]byte("PUSH A\n" + line + "\n"))

		var le LineError
		if assert.True(t, errors.As(err, &le), "%q: %v", line, err) {
			assert.Equal(t, 2, le.Line, line)
		}
	}
}

func TestIsLabel(t *testing.T) {
	for _, l := range []string{"if_end_0", "L1", "_x", "a"} {
		assert.True(t, IsLabel(l), l)
	}

	for _, l := range []string{"", "0a", "end-0", "a b", "x:"} {
		assert.False(t, IsLabel(l), l)
	}
}
