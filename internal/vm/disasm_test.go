package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassemble(t *testing.T) {
	var buf bytes.Buffer
	err := Disassemble(&buf, []byte{
		0x00, 0xE0,
		0x6A, 0x02,
		0xDA, 0xB5,
		0xF3, 0x0A,
		0x12, 0x00,
		0x01, 0x23,
		0x7F,
	}, false)
	require.NoError(t, err)

	assert.Equal(t, ""+
		"0x0200  00e0  cls\n"+
		"0x0202  6a02  mov va, 2\n"+
		"0x0204  dab5  sprite va, vb, 5\n"+
		"0x0206  f30a  key v3\n"+
		"0x0208  1200  jmp 0x0200\n"+
		"0x020a  0123  unknown 0x0123\n"+
		"0x020c  7f    db 0x7f\n",
		buf.String())
}

func TestDisassemble_TooLarge(t *testing.T) {
	err := Disassemble(&bytes.Buffer{}, make([]byte, MaxProgramSize+1), false)
	assert.ErrorIs(t, err, ErrProgramTooLarge)
}

func TestDisassemble_Extended(t *testing.T) {
	code := []byte{0x81, 0x23, 0x81, 0x2E}

	var plain, extended bytes.Buffer
	require.NoError(t, Disassemble(&plain, code, false))
	require.NoError(t, Disassemble(&extended, code, true))

	assert.Equal(t, "0x0200  8123  unknown 0x8123\n0x0202  812e  unknown 0x812E\n", plain.String())
	assert.Equal(t, "0x0200  8123  xor v1, v2\n0x0202  812e  shl v1\n", extended.String())
}
