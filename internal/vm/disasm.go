package vm

import (
	"bufio"
	"fmt"
	"io"
)

// Disassemble writes one line per instruction word of program, addressed as
// if loaded at ProgramStart. Data mixed into the code decodes like anything
// else; a trailing odd byte is printed as a db directive. extended selects
// DecodeExtended.
func Disassemble(w io.Writer, program []byte, extended bool) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrProgramTooLarge, len(program), MaxProgramSize)
	}

	out := bufio.NewWriter(w)
	addr := ProgramStart
	decode := Decode
	if extended {
		decode = DecodeExtended
	}

	for i := 0; i+1 < len(program); i += InstructionSize {
		word := uint16(program[i])<<8 | uint16(program[i+1])
		fmt.Fprintf(out, "0x%04x  %04x  %s\n", addr, word, decode(word))
		addr += InstructionSize
	}

	if len(program)%2 == 1 {
		fmt.Fprintf(out, "0x%04x  %02x    db 0x%02x\n", addr, program[len(program)-1], program[len(program)-1])
	}

	return out.Flush()
}
