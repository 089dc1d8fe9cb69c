package vm

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrMemoryOutOfRange   = errors.New("memory out of range")
	ErrInvalidKey         = errors.New("invalid key")
	ErrProgramTooLarge    = errors.New("program too large")
)

// Fault is a fatal execution error. The machine state is left as it was
// before the faulting instruction.
type Fault struct {
	PC     uint16
	Opcode uint16
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("opcode 0x%04X at 0x%04X: %v", f.Opcode, f.PC, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func (vm *VM) fault(in Instruction, err error) error {
	return &Fault{PC: vm.pc, Opcode: in.Word, Err: err}
}
