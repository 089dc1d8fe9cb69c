package vm

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	ScreenWidth   = 64
	ScreenHeight  = 32
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	MaxProgramSize  = MemorySize - int(ProgramStart)
	InstructionSize = 2
)

// TimerMode selects how the delay and sound timers count down.
type TimerMode uint8

const (
	// TimerFixed decrements the timers once per Tick. Run ticks at FrameRate,
	// so timer durations do not depend on the emulation speed.
	TimerFixed TimerMode = iota
	// TimerPerInstruction decrements the timers after every completed instruction.
	TimerPerInstruction
)

func (m TimerMode) String() string {
	switch m {
	case TimerFixed:
		return "fixed"
	case TimerPerInstruction:
		return "instruction"
	default:
		return fmt.Sprintf("TimerMode(%d)", uint8(m))
	}
}

// ParseTimerMode is the inverse of TimerMode.String.
func ParseTimerMode(s string) (TimerMode, error) {
	switch s {
	case "fixed", "":
		return TimerFixed, nil
	case "instruction":
		return TimerPerInstruction, nil
	default:
		return 0, fmt.Errorf("unknown timer mode %q", s)
	}
}

type VM struct {
	memory    [MemorySize]uint8    // Memory (4k)
	registers [RegisterCount]uint8 // V registers (V0-VF)

	stack [StackSize]uint16 // Stack
	sp    uint16            // Stack pointer

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	gfx      Framebuffer    // Graphics buffer
	keypad   [KeyCount]bool // Keypad
	drawFlag bool           // Indicates a draw has occurred

	// FX0A bookkeeping: waiting is set while the instruction at pc is
	// suspended, lastPress holds the most recent press transition.
	waiting      bool
	pressLatched bool
	lastPress    Key

	timerMode   TimerMode
	extendedALU bool
	rng         *rand.Rand

	program []byte
}

type Option func(*VM)

// WithTimerMode sets the timer cadence. The default is TimerFixed.
func WithTimerMode(mode TimerMode) Option {
	return func(vm *VM) {
		vm.timerMode = mode
	}
}

// WithExtendedALU enables 8XY1, 8XY2, 8XY3, 8XY6 and 8XYE. Without it those
// words are unknown instructions.
func WithExtendedALU() Option {
	return func(vm *VM) {
		vm.extendedALU = true
	}
}

// WithRandSource sets the source used by the CXKK instruction.
func WithRandSource(src rand.Source) Option {
	return func(vm *VM) {
		vm.rng = rand.New(src)
	}
}

// New creates a machine with program loaded at ProgramStart.
func New(program []byte, opts ...Option) (*VM, error) {
	vm := &VM{}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.rng == nil {
		vm.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if err := vm.Load(program); err != nil {
		return nil, err
	}
	return vm, nil
}

// Load replaces the program and resets the machine. On error the machine
// keeps its current program and state.
func (vm *VM) Load(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, at most %d fit", ErrProgramTooLarge, len(program), MaxProgramSize)
	}

	vm.program = program
	vm.Reset()
	return nil
}

// Reset puts the machine back into its power-on state and reloads the program.
func (vm *VM) Reset() {
	vm.pc = ProgramStart
	vm.index = 0
	vm.sp = 0
	vm.stack = [StackSize]uint16{}
	vm.registers = [RegisterCount]uint8{}
	vm.keypad = [KeyCount]bool{}
	vm.waiting = false
	vm.pressLatched = false
	vm.lastPress = 0

	// Clear the display
	vm.gfx = Framebuffer{}
	vm.drawFlag = true

	// Clear memory
	slog.Debug("clear memory", "n", len(vm.memory))
	vm.memory = [MemorySize]uint8{}

	// Load font set into memory
	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontStart), "n", len(font))
	copy(vm.memory[FontStart:], font[:])

	// Load program into memory
	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(vm.program))
	copy(vm.memory[ProgramStart:], vm.program)

	// Reset timers
	vm.delayTimer = 0
	vm.soundTimer = 0
}

// Fetch reads the big-endian instruction word at the program counter.
func (vm *VM) Fetch() (uint16, error) {
	if int(vm.pc)+1 >= MemorySize {
		return 0, &Fault{PC: vm.pc, Err: ErrMemoryOutOfRange}
	}

	hi := vm.memory[vm.pc]
	lo := vm.memory[vm.pc+1]

	return uint16(hi)<<8 | uint16(lo), nil
}

// Step fetches, decodes and executes one instruction.
//
// While an FX0A instruction waits for a key press Step returns
// StatusWaitingForKey and leaves the machine untouched; the instruction
// completes on the first Step after a key press has been delivered.
func (vm *VM) Step() (Status, error) {
	opcode, err := vm.Fetch()
	if err != nil {
		return StatusRunning, err
	}

	in := vm.decode(opcode)

	if !vm.waiting && slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", vm.pc),
			"opcode", fmt.Sprintf("0x%04x", opcode),
			"instr", in.String(),
		)
	}

	status, err := vm.Execute(in)
	if err != nil || status == StatusWaitingForKey {
		return status, err
	}

	if vm.timerMode == TimerPerInstruction {
		vm.Tick()
	}

	return status, nil
}

func (vm *VM) decode(word uint16) Instruction {
	if vm.extendedALU {
		return DecodeExtended(word)
	}
	return Decode(word)
}

// Tick advances both timers by one period, stopping at zero.
func (vm *VM) Tick() {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}

	if vm.soundTimer > 0 {
		vm.soundTimer--
	}
}

// TimerMode reports the timer cadence the machine was created with.
func (vm *VM) TimerMode() TimerMode {
	return vm.timerMode
}

// Framebuffer returns a copy of the screen.
func (vm *VM) Framebuffer() Framebuffer {
	return vm.gfx
}

// Waiting reports whether an FX0A instruction is suspended.
func (vm *VM) Waiting() bool {
	return vm.waiting
}

// SoundActive reports whether the sound timer is running.
func (vm *VM) SoundActive() bool {
	return vm.soundTimer > 0
}

// State is a copy of the architectural state of a machine.
type State struct {
	Memory     [MemorySize]uint8
	V          [RegisterCount]uint8
	Stack      [StackSize]uint16
	SP         uint16
	PC         uint16
	I          uint16
	DelayTimer uint8
	SoundTimer uint8
	Gfx        Framebuffer
	Keypad     [KeyCount]bool
}

func (vm *VM) State() State {
	return State{
		Memory:     vm.memory,
		V:          vm.registers,
		Stack:      vm.stack,
		SP:         vm.sp,
		PC:         vm.pc,
		I:          vm.index,
		DelayTimer: vm.delayTimer,
		SoundTimer: vm.soundTimer,
		Gfx:        vm.gfx,
		Keypad:     vm.keypad,
	}
}
