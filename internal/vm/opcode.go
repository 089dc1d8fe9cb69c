package vm

// Status reports how a step ended when it did not fault.
type Status uint8

const (
	// StatusRunning means the instruction completed.
	StatusRunning Status = iota
	// StatusWaitingForKey means an FX0A instruction is suspended until a key is pressed.
	StatusWaitingForKey
	// StatusLooped means the program jumped to its own address and can make no more progress.
	StatusLooped
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusWaitingForKey:
		return "waiting for key"
	case StatusLooped:
		return "looped"
	default:
		return "unknown"
	}
}

const flag = 0x0F // VF

// Execute applies a decoded instruction to the machine. On error nothing has
// been modified.
func (vm *VM) Execute(in Instruction) (Status, error) {
	if in.Op.IsExtendedALU() && !vm.extendedALU {
		return StatusRunning, vm.fault(in, ErrUnknownInstruction)
	}

	var err error

	switch in.Op {
	case OpCLS:
		vm.gfx = Framebuffer{}
		vm.drawFlag = true
		vm.next()

	case OpRET:
		err = vm.ret()

	case OpJP:
		if in.Addr == vm.pc {
			return StatusLooped, nil
		}
		vm.pc = in.Addr

	case OpCALL:
		err = vm.call(in.Addr)

	case OpSEByte:
		vm.skipIf(vm.registers[in.X] == in.KK)

	case OpSNEByte:
		vm.skipIf(vm.registers[in.X] != in.KK)

	case OpSEReg:
		vm.skipIf(vm.registers[in.X] == vm.registers[in.Y])

	case OpLDByte:
		vm.registers[in.X] = in.KK
		vm.next()

	case OpADDByte:
		vm.registers[in.X] += in.KK
		vm.next()

	case OpLDReg:
		vm.registers[in.X] = vm.registers[in.Y]
		vm.next()

	case OpOR:
		vm.registers[in.X] |= vm.registers[in.Y]
		vm.next()

	case OpAND:
		vm.registers[in.X] &= vm.registers[in.Y]
		vm.next()

	case OpXOR:
		vm.registers[in.X] ^= vm.registers[in.Y]
		vm.next()

	case OpADDReg:
		sum := uint16(vm.registers[in.X]) + uint16(vm.registers[in.Y])
		vm.setFlag(sum > 0xFF)
		vm.registers[in.X] = uint8(sum)
		vm.next()

	case OpSUB:
		x, y := vm.registers[in.X], vm.registers[in.Y]
		vm.setFlag(x > y)
		vm.registers[in.X] = x - y
		vm.next()

	case OpSHR:
		x := vm.registers[in.X]
		vm.registers[flag] = x & 0x1
		vm.registers[in.X] = x >> 1
		vm.next()

	case OpSUBN:
		x, y := vm.registers[in.X], vm.registers[in.Y]
		vm.setFlag(y > x)
		vm.registers[in.X] = y - x
		vm.next()

	case OpSHL:
		x := vm.registers[in.X]
		vm.registers[flag] = x >> 7
		vm.registers[in.X] = x << 1
		vm.next()

	case OpSNEReg:
		vm.skipIf(vm.registers[in.X] != vm.registers[in.Y])

	case OpLDI:
		vm.index = in.Addr
		vm.next()

	case OpJPV0:
		vm.pc = in.Addr + uint16(vm.registers[0])

	case OpRND:
		vm.registers[in.X] = uint8(vm.rng.Uint32()) & in.KK
		vm.next()

	case OpDRW:
		err = vm.sprite(in)

	case OpSKP:
		var down bool
		if down, err = vm.key(in.X); err == nil {
			vm.skipIf(down)
		}

	case OpSKNP:
		var down bool
		if down, err = vm.key(in.X); err == nil {
			vm.skipIf(!down)
		}

	case OpLDVxDT:
		vm.registers[in.X] = vm.delayTimer
		vm.next()

	case OpLDVxK:
		return vm.waitKey(in.X), nil

	case OpLDDTVx:
		vm.delayTimer = vm.registers[in.X]
		vm.next()

	case OpLDSTVx:
		vm.soundTimer = vm.registers[in.X]
		vm.next()

	case OpADDI:
		vm.index += uint16(vm.registers[in.X])
		vm.next()

	case OpLDF:
		vm.index = FontStart + uint16(vm.registers[in.X])*GlyphBytes
		vm.next()

	case OpBCD:
		err = vm.bcd(in.X)

	case OpSTR:
		err = vm.store(in.X)

	case OpLDR:
		err = vm.load(in.X)

	default:
		err = ErrUnknownInstruction
	}

	if err != nil {
		return StatusRunning, vm.fault(in, err)
	}

	return StatusRunning, nil
}

func (vm *VM) next() {
	vm.pc += InstructionSize
}

func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.pc += 2 * InstructionSize
	} else {
		vm.pc += InstructionSize
	}
}

func (vm *VM) setFlag(set bool) {
	if set {
		vm.registers[flag] = 1
	} else {
		vm.registers[flag] = 0
	}
}

// checkSpan reports whether n bytes starting at addr lie inside memory.
func checkSpan(addr uint16, n int) error {
	if int(addr)+n > MemorySize {
		return ErrMemoryOutOfRange
	}
	return nil
}

// 00EE	rts	return from subroutine call
func (vm *VM) ret() error {
	if vm.sp == 0 {
		return ErrStackUnderflow
	}

	vm.sp--
	vm.pc = vm.stack[vm.sp]
	vm.next()
	return nil
}

// 2xxx	jsr xxx	jump to subroutine at address xxx
func (vm *VM) call(addr uint16) error {
	if vm.sp >= StackSize {
		return ErrStackOverflow
	}

	vm.stack[vm.sp] = vm.pc
	vm.sp++
	vm.pc = addr
	return nil
}

// sprite rx,ry,s	Draw sprite at screen location rx,ry height s
// Sprites stored in memory at location in index register, 8 bits wide.
// Wraps around the screen on each axis.
// If when drawn, clears a pixel, vf is set to 1 otherwise it is zero.
// All drawing is xor drawing (e.g. it toggles the screen pixels)
func (vm *VM) sprite(in Instruction) error {
	height := int(in.N)
	if err := checkSpan(vm.index, height); err != nil {
		return err
	}

	xLocation, yLocation := int(vm.registers[in.X]), int(vm.registers[in.Y])

	collision := false
	for y := 0; y < height; y++ {
		row := vm.memory[int(vm.index)+y]

		const width = 8
		for x := 0; x < width; x++ {
			if row&(0x80>>x) == 0 {
				continue
			}

			addr := screenAddr(xLocation+x, yLocation+y)
			if vm.gfx[addr] != 0 {
				collision = true
			}
			vm.gfx[addr] ^= 1
		}
	}

	vm.setFlag(collision)
	vm.drawFlag = true
	vm.next()
	return nil
}

func (vm *VM) key(reg uint8) (bool, error) {
	k := vm.registers[reg]
	if k >= KeyCount {
		return false, ErrInvalidKey
	}
	return vm.keypad[k], nil
}

// fr0a	key vr	wait for keypress, put key in register vr
//
// The first execution only arms the wait; the instruction completes once a
// press arrives after that point.
func (vm *VM) waitKey(reg uint8) Status {
	if !vm.waiting {
		vm.waiting = true
		vm.pressLatched = false
		return StatusWaitingForKey
	}

	if !vm.pressLatched {
		return StatusWaitingForKey
	}

	vm.registers[reg] = uint8(vm.lastPress)
	vm.waiting = false
	vm.pressLatched = false
	vm.next()
	return StatusRunning
}

// fr33	bcd vr	store the bcd representation of register vr at location I,I+1,I+2	Doesn't change I
func (vm *VM) bcd(reg uint8) error {
	if err := checkSpan(vm.index, 3); err != nil {
		return err
	}

	x := vm.registers[reg]
	vm.memory[vm.index] = x / 100
	vm.memory[vm.index+1] = (x / 10) % 10
	vm.memory[vm.index+2] = x % 10
	vm.next()
	return nil
}

// fr55	str v0-vr	store registers v0-vr at location I onwards, then I = I + r + 1
func (vm *VM) store(reg uint8) error {
	n := int(reg) + 1
	if err := checkSpan(vm.index, n); err != nil {
		return err
	}

	copy(vm.memory[vm.index:], vm.registers[:n])
	vm.index += uint16(n)
	vm.next()
	return nil
}

// fr65	ldr v0-vr	load registers v0-vr from location I onwards, then I = I + r + 1
func (vm *VM) load(reg uint8) error {
	n := int(reg) + 1
	if err := checkSpan(vm.index, n); err != nil {
		return err
	}

	copy(vm.registers[:n], vm.memory[vm.index:])
	vm.index += uint16(n)
	vm.next()
	return nil
}
