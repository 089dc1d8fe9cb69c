package vm

import "fmt"

// Op is the operation class of a decoded instruction word.
type Op uint8

const (
	OpUnknown Op = iota

	OpCLS     // 00E0
	OpRET     // 00EE
	OpJP      // 1NNN
	OpCALL    // 2NNN
	OpSEByte  // 3XKK
	OpSNEByte // 4XKK
	OpSEReg   // 5XY0
	OpLDByte  // 6XKK
	OpADDByte // 7XKK
	OpLDReg   // 8XY0
	OpOR      // 8XY1, extended
	OpAND     // 8XY2, extended
	OpXOR     // 8XY3, extended
	OpADDReg  // 8XY4
	OpSUB     // 8XY5
	OpSHR     // 8XY6, extended
	OpSUBN    // 8XY7
	OpSHL     // 8XYE, extended
	OpSNEReg  // 9XY0
	OpLDI     // ANNN
	OpJPV0    // BNNN
	OpRND     // CXKK
	OpDRW     // DXYN
	OpSKP     // EX9E
	OpSKNP    // EXA1
	OpLDVxDT  // FX07
	OpLDVxK   // FX0A
	OpLDDTVx  // FX15
	OpLDSTVx  // FX18
	OpADDI    // FX1E
	OpLDF     // FX29
	OpBCD     // FX33
	OpSTR     // FX55
	OpLDR     // FX65
)

// Instruction is a decoded instruction word.
type Instruction struct {
	Word uint16
	Op   Op
	Addr uint16 // NNN
	X    uint8
	Y    uint8
	N    uint8
	KK   uint8
}

// Decode splits word into its operand fields and classifies it. Every word
// decodes; words that name no instruction get OpUnknown.
func Decode(word uint16) Instruction {
	in := Instruction{
		Word: word,
		Addr: word & 0x0FFF,
		X:    uint8((word & 0x0F00) >> 8),
		Y:    uint8((word & 0x00F0) >> 4),
		N:    uint8(word & 0x000F),
		KK:   uint8(word & 0x00FF),
	}
	in.Op = classify(word, false)
	return in
}

// DecodeExtended is Decode with the 8XY1/2/3/6/E logic and shift forms
// recognised as well.
func DecodeExtended(word uint16) Instruction {
	in := Decode(word)
	in.Op = classify(word, true)
	return in
}

// IsExtendedALU reports whether op is one of the 8XY1/2/3/6/E forms that only
// DecodeExtended produces.
func (op Op) IsExtendedALU() bool {
	switch op {
	case OpOR, OpAND, OpXOR, OpSHR, OpSHL:
		return true
	default:
		return false
	}
}

func classify(opcode uint16, extended bool) Op {
	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			return OpCLS
		case 0x00EE:
			return OpRET
		}

	case 0x1000:
		return OpJP

	case 0x2000:
		return OpCALL

	case 0x3000:
		return OpSEByte

	case 0x4000:
		return OpSNEByte

	case 0x5000:
		if opcode&0x000F == 0 {
			return OpSEReg
		}

	case 0x6000:
		return OpLDByte

	case 0x7000:
		return OpADDByte

	case 0x8000:
		switch opcode & 0x000F {
		case 0x0000:
			return OpLDReg
		case 0x0004:
			return OpADDReg
		case 0x0005:
			return OpSUB
		case 0x0007:
			return OpSUBN
		}

		if !extended {
			break
		}

		switch opcode & 0x000F {
		case 0x0001:
			return OpOR
		case 0x0002:
			return OpAND
		case 0x0003:
			return OpXOR
		case 0x0006:
			return OpSHR
		case 0x000E:
			return OpSHL
		}

	case 0x9000:
		if opcode&0x000F == 0 {
			return OpSNEReg
		}

	case 0xA000:
		return OpLDI

	case 0xB000:
		return OpJPV0

	case 0xC000:
		return OpRND

	case 0xD000:
		return OpDRW

	case 0xE000:
		switch opcode & 0x00FF {
		case 0x009E:
			return OpSKP
		case 0x00A1:
			return OpSKNP
		}

	case 0xF000:
		switch opcode & 0x00FF {
		case 0x0007:
			return OpLDVxDT
		case 0x000A:
			return OpLDVxK
		case 0x0015:
			return OpLDDTVx
		case 0x0018:
			return OpLDSTVx
		case 0x001E:
			return OpADDI
		case 0x0029:
			return OpLDF
		case 0x0033:
			return OpBCD
		case 0x0055:
			return OpSTR
		case 0x0065:
			return OpLDR
		}
	}

	return OpUnknown
}

// String returns the mnemonic form used in debug traces and disassembly.
func (in Instruction) String() string {
	switch in.Op {
	case OpCLS:
		return "cls"
	case OpRET:
		return "rts"
	case OpJP:
		return fmt.Sprintf("jmp 0x%04x", in.Addr)
	case OpCALL:
		return fmt.Sprintf("jsr 0x%04x", in.Addr)
	case OpSEByte:
		return fmt.Sprintf("skeq v%x, %d", in.X, in.KK)
	case OpSNEByte:
		return fmt.Sprintf("skne v%x, %d", in.X, in.KK)
	case OpSEReg:
		return fmt.Sprintf("skeq v%x, v%x", in.X, in.Y)
	case OpLDByte:
		return fmt.Sprintf("mov v%x, %d", in.X, in.KK)
	case OpADDByte:
		return fmt.Sprintf("add v%x, %d", in.X, in.KK)
	case OpLDReg:
		return fmt.Sprintf("mov v%x, v%x", in.X, in.Y)
	case OpOR:
		return fmt.Sprintf("or v%x, v%x", in.X, in.Y)
	case OpAND:
		return fmt.Sprintf("and v%x, v%x", in.X, in.Y)
	case OpXOR:
		return fmt.Sprintf("xor v%x, v%x", in.X, in.Y)
	case OpADDReg:
		return fmt.Sprintf("add v%x, v%x", in.X, in.Y)
	case OpSUB:
		return fmt.Sprintf("sub v%x, v%x", in.X, in.Y)
	case OpSHR:
		return fmt.Sprintf("shr v%x", in.X)
	case OpSUBN:
		return fmt.Sprintf("rsb v%x, v%x", in.X, in.Y)
	case OpSHL:
		return fmt.Sprintf("shl v%x", in.X)
	case OpSNEReg:
		return fmt.Sprintf("skne v%x, v%x", in.X, in.Y)
	case OpLDI:
		return fmt.Sprintf("mvi 0x%04x", in.Addr)
	case OpJPV0:
		return fmt.Sprintf("jmi 0x%04x", in.Addr)
	case OpRND:
		return fmt.Sprintf("rand v%x, %d", in.X, in.KK)
	case OpDRW:
		return fmt.Sprintf("sprite v%x, v%x, %d", in.X, in.Y, in.N)
	case OpSKP:
		return fmt.Sprintf("skpr v%x", in.X)
	case OpSKNP:
		return fmt.Sprintf("skup v%x", in.X)
	case OpLDVxDT:
		return fmt.Sprintf("gdelay v%x", in.X)
	case OpLDVxK:
		return fmt.Sprintf("key v%x", in.X)
	case OpLDDTVx:
		return fmt.Sprintf("sdelay v%x", in.X)
	case OpLDSTVx:
		return fmt.Sprintf("ssound v%x", in.X)
	case OpADDI:
		return fmt.Sprintf("adi v%x", in.X)
	case OpLDF:
		return fmt.Sprintf("font v%x", in.X)
	case OpBCD:
		return fmt.Sprintf("bcd v%x", in.X)
	case OpSTR:
		return fmt.Sprintf("str v0-v%x", in.X)
	case OpLDR:
		return fmt.Sprintf("ldr v0-v%x", in.X)
	default:
		return fmt.Sprintf("unknown 0x%04X", in.Word)
	}
}
