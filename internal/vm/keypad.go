package vm

import (
	"fmt"
	"log/slog"
	"strconv"
)

// The computers which originally used CHIP-8 had a 16-key hexadecimal
// keypad with the following layout:
//
// +---+---+---+---+
// | 1 | 2 | 3 | C |
// +---+---+---+---+
// | 4 | 5 | 6 | D |
// +---+---+---+---+
// | 7 | 8 | 9 | E |
// +---+---+---+---+
// | A | 0 | B | F |
// +---+---+---+---+

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

func (k Key) String() string {
	return fmt.Sprintf("%X", uint8(k))
}

// ParseKey parses a single hex digit ("0".."F", either case).
func ParseKey(s string) (Key, error) {
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil || len(s) != 1 {
		return 0, fmt.Errorf("%w: %q is not a hex digit", ErrInvalidKey, s)
	}
	return Key(n), nil
}

func (vm *VM) KeyDown(key Key) {
	vm.SetKey(key, true)
}

func (vm *VM) KeyUp(key Key) {
	vm.SetKey(key, false)
}

// SetKey records a key transition. A press of a key that was not already
// held also becomes the candidate answer for a pending FX0A.
func (vm *VM) SetKey(key Key, pressed bool) {
	if key >= KeyCount {
		slog.Debug("ignore key", "key", uint8(key))
		return
	}

	if pressed && !vm.keypad[key] {
		vm.lastPress = key
		vm.pressLatched = true
	}

	vm.keypad[key] = pressed
}

func (vm *VM) IsKeyDown(key Key) bool {
	return key < KeyCount && vm.keypad[key]
}
