package hal

import (
	"strings"

	"github.com/kapitanov/chip8emu/internal/vm"
)

// Keymap maps a physical key name to a keypad key. Names are matched
// case-insensitively; the SDL backend accepts any SDL scancode name, the
// terminal backend only single characters.
type Keymap map[string]vm.Key

func DefaultKeymap() Keymap {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================
	return Keymap{
		"x": vm.Key0,
		"1": vm.Key1,
		"2": vm.Key2,
		"3": vm.Key3,
		"q": vm.Key4,
		"w": vm.Key5,
		"e": vm.Key6,
		"a": vm.Key7,
		"s": vm.Key8,
		"d": vm.Key9,
		"z": vm.KeyA,
		"c": vm.KeyB,
		"4": vm.KeyC,
		"r": vm.KeyD,
		"f": vm.KeyE,
		"v": vm.KeyF,
	}
}

// runes returns the single-character entries keyed by lower-case rune.
func (km Keymap) runes() map[rune]vm.Key {
	m := make(map[rune]vm.Key, len(km))
	for name, key := range km {
		r := []rune(strings.ToLower(name))
		if len(r) == 1 {
			m[r[0]] = key
		}
	}
	return m
}
