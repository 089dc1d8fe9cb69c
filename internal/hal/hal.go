package hal

import (
	"errors"
	"fmt"
	"time"

	"github.com/kapitanov/chip8emu/internal/vm"
)

var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

const (
	BackendSDL      = "sdl"
	BackendTerminal = "terminal"
	BackendHeadless = "headless"
)

// Display is a HAL that owns host resources.
type Display interface {
	vm.HAL
	Shutdown()
}

type Options struct {
	Scale      int
	Foreground uint32 // 0xRRGGBB
	Background uint32 // 0xRRGGBB
	Keymap     Keymap
	FrameRate  int // frames per second; 0 runs unpaced
	MaxFrames  int // headless only; 0 runs until the program stops
}

func DefaultOptions() Options {
	return Options{
		Scale:      16,
		Foreground: 0xbea700,
		Background: 0x000000,
		Keymap:     DefaultKeymap(),
		FrameRate:  vm.FrameRate,
	}
}

// Open creates the display for the named backend.
func Open(backend string, opts Options) (Display, error) {
	if opts.Keymap == nil {
		opts.Keymap = DefaultKeymap()
	}

	switch backend {
	case BackendSDL, "":
		return NewSDL(opts)
	case BackendTerminal:
		return NewTerminal(opts)
	case BackendHeadless:
		return NewHeadless(opts), nil
	default:
		return nil, fmt.Errorf("unknown display backend %q", backend)
	}
}

// Pacer spaces calls to Wait evenly at a fixed rate. A Pacer created with a
// rate of zero never sleeps.
type Pacer struct {
	interval time.Duration
	next     time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewPacer(rate int) *Pacer {
	p := &Pacer{
		now:   time.Now,
		sleep: time.Sleep,
	}
	if rate > 0 {
		p.interval = time.Second / time.Duration(rate)
	}
	return p
}

// Wait blocks until the next frame boundary. After a stall longer than one
// frame the schedule restarts from now instead of rushing to catch up.
func (p *Pacer) Wait() {
	if p.interval == 0 {
		return
	}

	now := p.now()
	if p.next.IsZero() || now.Sub(p.next) > p.interval {
		p.next = now
	}

	p.next = p.next.Add(p.interval)
	if d := p.next.Sub(now); d > 0 {
		p.sleep(d)
	}
}

func rgb(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}
