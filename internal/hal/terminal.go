package hal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/kapitanov/chip8emu/internal/vm"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminals only report key presses, so a pressed key is released after
// holdFrames frames unless auto-repeat presses it again.
const holdFrames = 15

const (
	keyCtrlC     = 0x03
	keyBackspace = 0x08
	keyEscape    = 0x1b
	keyDelete    = 0x7f
)

// Terminal renders the screen with half-block characters, two pixel rows
// per text row, and reads the keypad from raw stdin.
type Terminal struct {
	fd       int
	oldState *term.State
	out      *bufio.Writer

	input   chan byte
	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once

	keys  map[rune]vm.Key
	held  map[vm.Key]int // key -> frame at which it is released
	frame int

	fg, bg string
	pacer  *Pacer
}

func NewTerminal(opts Options) (*Terminal, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}

	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		if w < vm.ScreenWidth || h < vm.ScreenHeight/2 {
			return nil, fmt.Errorf("terminal is %dx%d, need at least %dx%d", w, h, vm.ScreenWidth, vm.ScreenHeight/2)
		}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		_ = term.Restore(fd, oldState)
		return nil, fmt.Errorf("failed to set nonblocking stdin: %w", err)
	}

	t := newTerminal(os.Stdout, opts)
	t.fd = fd
	t.oldState = oldState

	go t.readLoop()

	// Clear the screen and hide the cursor.
	fmt.Fprint(t.out, "\x1b[2J\x1b[?25l")
	if err := t.out.Flush(); err != nil {
		t.Shutdown()
		return nil, err
	}

	slog.Debug("hal: terminal ready", "fd", fd)
	return t, nil
}

func newTerminal(w io.Writer, opts Options) *Terminal {
	fgR, fgG, fgB := rgb(opts.Foreground)
	bgR, bgG, bgB := rgb(opts.Background)

	return &Terminal{
		fd:     -1,
		out:    bufio.NewWriter(w),
		input:  make(chan byte, 64),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		keys:   opts.Keymap.runes(),
		held:   make(map[vm.Key]int),
		fg:     fmt.Sprintf("\x1b[38;2;%d;%d;%dm", fgR, fgG, fgB),
		bg:     fmt.Sprintf("\x1b[48;2;%d;%d;%dm", bgR, bgG, bgB),
		pacer:  NewPacer(opts.FrameRate),
	}
}

func (t *Terminal) readLoop() {
	defer close(t.done)
	buf := make([]byte, 16)

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		n, err := unix.Read(t.fd, buf)
		for _, b := range buf[:max(n, 0)] {
			select {
			case t.input <- b:
			default:
				// Dropped while the emulator is not polling.
			}
		}

		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			slog.Error("hal: read stdin", "err", err)
			return
		}
	}
}

func (t *Terminal) Shutdown() {
	t.stopped.Do(func() {
		close(t.stopCh)
	})
	if t.fd >= 0 {
		<-t.done
		_ = unix.SetNonblock(t.fd, false)
	}

	fmt.Fprint(t.out, "\x1b[0m\x1b[?25h\r\n")
	if err := t.out.Flush(); err != nil {
		slog.Error("failed to flush terminal", "err", err)
	}

	if t.oldState != nil {
		if err := term.Restore(t.fd, t.oldState); err != nil {
			slog.Error("failed to restore terminal", "err", err)
		}
		t.oldState = nil
	}
}

func (t *Terminal) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	t.frame++

drain:
	for {
		select {
		case b := <-t.input:
			if err := t.processByte(b, keyDown); err != nil {
				return err
			}
		default:
			break drain
		}
	}

	for key, until := range t.held {
		if t.frame >= until {
			delete(t.held, key)
			keyUp(key)
		}
	}

	return nil
}

func (t *Terminal) processByte(b byte, keyDown func(vm.Key)) error {
	switch b {
	case keyCtrlC, keyEscape:
		slog.Debug("hal: exit requested")
		return ErrQuit
	case keyBackspace, keyDelete:
		return ErrReboot
	}

	r := rune(b)
	if 'A' <= r && r <= 'Z' {
		r += 'a' - 'A'
	}

	key, ok := t.keys[r]
	if !ok {
		return nil
	}

	if _, down := t.held[key]; !down {
		keyDown(key)
	}
	t.held[key] = t.frame + holdFrames
	return nil
}

func (t *Terminal) Draw(gfx []uint8) error {
	t.out.WriteString("\x1b[H")
	t.out.WriteString(t.fg)
	t.out.WriteString(t.bg)

	for y := 0; y < vm.ScreenHeight; y += 2 {
		top := gfx[y*vm.ScreenWidth : (y+1)*vm.ScreenWidth]
		bottom := gfx[(y+1)*vm.ScreenWidth : (y+2)*vm.ScreenWidth]

		for x := range top {
			switch {
			case top[x] != 0 && bottom[x] != 0:
				t.out.WriteString("█")
			case top[x] != 0:
				t.out.WriteString("▀")
			case bottom[x] != 0:
				t.out.WriteString("▄")
			default:
				t.out.WriteByte(' ')
			}
		}
		t.out.WriteString("\r\n")
	}

	t.out.WriteString("\x1b[0m")
	return t.out.Flush()
}

func (t *Terminal) WaitForNextFrame() error {
	t.pacer.Wait()
	return nil
}
