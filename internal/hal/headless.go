package hal

import "github.com/kapitanov/chip8emu/internal/vm"

type keyEvent struct {
	key  vm.Key
	down bool
}

// Headless runs without a window. It keeps the last drawn frame and can
// replay scheduled key transitions.
type Headless struct {
	maxFrames int
	frames    int
	last      vm.Framebuffer
	events    map[int][]keyEvent
	pacer     *Pacer
}

func NewHeadless(opts Options) *Headless {
	return &Headless{
		maxFrames: opts.MaxFrames,
		events:    make(map[int][]keyEvent),
		pacer:     NewPacer(opts.FrameRate),
	}
}

// Schedule delivers a key transition at the input poll of the given frame.
func (h *Headless) Schedule(frame int, key vm.Key, down bool) {
	h.events[frame] = append(h.events[frame], keyEvent{key: key, down: down})
}

func (h *Headless) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	if h.maxFrames > 0 && h.frames >= h.maxFrames {
		return ErrQuit
	}

	for _, e := range h.events[h.frames] {
		if e.down {
			keyDown(e.key)
		} else {
			keyUp(e.key)
		}
	}
	delete(h.events, h.frames)

	return nil
}

func (h *Headless) Draw(gfx []uint8) error {
	copy(h.last[:], gfx)
	return nil
}

func (h *Headless) WaitForNextFrame() error {
	h.pacer.Wait()
	h.frames++
	return nil
}

func (h *Headless) Shutdown() {}

func (h *Headless) Frames() int {
	return h.frames
}

// Screen returns the last frame passed to Draw.
func (h *Headless) Screen() vm.Framebuffer {
	return h.last
}
