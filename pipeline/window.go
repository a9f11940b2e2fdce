package pipeline

import (
	"math/rand"

	"github.com/bmharper/ringbuffer"

	"github.com/khaledhikmat/rtnet-go/model"
)

// Warm-up contents of the window before it has been filled once.
const (
	FillZero   = "zero"
	FillRandom = "random"
)

// ClipWindow keeps the last Steps frames. Every push yields a full clip;
// every Steps-th push marks the clip ready for inference.
type ClipWindow struct {
	steps  int
	width  int
	height int
	ring   ringbuffer.RingP[*model.Frame]
	pushes int
	ready  int
}

func NewClipWindow(steps, width, height int, fill string) *ClipWindow {
	if steps <= 0 {
		steps = 1
	}

	w := &ClipWindow{
		steps:  steps,
		width:  width,
		height: height,
		ring:   ringbuffer.NewRingP[*model.Frame](ringSize(steps)),
	}

	for i := 0; i < steps; i++ {
		f := model.NewFrame(width, height)
		f.Index = i - steps
		if fill == FillRandom {
			for j := range f.Pix {
				f.Pix[j] = uint8(rand.Intn(256))
			}
		}
		w.ring.Add(f)
	}
	return w
}

// Push appends frame, evicting the oldest, and returns the resulting clip.
func (w *ClipWindow) Push(frame *model.Frame) (model.Clip, bool) {
	w.ring.Add(frame)
	w.pushes++

	ready := w.pushes%w.steps == 0
	if ready {
		w.ready++
	}

	return w.clip(), ready
}

func (w *ClipWindow) clip() model.Clip {
	// the ring is pre-filled with steps frames, so it never holds fewer
	frames := make([]*model.Frame, w.steps)
	start := w.ring.Len() - w.steps
	for i := range frames {
		frames[i] = w.ring.Peek(start + i)
	}

	return model.Clip{
		Frames: frames,
		Width:  w.width,
		Height: w.height,
		Seq:    w.pushes,
	}
}

// ringSize returns the RingP size argument able to hold steps frames:
// RingP holds one less than its size, which must be a power of two.
func ringSize(steps int) int {
	size := 2
	for size < steps+1 {
		size <<= 1
	}
	return size
}

func (w *ClipWindow) Steps() int  { return w.steps }
func (w *ClipWindow) Pushes() int { return w.pushes }
func (w *ClipWindow) Ready() int  { return w.ready }
