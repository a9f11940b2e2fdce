package model

import (
	"image"
	"time"
)

// Frame is a decoded RGB image, 3 bytes per pixel, row-major.
// Frames are treated as immutable once handed to the next stage.
type Frame struct {
	Width     int
	Height    int
	Pix       []byte
	Index     int
	Timestamp time.Time
}

func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:     width,
		Height:    height,
		Pix:       make([]byte, width*height*3),
		Timestamp: time.Now(),
	}
}

func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := *f
	c.Pix = make([]byte, len(f.Pix))
	copy(c.Pix, f.Pix)
	return &c
}

func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*3
}

// RGBA converts the frame into a new image.RGBA.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i+2 < len(f.Pix) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f.Pix[i]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// FrameFromImage copies any image into a new RGB frame.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		for i, j := 0, 0; i+2 < len(f.Pix) && j+3 < len(rgba.Pix); i, j = i+3, j+4 {
			f.Pix[i] = rgba.Pix[j]
			f.Pix[i+1] = rgba.Pix[j+1]
			f.Pix[i+2] = rgba.Pix[j+2]
		}
		return f
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			f.Pix[i] = uint8(r >> 8)
			f.Pix[i+1] = uint8(g >> 8)
			f.Pix[i+2] = uint8(bl >> 8)
			i += 3
		}
	}
	return f
}

// Capture is one read from a source at two scales.
type Capture struct {
	Model   *Frame
	Display *Frame
}

// Clip is a temporal stack of exactly Steps frames, oldest first.
type Clip struct {
	Frames []*Frame
	Width  int
	Height int
	Seq    int
}

func (c Clip) Steps() int {
	return len(c.Frames)
}

// Shape returns (1, steps, height, width, 3).
func (c Clip) Shape() []int {
	return []int{1, len(c.Frames), c.Height, c.Width, 3}
}

// Tensor flattens the clip in Shape order. Missing frames are zeros.
func (c Clip) Tensor() []float32 {
	per := c.Width * c.Height * 3
	out := make([]float32, len(c.Frames)*per)
	for i, f := range c.Frames {
		if f.Empty() {
			continue
		}
		base := i * per
		for j := 0; j < per && j < len(f.Pix); j++ {
			out[base+j] = float32(f.Pix[j])
		}
	}
	return out
}

// Prediction is the raw model output. Seq is assigned by the inference worker.
type Prediction struct {
	Values   []float32
	Seq      uint64
	ClipSeq  int
	Duration time.Duration
	At       time.Time
}

// Result is the merged post-processor output. The raw prediction is under "prediction".
type Result map[string]any

const PredictionKey = "prediction"

func (r Result) Prediction() (Prediction, bool) {
	if r == nil {
		return Prediction{}, false
	}
	p, ok := r[PredictionKey].(Prediction)
	return p, ok
}
