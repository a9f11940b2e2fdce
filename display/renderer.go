package display

import (
	"github.com/fogleman/gg"

	"github.com/khaledhikmat/rtnet-go/model"
)

const (
	lineHeight = 18.0
	margin     = 10.0
)

// Area is where an Op may draw: the banner above the frame, or the top of
// the frame itself when there is no banner.
type Area struct {
	Width  float64
	Height float64
}

// Op draws one overlay element.
type Op interface {
	Draw(dc *gg.Context, area Area, result model.Result)
}

// Renderer produces the annotated frame: a banner of BorderSize pixels
// with the title on top of a copy of the raw frame, then each Op in order.
type Renderer struct {
	title  string
	border int
	ops    []Op
}

func NewRenderer(title string, border int, ops ...Op) *Renderer {
	if border < 0 {
		border = 0
	}
	return &Renderer{title: title, border: border, ops: ops}
}

// Render never modifies raw.
func (r *Renderer) Render(raw *model.Frame, result model.Result) *model.Frame {
	if raw.Empty() {
		return raw.Clone()
	}

	dc := gg.NewContext(raw.Width, raw.Height+r.border)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.DrawImage(raw.RGBA(), 0, r.border)

	area := Area{Width: float64(raw.Width), Height: float64(r.border)}
	if r.border == 0 {
		area.Height = float64(raw.Height)
	}

	if r.title != "" {
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(r.title, area.Width/2, lineHeight, 0.5, 0.5)
	}

	if result != nil {
		for _, op := range r.ops {
			op.Draw(dc, area, result)
		}
	}

	out := model.FrameFromImage(dc.Image())
	out.Index = raw.Index
	out.Timestamp = raw.Timestamp
	return out
}

// Show implements pipeline.Display without a window, e.g. for headless recording.
func (r *Renderer) Show(raw *model.Frame, result model.Result) (*model.Frame, error) {
	return r.Render(raw, result), nil
}

func (r *Renderer) Close() error {
	return nil
}
