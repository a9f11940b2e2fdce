package camera

import (
	"sync/atomic"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/display"
	"github.com/khaledhikmat/rtnet-go/model"
)

const escKey = 27

// Window shows annotated frames in an OpenCV window. Pressing Esc trips
// its cancel signal. Must be used from the goroutine that created it.
type Window struct {
	renderer  *display.Renderer
	window    *gocv.Window
	cancelled atomic.Bool
}

func NewWindow(title string, renderer *display.Renderer) *Window {
	if title == "" {
		title = "rtnet"
	}
	return &Window{
		renderer: renderer,
		window:   gocv.NewWindow(title),
	}
}

func (w *Window) Show(raw *model.Frame, result model.Result) (*model.Frame, error) {
	annotated := w.renderer.Render(raw, result)

	mat, err := frameToMat(annotated)
	if err != nil {
		return nil, xerrors.Errorf("preparing frame for display: %w", err)
	}
	defer mat.Close()

	w.window.IMShow(mat)
	if w.window.WaitKey(1) == escKey {
		w.cancelled.Store(true)
	}
	return annotated, nil
}

func (w *Window) Cancelled() bool {
	return w.cancelled.Load()
}

func (w *Window) Close() error {
	return w.window.Close()
}
