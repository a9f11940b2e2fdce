package pipeline

import (
	"context"

	"github.com/khaledhikmat/rtnet-go/model"
)

// FrameSource delivers captures already scaled for the model and for display.
// Next returns model.ErrEndOfStream when the file ends or the camera disconnects.
type FrameSource interface {
	Start(ctx context.Context) error
	Next(ctx context.Context) (model.Capture, error)
	Stop() error
}

// Model is the opaque inference capability. It is only ever called from
// the inference worker goroutine, one call at a time.
type Model interface {
	Predict(ctx context.Context, clip model.Clip) ([]float32, error)
}

// Inferencer is the asynchronous side of the pipeline; InferenceWorker implements it.
type Inferencer interface {
	Start(ctx context.Context)
	Stop()
	SubmitClip(clip model.Clip) error
	TryGetPrediction() (model.Prediction, bool)
	Stats() model.WorkerStats
}

// PostProcessor turns a prediction into named outputs. Implementations may
// keep state across calls (e.g. rep counts).
type PostProcessor interface {
	Process(p model.Prediction) map[string]any
}

// PostProcessorFunc adapts a function to PostProcessor.
type PostProcessorFunc func(p model.Prediction) map[string]any

func (f PostProcessorFunc) Process(p model.Prediction) map[string]any {
	return f(p)
}

// Display renders an annotated copy of raw. raw must not be modified.
type Display interface {
	Show(raw *model.Frame, result model.Result) (*model.Frame, error)
	Close() error
}

// CancelSignal is polled once per tick, e.g. an Esc key press.
type CancelSignal interface {
	Cancelled() bool
}

type VideoWriter interface {
	Write(frame *model.Frame) error
	Close() error
}

type VideoWriterOpener interface {
	Open(path string, fps float64, width, height int) (VideoWriter, error)
}

type cancelFunc func() bool

func (f cancelFunc) Cancelled() bool { return f() }

// CancelWhen adapts a predicate to CancelSignal.
func CancelWhen(fn func() bool) CancelSignal {
	return cancelFunc(fn)
}
