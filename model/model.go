package model

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrSourceUnavailable is returned when neither the camera nor the file could be opened.
	ErrSourceUnavailable = errors.New("video source unavailable")
	// ErrEndOfStream marks normal termination of a frame source. It is never a failure.
	ErrEndOfStream = errors.New("end of stream")
)

// Processor names used in CustomError
const (
	InferenceFailure = "inference_worker"
	RuntimeLoopError = "controller_loop"
	RecorderFailure  = "recorder"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

// IsProcessorError reports whether err carries a CustomError raised by proc.
func IsProcessorError(err error, proc string) bool {
	var ce CustomError
	if errors.As(err, &ce) {
		return ce.Processor == proc
	}
	return false
}

type WorkerStats struct {
	Name           string  `json:"name"`
	Processed      int     `json:"processed"`
	Failures       int     `json:"failures"`
	Overwritten    int     `json:"overwritten"`
	AvgInferenceMS float64 `json:"avgInferenceMs"`
	MaxInferenceMS float64 `json:"maxInferenceMs"`
	Uptime         int64   `json:"uptime"`
	Timestamp      int64   `json:"timestamp"`
}

type RunStats struct {
	RunID       string      `json:"runId"`
	Mode        string      `json:"mode"`
	Frames      int         `json:"frames"`
	ClipsReady  int         `json:"clipsReady"`
	Submitted   int         `json:"submitted"`
	Predictions int         `json:"predictions"`
	Recorded    int         `json:"recorded"`
	FPS         int         `json:"fps"`
	Uptime      int64       `json:"uptime"`
	ExitReason  string      `json:"exitReason"`
	Worker      WorkerStats `json:"worker"`
	Timestamp   int64       `json:"timestamp"`
}
