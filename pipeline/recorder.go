package pipeline

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

// RawPath inserts "_raw" before the extension: out/run.mp4 -> out/run_raw.mp4
func RawPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_raw" + ext
}

type recorderState struct {
	annotated VideoWriter
	raw       VideoWriter
}

// Recorder writes the annotated and raw streams to two files. The writers
// are opened lazily from the first frame pair, so their sizes match what
// is actually displayed. A recorder with an empty path records nothing.
type Recorder struct {
	opener VideoWriterOpener
	path   string
	fps    float64

	state    *recorderState
	failed   bool
	released bool
	frames   int
}

func NewRecorder(opener VideoWriterOpener, path string, fps float64) *Recorder {
	return &Recorder{
		opener: opener,
		path:   path,
		fps:    fps,
	}
}

func (r *Recorder) Enabled() bool {
	return r != nil && r.path != "" && r.opener != nil
}

// Opened reports whether the writers were created.
func (r *Recorder) Opened() bool {
	return r != nil && r.state != nil
}

func (r *Recorder) Frames() int {
	if r == nil {
		return 0
	}
	return r.frames
}

// Write appends one frame to each stream. If the writers cannot be opened
// the error is returned once and recording stays off for the rest of the run.
func (r *Recorder) Write(annotated, raw *model.Frame) error {
	if !r.Enabled() || r.failed || r.released {
		return nil
	}

	if r.state == nil {
		state, err := r.open(annotated, raw)
		if err != nil {
			r.failed = true
			return model.GenError(model.RecorderFailure, err, map[string]interface{}{"path": r.path}, "opening video writers")
		}
		r.state = state
	}

	if err := r.state.annotated.Write(annotated); err != nil {
		return xerrors.Errorf("writing annotated frame: %w", err)
	}
	if err := r.state.raw.Write(raw); err != nil {
		return xerrors.Errorf("writing raw frame: %w", err)
	}
	r.frames++
	return nil
}

func (r *Recorder) open(annotated, raw *model.Frame) (*recorderState, error) {
	if annotated.Empty() || raw.Empty() {
		return nil, xerrors.New("cannot size video writers from an empty frame")
	}

	a, err := r.opener.Open(r.path, r.fps, annotated.Width, annotated.Height)
	if err != nil {
		return nil, xerrors.Errorf("opening %s: %w", r.path, err)
	}

	rawPath := RawPath(r.path)
	rw, err := r.opener.Open(rawPath, r.fps, raw.Width, raw.Height)
	if err != nil {
		_ = a.Close()
		return nil, xerrors.Errorf("opening %s: %w", rawPath, err)
	}

	lgr.Logger.Info("recorder opened",
		slog.String("annotated", r.path),
		slog.String("raw", rawPath),
		slog.Int("width", annotated.Width),
		slog.Int("height", annotated.Height),
		slog.Float64("fps", r.fps),
	)

	return &recorderState{annotated: a, raw: rw}, nil
}

// Release closes both writers. Safe to call when nothing was opened, and
// safe to call more than once.
func (r *Recorder) Release() error {
	if r == nil || r.released {
		return nil
	}
	r.released = true

	if r.state == nil {
		return nil
	}

	var errs []error
	if err := r.state.annotated.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.state.raw.Close(); err != nil {
		errs = append(errs, err)
	}

	lgr.Logger.Info("recorder released", slog.Int("frames", r.frames))

	if len(errs) > 0 {
		return xerrors.Errorf("releasing recorder: %w", errors.Join(errs...))
	}
	return nil
}
