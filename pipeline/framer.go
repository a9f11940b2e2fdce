package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

// SyntheticSource generates a fixed number of frames without a camera.
type SyntheticSource struct {
	Frames        int
	ModelWidth    int
	ModelHeight   int
	DisplayWidth  int
	DisplayHeight int
	Random        bool
	Interval      time.Duration

	// FailAt makes Next return FailErr for that 1-based frame index.
	FailAt  int
	FailErr error

	produced  int
	started   atomic.Int32
	stopCalls atomic.Int32
}

func NewSyntheticSource(frames, modelW, modelH, displayW, displayH int) *SyntheticSource {
	return &SyntheticSource{
		Frames:        frames,
		ModelWidth:    modelW,
		ModelHeight:   modelH,
		DisplayWidth:  displayW,
		DisplayHeight: displayH,
	}
}

func (s *SyntheticSource) Start(_ context.Context) error {
	if s.ModelWidth <= 0 || s.ModelHeight <= 0 || s.DisplayWidth <= 0 || s.DisplayHeight <= 0 {
		return xerrors.Errorf("synthetic source with invalid size: %w", model.ErrSourceUnavailable)
	}
	s.started.Add(1)
	lgr.Logger.Info("synthetic source started", slog.Int("frames", s.Frames))
	return nil
}

func (s *SyntheticSource) Next(ctx context.Context) (model.Capture, error) {
	if s.produced >= s.Frames {
		return model.Capture{}, model.ErrEndOfStream
	}

	if s.Interval > 0 {
		select {
		case <-ctx.Done():
			return model.Capture{}, ctx.Err()
		case <-time.After(s.Interval):
		}
	}

	s.produced++
	if s.FailAt > 0 && s.produced == s.FailAt {
		err := s.FailErr
		if err == nil {
			err = xerrors.Errorf("synthetic failure at frame %d", s.produced)
		}
		return model.Capture{}, err
	}

	now := time.Now()
	modelFrame := s.frame(s.ModelWidth, s.ModelHeight, now)
	display := s.frame(s.DisplayWidth, s.DisplayHeight, now)
	return model.Capture{Model: modelFrame, Display: display}, nil
}

func (s *SyntheticSource) frame(w, h int, ts time.Time) *model.Frame {
	f := model.NewFrame(w, h)
	f.Index = s.produced
	f.Timestamp = ts
	if s.Random {
		for i := range f.Pix {
			f.Pix[i] = uint8(rand.Intn(256))
		}
	} else {
		// flat grey that changes with the frame index
		v := uint8(s.produced * 16)
		for i := range f.Pix {
			f.Pix[i] = v
		}
	}
	return f
}

func (s *SyntheticSource) Stop() error {
	s.stopCalls.Add(1)
	return nil
}

func (s *SyntheticSource) Produced() int  { return s.produced }
func (s *SyntheticSource) StopCalls() int { return int(s.stopCalls.Load()) }
