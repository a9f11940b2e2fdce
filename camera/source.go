package camera

import (
	"context"
	"image"
	"log/slog"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

// Source reads a camera or a video file and delivers every capture at the
// model size and at the display size.
type Source struct {
	cameraID    int
	path        string
	modelSize   image.Point
	displaySize image.Point
	fps         float64

	capture *gocv.VideoCapture
	img     gocv.Mat
	ticker  *time.Ticker
	frames  int
	errors  int
	started time.Time
}

// NewSource reads from path when it is set, otherwise from cameraID.
func NewSource(cameraID int, path string, modelW, modelH, displayW, displayH int, fps float64) *Source {
	return &Source{
		cameraID:    cameraID,
		path:        path,
		modelSize:   image.Pt(modelW, modelH),
		displaySize: image.Pt(displayW, displayH),
		fps:         fps,
	}
}

func (s *Source) device() interface{} {
	if s.path != "" {
		return s.path
	}
	return s.cameraID
}

func (s *Source) Start(_ context.Context) error {
	capture, err := gocv.OpenVideoCapture(s.device())
	if err != nil {
		return xerrors.Errorf("opening %v: %v: %w", s.device(), err, model.ErrSourceUnavailable)
	}
	if !capture.IsOpened() {
		capture.Close()
		return xerrors.Errorf("opening %v: %w", s.device(), model.ErrSourceUnavailable)
	}

	if s.path == "" && s.fps > 0 {
		capture.Set(gocv.VideoCaptureFPS, s.fps)
	}

	s.capture = capture
	s.img = gocv.NewMat()
	s.started = time.Now()

	// files are paced to the configured rate; cameras pace themselves
	if s.path != "" && s.fps > 0 {
		s.ticker = time.NewTicker(time.Duration(float64(time.Second) / s.fps))
	}

	lgr.Logger.Info("video source opened",
		slog.Any("device", s.device()),
		slog.Int("modelWidth", s.modelSize.X),
		slog.Int("modelHeight", s.modelSize.Y),
		slog.Float64("fps", s.fps),
	)
	return nil
}

func (s *Source) Next(ctx context.Context) (model.Capture, error) {
	if s.capture == nil {
		return model.Capture{}, model.ErrEndOfStream
	}

	if s.ticker != nil {
		select {
		case <-ctx.Done():
			return model.Capture{}, ctx.Err()
		case <-s.ticker.C:
		}
	}

	// a failed read is end of file or a disconnected camera
	if ok := s.capture.Read(&s.img); !ok || s.img.Empty() {
		return model.Capture{}, model.ErrEndOfStream
	}

	now := time.Now()
	modelFrame, err := resizedFrame(s.img, s.modelSize)
	if err != nil {
		s.errors++
		return model.Capture{}, err
	}
	display, err := resizedFrame(s.img, s.displaySize)
	if err != nil {
		s.errors++
		return model.Capture{}, err
	}

	s.frames++
	modelFrame.Index, display.Index = s.frames, s.frames
	modelFrame.Timestamp, display.Timestamp = now, now
	return model.Capture{Model: modelFrame, Display: display}, nil
}

// Stop releases the capture. Safe before Start and when called twice.
func (s *Source) Stop() error {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.capture == nil {
		return nil
	}

	s.img.Close() // Crucial to close the image to avoid memory leaks
	err := s.capture.Close()
	s.capture = nil

	uptime := time.Since(s.started).Seconds()
	fps := 0
	if uptime > 0 {
		fps = int(float64(s.frames) / uptime)
	}
	lgr.Logger.Info("video source closed",
		slog.Any("device", s.device()),
		slog.Int("frames", s.frames),
		slog.Int("errors", s.errors),
		slog.Int("fps", fps),
	)
	return err
}
