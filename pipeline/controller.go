package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

var ErrControllerUsed = errors.New("controller already ran")

type ControllerState int

const (
	ControllerCreated ControllerState = iota
	ControllerRunning
	ControllerStopped
)

// Exit reasons recorded in RunStats
const (
	ExitEndOfStream = "end of stream"
	ExitCancelled   = "cancelled"
	ExitUserCancel  = "user cancel"
	ExitError       = "error"
)

type ControllerOptions struct {
	Mode        string
	StepSize    int
	ModelWidth  int
	ModelHeight int
	WarmupFill  string
	Recorder    *Recorder
	Cancel      CancelSignal
	// OnResult sees every freshly post-processed result, on the loop goroutine.
	OnResult func(model.Result)
}

// Controller drives one run: capture, clip assembly, asynchronous inference,
// post-processing, display and recording. Cleanup runs exactly once whatever
// ends the loop: end of stream, cancellation or a failure.
type Controller struct {
	runID    string
	mode     string
	source   FrameSource
	window   *ClipWindow
	worker   Inferencer
	chain    *Chain
	display  Display
	recorder *Recorder
	cancel   CancelSignal
	onResult func(model.Result)

	mu       sync.Mutex
	state    ControllerState
	stopOnce sync.Once
	stopErr  error

	frames      int
	submitted   int
	predictions int
	lastSeq     uint64
	lastResult  model.Result
	startTime   time.Time
	exitReason  string
}

func NewController(source FrameSource, worker Inferencer, chain *Chain, display Display, opts ControllerOptions) *Controller {
	if chain == nil {
		chain = NewChain()
	}
	return &Controller{
		runID:    uuid.NewString(),
		mode:     opts.Mode,
		source:   source,
		window:   NewClipWindow(opts.StepSize, opts.ModelWidth, opts.ModelHeight, opts.WarmupFill),
		worker:   worker,
		chain:    chain,
		display:  display,
		recorder: opts.Recorder,
		cancel:   opts.Cancel,
		onResult: opts.OnResult,
	}
}

func (c *Controller) RunID() string { return c.runID }

func (c *Controller) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run blocks until the run ends. It returns nil on end of stream or
// cancellation, and the loop error (after cleanup) otherwise.
func (c *Controller) Run(ctx context.Context) (err error) {
	c.mu.Lock()
	if c.state != ControllerCreated {
		c.mu.Unlock()
		return ErrControllerUsed
	}
	c.state = ControllerRunning
	c.startTime = time.Now()
	c.mu.Unlock()

	lgr.Logger.Info("controller starting....",
		slog.String("runID", c.runID),
		slog.String("mode", c.mode),
		slog.Int("stepSize", c.window.Steps()),
		slog.Bool("recording", c.recorder.Enabled()),
	)

	defer func() {
		if stopErr := c.stopInference(); stopErr != nil {
			if err == nil {
				err = stopErr
			} else {
				lgr.Logger.Error("cleanup failed after loop error", slog.Any("error", stopErr))
			}
		}
		if err != nil {
			c.exitReason = ExitError
		}

		stats := c.Stats()
		lgr.Logger.Info("controller stopped",
			slog.String("runID", c.runID),
			slog.String("reason", stats.ExitReason),
			slog.Int("frames", stats.Frames),
			slog.Int("clipsReady", stats.ClipsReady),
			slog.Int("predictions", stats.Predictions),
			slog.Int("fps", stats.FPS),
		)
	}()

	if err := c.startInference(ctx); err != nil {
		return err
	}

	for {
		stop, reason, err := c.safeTick(ctx)
		if err != nil {
			return model.GenError(model.RuntimeLoopError, err,
				map[string]interface{}{"frame": c.frames, "runID": c.runID},
				"pipeline loop failed")
		}
		if stop {
			c.exitReason = reason
			return nil
		}
	}
}

func (c *Controller) startInference(ctx context.Context) error {
	lgr.Logger.Info("starting inference", slog.String("runID", c.runID))

	if err := c.source.Start(ctx); err != nil {
		if !errors.Is(err, model.ErrSourceUnavailable) {
			err = xerrors.Errorf("%v: %w", err, model.ErrSourceUnavailable)
		}
		return err
	}

	c.worker.Start(ctx)
	return nil
}

// stopInference tears everything down once. Every step is attempted even
// if an earlier one fails.
func (c *Controller) stopInference() error {
	c.stopOnce.Do(func() {
		lgr.Logger.Info("stopping inference", slog.String("runID", c.runID))

		var errs []error
		if err := c.source.Stop(); err != nil {
			errs = append(errs, xerrors.Errorf("stopping source: %w", err))
		}

		c.worker.Stop()

		if err := c.recorder.Release(); err != nil {
			errs = append(errs, err)
		}

		if c.display != nil {
			if err := c.display.Close(); err != nil {
				errs = append(errs, xerrors.Errorf("closing display: %w", err))
			}
		}

		c.mu.Lock()
		c.state = ControllerStopped
		c.mu.Unlock()

		c.stopErr = errors.Join(errs...)
	})
	return c.stopErr
}

func (c *Controller) safeTick(ctx context.Context) (stop bool, reason string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in pipeline loop: %v", r)
		}
	}()
	return c.tick(ctx)
}

func (c *Controller) tick(ctx context.Context) (bool, string, error) {
	if ctx.Err() != nil {
		return true, ExitCancelled, nil
	}

	capture, err := c.source.Next(ctx)
	if errors.Is(err, model.ErrEndOfStream) {
		return true, ExitEndOfStream, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return true, ExitCancelled, nil
		}
		return false, "", xerrors.Errorf("reading frame: %w", err)
	}
	c.frames++

	clip, ready := c.window.Push(capture.Model)
	if ready {
		if err := c.worker.SubmitClip(clip); err != nil {
			return false, "", xerrors.Errorf("submitting clip %d: %w", clip.Seq, err)
		}
		c.submitted++
	}

	// stale predictions reuse the last result so stateful processors
	// only ever see each prediction once
	if p, ok := c.worker.TryGetPrediction(); ok && p.Seq != c.lastSeq {
		c.lastSeq = p.Seq
		c.lastResult = c.chain.Apply(p)
		c.predictions++
		if c.onResult != nil {
			c.onResult(c.lastResult)
		}
	}

	annotated := capture.Display
	if c.display != nil {
		annotated, err = c.display.Show(capture.Display, c.lastResult)
		if err != nil {
			return false, "", xerrors.Errorf("showing frame: %w", err)
		}
	}

	if err := c.recorder.Write(annotated, capture.Display); err != nil {
		if !model.IsProcessorError(err, model.RecorderFailure) {
			return false, "", err
		}
		lgr.Logger.Error("recorder unavailable, continuing without recording", slog.Any("error", err))
	}

	if c.cancel != nil && c.cancel.Cancelled() {
		return true, ExitUserCancel, nil
	}
	return false, "", nil
}

func (c *Controller) Stats() model.RunStats {
	var uptime time.Duration
	if !c.startTime.IsZero() {
		uptime = time.Since(c.startTime)
	}
	fps := 0
	if uptime > 0 {
		fps = int(float64(c.frames) / uptime.Seconds())
	}

	return model.RunStats{
		RunID:       c.runID,
		Mode:        c.mode,
		Frames:      c.frames,
		ClipsReady:  c.window.Ready(),
		Submitted:   c.submitted,
		Predictions: c.predictions,
		Recorded:    c.recorder.Frames(),
		FPS:         fps,
		Uptime:      int64(uptime.Seconds()),
		ExitReason:  c.exitReason,
		Worker:      c.worker.Stats(),
		Timestamp:   time.Now().Unix(),
	}
}
