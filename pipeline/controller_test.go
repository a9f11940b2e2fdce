package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/rtnet-go/model"
)

// spyWorker counts lifecycle calls and records submitted clips.
type spyWorker struct {
	*InferenceWorker
	starts    atomic.Int32
	stops     atomic.Int32
	mu        sync.Mutex
	submitted []int
}

func newSpyWorker(m Model) *spyWorker {
	return &spyWorker{InferenceWorker: NewInferenceWorker(m)}
}

func (s *spyWorker) Start(ctx context.Context) {
	s.starts.Add(1)
	s.InferenceWorker.Start(ctx)
}

func (s *spyWorker) Stop() {
	s.stops.Add(1)
	s.InferenceWorker.Stop()
}

func (s *spyWorker) SubmitClip(clip model.Clip) error {
	s.mu.Lock()
	s.submitted = append(s.submitted, clip.Seq)
	s.mu.Unlock()
	return s.InferenceWorker.SubmitClip(clip)
}

type stubDisplay struct {
	border  int
	shown   int
	results []model.Result
	closes  int
	panicAt int
}

func (d *stubDisplay) Show(raw *model.Frame, result model.Result) (*model.Frame, error) {
	d.shown++
	if d.panicAt == d.shown {
		panic("renderer crashed")
	}
	d.results = append(d.results, result)
	out := model.NewFrame(raw.Width, raw.Height+d.border)
	return out, nil
}

func (d *stubDisplay) Close() error {
	d.closes++
	return nil
}

type failingSource struct {
	stops int
}

func (f *failingSource) Start(context.Context) error {
	return errors.New("camera 0 not found")
}

func (f *failingSource) Next(context.Context) (model.Capture, error) {
	return model.Capture{}, errors.New("not started")
}

func (f *failingSource) Stop() error {
	f.stops++
	return nil
}

func newTestController(src FrameSource, w Inferencer, chain *Chain, d Display, opts ControllerOptions) *Controller {
	if opts.StepSize == 0 {
		opts.StepSize = 4
	}
	opts.ModelWidth, opts.ModelHeight = 4, 4
	return NewController(src, w, chain, d, opts)
}

func TestControllerTenFramesStepFour(t *testing.T) {
	src := NewSyntheticSource(10, 4, 4, 8, 6)
	worker := newSpyWorker(&stubModel{})
	display := &stubDisplay{}

	c := newTestController(src, worker, nil, display, ControllerOptions{})
	require.NoError(t, c.Run(context.Background()))

	stats := c.Stats()
	assert.Equal(t, 10, stats.Frames)
	assert.Equal(t, 2, stats.ClipsReady)
	assert.Equal(t, []int{4, 8}, worker.submitted)
	assert.LessOrEqual(t, stats.Predictions, 2)
	assert.Equal(t, ExitEndOfStream, stats.ExitReason)

	assert.Equal(t, 1, src.StopCalls())
	assert.Equal(t, int32(1), worker.stops.Load())
	assert.Equal(t, 1, display.closes)
	assert.Equal(t, 10, display.shown)
	assert.Equal(t, ControllerStopped, c.State())
}

func TestControllerOddStepSize(t *testing.T) {
	for _, steps := range []int{1, 3, 5} {
		src := NewSyntheticSource(15, 4, 4, 8, 6)
		worker := newSpyWorker(&stubModel{})

		c := newTestController(src, worker, nil, &stubDisplay{}, ControllerOptions{StepSize: steps})
		require.NoError(t, c.Run(context.Background()), "steps=%d", steps)

		stats := c.Stats()
		assert.Equal(t, 15, stats.Frames)
		assert.Equal(t, 15/steps, stats.ClipsReady, "steps=%d", steps)
		assert.Len(t, worker.submitted, 15/steps)
	}
}

func TestControllerPredictionCountDependsOnLatency(t *testing.T) {
	for _, delay := range []time.Duration{0, 5 * time.Millisecond, 200 * time.Millisecond} {
		src := NewSyntheticSource(10, 4, 4, 8, 6)
		src.Interval = 2 * time.Millisecond
		worker := newSpyWorker(&stubModel{delay: delay})

		c := newTestController(src, worker, nil, &stubDisplay{}, ControllerOptions{})
		require.NoError(t, c.Run(context.Background()))

		stats := c.Stats()
		assert.Equal(t, 2, stats.ClipsReady)
		assert.GreaterOrEqual(t, stats.Predictions, 0)
		assert.LessOrEqual(t, stats.Predictions, 2)
		assert.Equal(t, int32(1), worker.stops.Load())
	}
}

func TestControllerInjectedErrorStillCleansUp(t *testing.T) {
	injected := errors.New("decoder blew up")
	src := NewSyntheticSource(10, 4, 4, 8, 6)
	src.FailAt = 5
	src.FailErr = injected
	worker := newSpyWorker(&stubModel{})
	opener := &memOpener{}
	recorder := NewRecorder(opener, "out.mp4", 16)

	c := newTestController(src, worker, nil, &stubDisplay{}, ControllerOptions{Recorder: recorder})
	err := c.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, injected)
	assert.True(t, model.IsProcessorError(err, model.RuntimeLoopError))

	// cleanup ran before the error reached us
	assert.Equal(t, 1, src.StopCalls())
	assert.Equal(t, int32(1), worker.stops.Load())
	assert.Equal(t, WorkerStopped, worker.State())
	require.Len(t, opener.writers, 2)
	assert.Equal(t, 1, opener.writers[0].closes)
	assert.Equal(t, 1, opener.writers[1].closes)
	assert.Equal(t, 4, recorder.Frames())
	assert.Equal(t, ExitError, c.Stats().ExitReason)
}

func TestControllerPanicBecomesLoopError(t *testing.T) {
	src := NewSyntheticSource(10, 4, 4, 8, 6)
	worker := newSpyWorker(&stubModel{})
	display := &stubDisplay{panicAt: 3}

	c := newTestController(src, worker, nil, display, ControllerOptions{})
	err := c.Run(context.Background())

	require.Error(t, err)
	assert.True(t, model.IsProcessorError(err, model.RuntimeLoopError))
	assert.Contains(t, err.Error(), "renderer crashed")
	assert.Equal(t, 1, src.StopCalls())
	assert.Equal(t, int32(1), worker.stops.Load())
	assert.Equal(t, 1, display.closes)
}

func TestControllerSourceUnavailable(t *testing.T) {
	src := &failingSource{}
	worker := newSpyWorker(&stubModel{})

	c := newTestController(src, worker, nil, nil, ControllerOptions{})
	err := c.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
	assert.Equal(t, int32(0), worker.starts.Load())
	assert.Equal(t, 1, src.stops)
	assert.Equal(t, int32(1), worker.stops.Load())
}

func TestControllerUserCancel(t *testing.T) {
	src := NewSyntheticSource(100, 4, 4, 8, 6)
	worker := newSpyWorker(&stubModel{})
	display := &stubDisplay{}

	c := newTestController(src, worker, nil, display, ControllerOptions{
		Cancel: CancelWhen(func() bool { return display.shown >= 3 }),
	})
	require.NoError(t, c.Run(context.Background()))

	stats := c.Stats()
	assert.Equal(t, 3, stats.Frames)
	assert.Equal(t, ExitUserCancel, stats.ExitReason)
	assert.Equal(t, 1, src.StopCalls())
}

func TestControllerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewSyntheticSource(1000, 4, 4, 8, 6)
	src.Interval = time.Millisecond
	worker := newSpyWorker(&stubModel{})

	c := newTestController(src, worker, nil, &stubDisplay{}, ControllerOptions{})
	time.AfterFunc(20*time.Millisecond, cancel)

	require.NoError(t, c.Run(ctx))
	assert.Equal(t, ExitCancelled, c.Stats().ExitReason)
	assert.Less(t, c.Stats().Frames, 1000)
	assert.Equal(t, 1, src.StopCalls())
}

func TestControllerRunsOnce(t *testing.T) {
	src := NewSyntheticSource(2, 4, 4, 8, 6)
	c := newTestController(src, newSpyWorker(&stubModel{}), nil, nil, ControllerOptions{})
	require.NoError(t, c.Run(context.Background()))
	assert.ErrorIs(t, c.Run(context.Background()), ErrControllerUsed)
	assert.Equal(t, 1, src.StopCalls())
}

func TestControllerProcessesEachPredictionOnce(t *testing.T) {
	src := NewSyntheticSource(40, 4, 4, 8, 6)
	src.Interval = time.Millisecond
	worker := newSpyWorker(&stubModel{delay: 3 * time.Millisecond})
	proc := &counterProc{key: "calls"}
	display := &stubDisplay{}
	var fresh []model.Result

	c := newTestController(src, worker, NewChain(proc), display, ControllerOptions{
		OnResult: func(r model.Result) { fresh = append(fresh, r) },
	})
	require.NoError(t, c.Run(context.Background()))

	stats := c.Stats()
	assert.Equal(t, stats.Predictions, len(fresh))
	assert.Equal(t, 10, stats.ClipsReady)

	// displayed results are either nil (no prediction yet) or repeats of
	// a fresh result; stale ticks never re-run the chain
	var seqs []uint64
	for _, r := range fresh {
		p, ok := r.Prediction()
		require.True(t, ok)
		seqs = append(seqs, p.Seq)
	}
	for i := 1; i < len(seqs); i++ {
		assert.Greater(t, seqs[i], seqs[i-1])
	}
	for _, r := range display.results {
		if r == nil {
			continue
		}
		p, _ := r.Prediction()
		assert.Contains(t, seqs, p.Seq)
	}
}

func TestControllerRecorderSizedFromFirstPair(t *testing.T) {
	src := NewSyntheticSource(6, 4, 4, 8, 6)
	opener := &memOpener{}
	recorder := NewRecorder(opener, "run.mp4", 16)

	c := newTestController(src, newSpyWorker(&stubModel{}), nil, &stubDisplay{border: 10}, ControllerOptions{Recorder: recorder})
	require.NoError(t, c.Run(context.Background()))

	require.Len(t, opener.writers, 2)
	assert.Equal(t, 16, opener.writers[0].height)
	assert.Equal(t, 6, opener.writers[1].height)
	assert.Equal(t, "run_raw.mp4", opener.writers[1].path)
	assert.Equal(t, 6, opener.writers[0].frames)
	assert.Equal(t, 6, c.Stats().Recorded)
}

func TestControllerEmptySourceNeverOpensRecorder(t *testing.T) {
	src := NewSyntheticSource(0, 4, 4, 8, 6)
	opener := &memOpener{}
	recorder := NewRecorder(opener, "run.mp4", 16)

	c := newTestController(src, newSpyWorker(&stubModel{}), nil, &stubDisplay{}, ControllerOptions{Recorder: recorder})
	require.NoError(t, c.Run(context.Background()))

	assert.Empty(t, opener.writers)
	assert.False(t, recorder.Opened())
}

func TestControllerRecorderOpenFailureKeepsRunning(t *testing.T) {
	src := NewSyntheticSource(5, 4, 4, 8, 6)
	opener := &memOpener{failOn: 1}
	recorder := NewRecorder(opener, "run.mp4", 16)

	c := newTestController(src, newSpyWorker(&stubModel{}), nil, &stubDisplay{}, ControllerOptions{Recorder: recorder})
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 5, c.Stats().Frames)
	assert.Equal(t, 0, c.Stats().Recorded)
}
