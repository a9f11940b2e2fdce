package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

var ErrWorkerNotRunning = errors.New("inference worker is not running")

type WorkerState int

const (
	WorkerIdle WorkerState = iota
	WorkerRunning
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerRunning:
		return "running"
	case WorkerStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// InferenceWorker owns the model and runs it on a single background goroutine.
//
// Clips go in through a newest-wins Slot and predictions come out through a
// Latest cell, so neither SubmitClip nor TryGetPrediction ever blocks.
// Inference failures are logged and skipped: the previous prediction stays
// current and the pipeline keeps running.
type InferenceWorker struct {
	name   string
	model  Model
	tracer trace.Tracer

	mu     sync.Mutex
	state  WorkerState
	cancel context.CancelFunc
	done   chan struct{}

	clips  *Slot[model.Clip]
	latest Latest[model.Prediction]
	seq    uint64 // written by the worker goroutine only

	statsMu   sync.Mutex
	processed int
	failures  int
	lastErr   error
	inferTime model.TimeAccumulator
	startTime time.Time
}

type WorkerOption func(w *InferenceWorker)

func WithTracer(t trace.Tracer) WorkerOption {
	return func(w *InferenceWorker) {
		w.tracer = t
	}
}

func WithWorkerName(name string) WorkerOption {
	return func(w *InferenceWorker) {
		w.name = name
	}
}

func NewInferenceWorker(m Model, opts ...WorkerOption) *InferenceWorker {
	w := &InferenceWorker{
		name:   "inferenceWorker",
		model:  m,
		tracer: otel.Tracer("github.com/khaledhikmat/rtnet-go/pipeline"),
		clips:  NewSlot[model.Clip](),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *InferenceWorker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start launches the worker goroutine. Only the first call from Idle has an effect.
func (w *InferenceWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != WorkerIdle {
		if w.state == WorkerStopped {
			lgr.Logger.Warn("inference worker already stopped, ignoring start", slog.String("worker", w.name))
		}
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.state = WorkerRunning

	w.statsMu.Lock()
	w.startTime = time.Now()
	w.statsMu.Unlock()

	// a cancelled parent must also wake a worker parked in Take
	context.AfterFunc(runCtx, w.clips.Close)

	go w.loop(runCtx)

	lgr.Logger.Info("inference worker started", slog.String("worker", w.name))
}

// Stop cancels the worker and waits for the loop to exit. An in-flight
// forward pass is allowed to finish. Repeated calls are no-ops.
func (w *InferenceWorker) Stop() {
	w.mu.Lock()
	switch w.state {
	case WorkerStopped:
		w.mu.Unlock()
		return
	case WorkerIdle:
		w.state = WorkerStopped
		w.clips.Close()
		w.mu.Unlock()
		return
	}

	w.state = WorkerStopped
	w.cancel()
	w.clips.Close()
	w.mu.Unlock()

	<-w.done

	stats := w.Stats()
	lgr.Logger.Info("inference worker stopped",
		slog.String("worker", w.name),
		slog.Int("processed", stats.Processed),
		slog.Int("failures", stats.Failures),
		slog.Int("overwritten", stats.Overwritten),
		slog.Float64("avgInferenceMs", stats.AvgInferenceMS),
		slog.Float64("maxInferenceMs", stats.MaxInferenceMS),
	)
}

// SubmitClip hands clip to the worker without blocking. A clip still
// waiting from an earlier submit is discarded.
func (w *InferenceWorker) SubmitClip(clip model.Clip) error {
	if w.State() != WorkerRunning {
		return ErrWorkerNotRunning
	}

	if w.clips.Put(clip) {
		lgr.Logger.Debug("pending clip overwritten",
			slog.String("worker", w.name),
			slog.Int("clip", clip.Seq),
		)
	}
	return nil
}

// TryGetPrediction returns the latest completed prediction. ok is false
// only until the first inference completes; afterwards the same prediction
// is returned until a newer one replaces it.
func (w *InferenceWorker) TryGetPrediction() (model.Prediction, bool) {
	p, _, ok := w.latest.Load()
	return p, ok
}

func (w *InferenceWorker) LastError() error {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.lastErr
}

func (w *InferenceWorker) Stats() model.WorkerStats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	var uptime int64
	if !w.startTime.IsZero() {
		uptime = int64(time.Since(w.startTime).Seconds())
	}

	return model.WorkerStats{
		Name:           w.name,
		Processed:      w.processed,
		Failures:       w.failures,
		Overwritten:    int(w.clips.Drops()),
		AvgInferenceMS: model.Millis(w.inferTime.Average()),
		MaxInferenceMS: model.Millis(w.inferTime.Longest),
		Uptime:         uptime,
		Timestamp:      time.Now().Unix(),
	}
}

func (w *InferenceWorker) loop(ctx context.Context) {
	defer close(w.done)

	for {
		clip, ok := w.clips.Take()
		if !ok || ctx.Err() != nil {
			lgr.Logger.Debug("inference worker loop exiting", slog.String("worker", w.name))
			return
		}
		w.infer(ctx, clip)
	}
}

func (w *InferenceWorker) infer(ctx context.Context, clip model.Clip) {
	ctx, span := w.tracer.Start(ctx, "predict",
		trace.WithAttributes(
			attribute.Int("clip.seq", clip.Seq),
			attribute.Int("clip.steps", clip.Steps()),
		),
	)
	defer span.End()

	start := time.Now()
	// cancellation is observed between clips, never mid forward pass
	values, err := w.predict(context.WithoutCancel(ctx), clip)
	elapsed := time.Since(start)

	if err != nil {
		failure := model.GenError(model.InferenceFailure, err,
			map[string]interface{}{"clip": clip.Seq},
			"forward pass failed")

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		w.statsMu.Lock()
		w.failures++
		w.lastErr = failure
		w.statsMu.Unlock()

		lgr.Logger.Error("inference failed, keeping previous prediction",
			slog.String("worker", w.name),
			slog.Int("clip", clip.Seq),
			slog.Any("error", err),
		)
		return
	}

	w.seq++
	w.latest.Store(model.Prediction{
		Values:   values,
		Seq:      w.seq,
		ClipSeq:  clip.Seq,
		Duration: elapsed,
		At:       time.Now(),
	})

	w.statsMu.Lock()
	w.processed++
	w.inferTime.AddSample(elapsed)
	w.statsMu.Unlock()

	span.SetAttributes(attribute.Int64("prediction.seq", int64(w.seq)))
}

func (w *InferenceWorker) predict(ctx context.Context, clip model.Clip) (values []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v", r)
		}
	}()
	return w.model.Predict(ctx, clip)
}
