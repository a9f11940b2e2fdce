package inference

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/postproc"
)

// fakeService derives class scores from the mean brightness of the newest
// frame, so a source that cycles its brightness also cycles the classes.
type fakeService struct {
	classes   int
	latency   time.Duration
	failEvery int
	calls     atomic.Int64
}

func NewFake(classes int, latency time.Duration) IService {
	return newFake(classes, latency, 0)
}

// NewFailingFake fails every n-th call.
func NewFailingFake(classes int, latency time.Duration, n int) IService {
	return newFake(classes, latency, n)
}

func newFake(classes int, latency time.Duration, failEvery int) *fakeService {
	if classes <= 0 {
		classes = 1
	}
	return &fakeService{classes: classes, latency: latency, failEvery: failEvery}
}

func (svc *fakeService) Name() string {
	return "fake"
}

func (svc *fakeService) Predict(ctx context.Context, clip model.Clip) ([]float32, error) {
	call := svc.calls.Add(1)

	if svc.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(svc.latency):
		}
	}

	if svc.failEvery > 0 && call%int64(svc.failEvery) == 0 {
		return nil, fmt.Errorf("fake inference failure on call %d", call)
	}

	logits := make([]float32, svc.classes)
	if len(clip.Frames) == 0 {
		return postproc.Softmax(logits), nil
	}

	newest := clip.Frames[len(clip.Frames)-1]
	var sum int
	for _, b := range newest.Pix {
		sum += int(b)
	}
	mean := 0
	if len(newest.Pix) > 0 {
		mean = sum / len(newest.Pix)
	}

	logits[(mean/32)%svc.classes] = 4
	return postproc.Softmax(logits), nil
}

func (svc *fakeService) Close() error {
	return nil
}
