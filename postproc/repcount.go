package postproc

import (
	"strings"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/model"
)

const (
	CountingKey    = "counting"
	countingPrefix = "counting - "
)

// exerciseCounter is a two-position state machine: seeing position_1 arms
// it, seeing position_2 while armed counts one rep and disarms it.
type exerciseCounter struct {
	name      string
	position1 int
	position2 int
	armed     bool
	count     int
}

func (e *exerciseCounter) process(values []float32, threshold float32) {
	if e.position1 >= len(values) || e.position2 >= len(values) {
		return
	}
	if values[e.position1] > threshold {
		e.armed = true
	}
	if values[e.position2] > threshold && e.armed {
		e.armed = false
		e.count++
	}
}

// RepCounter counts repetitions for each exercise root, e.g.
// "counting - squat" uses labels "counting - squat_position_1" and "_2".
type RepCounter struct {
	threshold float32
	exercises []*exerciseCounter
}

func NewRepCounter(labels Labels, threshold float32, roots ...string) (*RepCounter, error) {
	rc := &RepCounter{threshold: threshold}
	for _, root := range roots {
		p1, ok1 := labels.Index(root + "_position_1")
		p2, ok2 := labels.Index(root + "_position_2")
		if !ok1 || !ok2 {
			return nil, xerrors.Errorf("labels have no positions for exercise %q", root)
		}
		rc.exercises = append(rc.exercises, &exerciseCounter{
			name:      strings.TrimPrefix(root, countingPrefix),
			position1: p1,
			position2: p2,
		})
	}
	return rc, nil
}

// NewFitnessRepCounter counts jumping jacks and squats.
func NewFitnessRepCounter(labels Labels, threshold float32) (*RepCounter, error) {
	return NewRepCounter(labels, threshold, "counting - jumping_jacks", "counting - squat")
}

func (rc *RepCounter) Process(p model.Prediction) map[string]any {
	counts := make(map[string]int, len(rc.exercises))
	for _, e := range rc.exercises {
		if len(p.Values) > 0 {
			e.process(p.Values, rc.threshold)
		}
		counts[e.name] = e.count
	}
	return map[string]any{CountingKey: counts}
}

func (rc *RepCounter) Counts() map[string]int {
	counts := make(map[string]int, len(rc.exercises))
	for _, e := range rc.exercises {
		counts[e.name] = e.count
	}
	return counts
}
