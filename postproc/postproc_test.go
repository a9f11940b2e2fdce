package postproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/rtnet-go/model"
)

func probs(values ...float32) model.Prediction {
	return model.Prediction{Values: values}
}

func TestRepCounterCountsFullCycles(t *testing.T) {
	rc, err := NewFitnessRepCounter(FitnessLabels(), 0.4)
	require.NoError(t, err)

	seq := []model.Prediction{
		probs(0.9, 0, 0, 0, 0),   // background
		probs(0, 0.8, 0, 0, 0),   // jj position 1
		probs(0, 0.1, 0.9, 0, 0), // jj position 2 -> 1 rep
		probs(0, 0, 0.9, 0, 0),   // still position 2, not armed
		probs(0, 0.7, 0, 0, 0),
		probs(0, 0, 0.7, 0, 0), // 2 reps
		probs(0, 0, 0, 0, 0.9), // squat position 2 without position 1
		probs(0, 0, 0, 0.8, 0),
		probs(0, 0, 0, 0, 0.8), // 1 squat
	}

	var out map[string]any
	for _, p := range seq {
		out = rc.Process(p)
	}
	assert.Equal(t, map[string]int{"jumping_jacks": 2, "squat": 1}, out[CountingKey])
	assert.Equal(t, map[string]int{"jumping_jacks": 2, "squat": 1}, rc.Counts())
}

func TestRepCounterIgnoresEmptyPrediction(t *testing.T) {
	rc, err := NewFitnessRepCounter(FitnessLabels(), 0.4)
	require.NoError(t, err)
	out := rc.Process(model.Prediction{})
	assert.Equal(t, map[string]int{"jumping_jacks": 0, "squat": 0}, out[CountingKey])
}

func TestRepCounterUnknownExercise(t *testing.T) {
	_, err := NewRepCounter(FitnessLabels(), 0.4, "counting - burpees")
	require.Error(t, err)
}

func TestClassificationSmoothing(t *testing.T) {
	labels := Labels{0: "a", 1: "b", 2: "c"}
	c := NewClassification(labels, 2)

	out := c.Process(probs(0.1, 0.7, 0.2))
	sorted := out[SortedPredictionsKey].([]LabelScore)
	require.Len(t, sorted, 3)
	assert.Equal(t, "b", sorted[0].Label)

	out = c.Process(probs(0.9, 0.1, 0.0))
	sorted = out[SortedPredictionsKey].([]LabelScore)
	assert.Equal(t, "a", sorted[0].Label)
	assert.InDelta(t, 0.5, sorted[0].Score, 1e-6)
	assert.InDelta(t, 0.4, sorted[1].Score, 1e-6)

	// the first prediction falls out of the window
	out = c.Process(probs(0.9, 0.1, 0.0))
	sorted = out[SortedPredictionsKey].([]LabelScore)
	assert.InDelta(t, 0.9, sorted[0].Score, 1e-6)
}

func TestClassificationEmptyBeforeFirstPrediction(t *testing.T) {
	c := NewClassification(FitnessLabels(), 1)
	out := c.Process(model.Prediction{})
	assert.Empty(t, out[SortedPredictionsKey])
}

func TestParseLabels(t *testing.T) {
	l, err := ParseLabels([]byte(`["bg", "wave"]`))
	require.NoError(t, err)
	assert.Equal(t, Labels{0: "bg", 1: "wave"}, l)

	l, err = ParseLabels([]byte(`{"0": "bg", "2": "clap"}`))
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "1", l.Name(1))
	assert.Equal(t, []string{"bg", "clap"}, l.Sorted())

	_, err = ParseLabels([]byte(`{"x": "bg"}`))
	require.Error(t, err)
	_, err = ParseLabels([]byte(`42`))
	require.Error(t, err)
}

func TestSoftmax(t *testing.T) {
	out := Softmax([]float32{1, 2, 3})
	var sum float32
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
	assert.Greater(t, out[2], out[1])
	assert.Nil(t, Softmax(nil))

	assert.Equal(t, []int{2, 0, 1}, ArgSortDesc([]float32{0.3, 0.1, 0.6}))
}
