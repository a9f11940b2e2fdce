package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/postproc"
)

func greyFrame(w, h int, v byte) *model.Frame {
	f := model.NewFrame(w, h)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func sampleResult() model.Result {
	return model.Result{
		model.PredictionKey: model.Prediction{Values: []float32{0.1, 0.9}, Seq: 1, Duration: 12 * time.Millisecond},
		postproc.SortedPredictionsKey: []postproc.LabelScore{
			{Label: "squat", Score: 0.9},
			{Label: "background", Score: 0.1},
		},
		postproc.CountingKey: map[string]int{"squat": 3, "jumping_jacks": 1},
	}
}

func TestRenderAddsBannerAndKeepsFrame(t *testing.T) {
	raw := greyFrame(120, 80, 200)
	raw.Index = 7
	r := NewRenderer("reps", 40, TopKClassification{TopK: 1, Threshold: 0.5}, RepCounts{}, Latency{})

	out := r.Render(raw, sampleResult())
	require.Equal(t, 120, out.Width)
	require.Equal(t, 120, out.Height)
	assert.Equal(t, 7, out.Index)

	// the frame area below the banner carries the raw pixels
	row := 60
	for col := 5; col < 115; col++ {
		off := ((row+40)*120 + col) * 3
		assert.Equal(t, byte(200), out.Pix[off], "col %d", col)
	}

	// something was drawn into the banner
	drawn := false
	for _, b := range out.Pix[:40*120*3] {
		if b != 0 {
			drawn = true
			break
		}
	}
	assert.True(t, drawn)
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	raw := greyFrame(64, 48, 50)
	before := raw.Clone()

	r := NewRenderer("title", 0, TopKClassification{TopK: 2}, RepCounts{})
	out, err := r.Show(raw, sampleResult())
	require.NoError(t, err)

	assert.Equal(t, before.Pix, raw.Pix)
	assert.Equal(t, raw.Height, out.Height)
	assert.NotSame(t, raw, out)
}

func TestRenderWithoutResult(t *testing.T) {
	raw := greyFrame(32, 24, 10)
	r := NewRenderer("", 10, TopKClassification{TopK: 1}, RepCounts{})
	out := r.Render(raw, nil)
	assert.Equal(t, 34, out.Height)
	assert.NoError(t, r.Close())
}

func TestOpsIgnoreMissingKeys(t *testing.T) {
	raw := greyFrame(32, 24, 10)
	r := NewRenderer("", 20, TopKClassification{TopK: 1}, RepCounts{}, Latency{})
	assert.NotPanics(t, func() {
		r.Render(raw, model.Result{"other": 1})
	})
}
