package postproc

import (
	"sort"

	"github.com/khaledhikmat/rtnet-go/model"
)

const SortedPredictionsKey = "sorted_predictions"

type LabelScore struct {
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

// Classification averages the last Smoothing predictions and emits every
// class sorted by descending probability.
type Classification struct {
	labels    Labels
	smoothing int
	buffer    [][]float32
}

func NewClassification(labels Labels, smoothing int) *Classification {
	if smoothing <= 0 {
		smoothing = 1
	}
	return &Classification{labels: labels, smoothing: smoothing}
}

func (c *Classification) Process(p model.Prediction) map[string]any {
	if len(p.Values) > 0 {
		c.buffer = append(c.buffer, p.Values)
	}
	if len(c.buffer) > c.smoothing {
		c.buffer = c.buffer[len(c.buffer)-c.smoothing:]
	}

	sorted := []LabelScore{}
	if mean := meanOf(c.buffer); mean != nil {
		for _, i := range ArgSortDesc(mean) {
			sorted = append(sorted, LabelScore{Label: c.labels.Name(i), Score: mean[i]})
		}
	}
	return map[string]any{SortedPredictionsKey: sorted}
}

func meanOf(rows [][]float32) []float32 {
	if len(rows) == 0 {
		return nil
	}
	width := len(rows[0])
	for _, r := range rows {
		if len(r) < width {
			width = len(r)
		}
	}
	mean := make([]float32, width)
	for _, r := range rows {
		for i := 0; i < width; i++ {
			mean[i] += r[i]
		}
	}
	for i := range mean {
		mean[i] /= float32(len(rows))
	}
	return mean
}

// ArgSortDesc returns indices of values from largest to smallest. Ties keep index order.
func ArgSortDesc(values []float32) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] > values[idx[b]]
	})
	return idx
}
