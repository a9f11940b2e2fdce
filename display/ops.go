package display

import (
	"fmt"
	"sort"

	"github.com/fogleman/gg"

	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/postproc"
)

// TopKClassification lists the k most likely classes scoring above threshold.
type TopKClassification struct {
	TopK      int
	Threshold float32
}

func (o TopKClassification) Draw(dc *gg.Context, area Area, result model.Result) {
	sorted, ok := result[postproc.SortedPredictionsKey].([]postproc.LabelScore)
	if !ok {
		return
	}

	y := 2 * lineHeight
	dc.SetRGB(1, 1, 1)
	for i, ls := range sorted {
		if i >= o.TopK || ls.Score < o.Threshold {
			break
		}
		if y > area.Height {
			break
		}
		dc.DrawString(fmt.Sprintf("%s %.1f%%", ls.Label, ls.Score*100), margin, y)
		y += lineHeight
	}
}

// RepCounts prints one "exercise: count" line per exercise, right aligned.
type RepCounts struct{}

func (RepCounts) Draw(dc *gg.Context, area Area, result model.Result) {
	counts, ok := result[postproc.CountingKey].(map[string]int)
	if !ok {
		return
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	y := 2 * lineHeight
	dc.SetRGB(0.3, 1, 0.5)
	for _, name := range names {
		if y > area.Height {
			break
		}
		dc.DrawStringAnchored(fmt.Sprintf("%s: %d", name, counts[name]), area.Width-margin, y, 1, 0)
		y += lineHeight
	}
}

// Latency prints how long the displayed prediction took to compute.
type Latency struct{}

func (Latency) Draw(dc *gg.Context, area Area, result model.Result) {
	p, ok := result.Prediction()
	if !ok || area.Height < lineHeight {
		return
	}
	dc.SetRGB(0.7, 0.7, 0.7)
	dc.DrawStringAnchored(fmt.Sprintf("%dms", p.Duration.Milliseconds()), area.Width-margin, lineHeight, 1, 0.5)
}
