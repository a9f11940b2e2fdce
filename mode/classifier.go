package mode

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/display"
	"github.com/khaledhikmat/rtnet-go/pipeline"
	"github.com/khaledhikmat/rtnet-go/postproc"
)

const classifierSmoothing = 4

// Classifier shows the smoothed top-k classes of every clip.
func Classifier(canxCtx context.Context, svcs ServicesFactory) error {
	labels, err := svcs.DataSvc.RetrieveLabels()
	if err != nil {
		return xerrors.Errorf("classifier labels: %w", err)
	}

	smoothing := svcs.CfgSvc.GetSmoothing()
	if smoothing <= 1 {
		smoothing = classifierSmoothing
	}
	chain := pipeline.NewChain(postproc.NewClassification(labels, smoothing))

	renderer := display.NewRenderer(svcs.CfgSvc.GetTitle(), svcs.CfgSvc.GetBorderSize(),
		display.TopKClassification{TopK: svcs.CfgSvc.GetTopK(), Threshold: svcs.CfgSvc.GetThreshold()},
		display.Latency{},
	)

	return run(canxCtx, "classifier", svcs, chain, renderer)
}
