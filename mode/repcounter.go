package mode

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/display"
	"github.com/khaledhikmat/rtnet-go/pipeline"
	"github.com/khaledhikmat/rtnet-go/postproc"
)

// RepCounter counts jumping jack and squat repetitions and shows the most
// likely movement next to the running totals.
func RepCounter(canxCtx context.Context, svcs ServicesFactory) error {
	labels, err := svcs.DataSvc.RetrieveLabels()
	if err != nil {
		return xerrors.Errorf("rep-counter labels: %w", err)
	}

	counter, err := postproc.NewFitnessRepCounter(labels, svcs.CfgSvc.GetRepThreshold())
	if err != nil {
		return xerrors.Errorf("rep-counter: %w", err)
	}

	// counting runs first so it sees the raw scores
	chain := pipeline.NewChain(
		counter,
		postproc.NewClassification(labels, 1),
	)

	renderer := display.NewRenderer(svcs.CfgSvc.GetTitle(), svcs.CfgSvc.GetBorderSize(),
		display.TopKClassification{TopK: 1, Threshold: svcs.CfgSvc.GetThreshold()},
		display.RepCounts{},
		display.Latency{},
	)

	return run(canxCtx, "rep-counter", svcs, chain, renderer)
}
