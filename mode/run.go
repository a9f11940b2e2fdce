package mode

import (
	"context"
	"log/slog"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/display"
	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/pipeline"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

// run wires the services into a controller and blocks until it is done.
func run(canxCtx context.Context, name string, svcs ServicesFactory, chain *pipeline.Chain, renderer *display.Renderer) error {
	if svcs.Source == nil || svcs.InferenceSvc == nil {
		return xerrors.Errorf("mode %s: source and inference service are required", name)
	}
	cfgSvc := svcs.CfgSvc

	var disp pipeline.Display = renderer
	if svcs.NewDisplay != nil {
		d, err := svcs.NewDisplay(renderer)
		if err != nil {
			return xerrors.Errorf("creating display: %w", err)
		}
		disp = d
	}

	var cancel pipeline.CancelSignal
	if c, ok := disp.(pipeline.CancelSignal); ok {
		cancel = c
	}

	var recorder *pipeline.Recorder
	if out := cfgSvc.GetPathOut(); out != "" && svcs.Opener != nil {
		recorder = pipeline.NewRecorder(svcs.Opener, out, cfgSvc.GetFPS())
	}

	worker := pipeline.NewInferenceWorker(svcs.InferenceSvc,
		pipeline.WithWorkerName(svcs.InferenceSvc.Name()))

	mw, mh := cfgSvc.GetModelSize()
	ctrl := pipeline.NewController(svcs.Source, worker, chain, disp, pipeline.ControllerOptions{
		Mode:        name,
		StepSize:    cfgSvc.GetStepSize(),
		ModelWidth:  mw,
		ModelHeight: mh,
		WarmupFill:  cfgSvc.GetWarmupFill(),
		Recorder:    recorder,
		Cancel:      cancel,
		OnResult: func(result model.Result) {
			procResult(svcs.DataSvc, result)
		},
	})

	lgr.Logger.Info("mode processor starting",
		slog.String("mode", name),
		slog.String("runID", ctrl.RunID()),
		slog.String("model", svcs.InferenceSvc.Name()),
		slog.Int("postProcessors", chain.Len()),
	)

	err := ctrl.Run(canxCtx)
	if err != nil {
		procError(svcs.DataSvc, err)
	}
	procStats(svcs.DataSvc, ctrl.Stats())
	return err
}
