package mode

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/display"
	"github.com/khaledhikmat/rtnet-go/model"
	"github.com/khaledhikmat/rtnet-go/pipeline"
	"github.com/khaledhikmat/rtnet-go/service/config"
	"github.com/khaledhikmat/rtnet-go/service/data"
	"github.com/khaledhikmat/rtnet-go/service/inference"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

// ServicesFactory carries everything a mode processor needs. main decides
// the implementations: camera or synthetic source, DNN or fake model,
// OpenCV window or headless rendering.
type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	InferenceSvc inference.IService

	Source pipeline.FrameSource
	// NewDisplay wraps the mode's renderer. nil renders headless.
	NewDisplay func(r *display.Renderer) (pipeline.Display, error)
	// Opener is used when an output path is configured. nil disables recording.
	Opener pipeline.VideoWriterOpener
}

type Processor func(canxCtx context.Context, svcs ServicesFactory) error

var processors = map[string]Processor{
	"rep-counter": RepCounter,
	"classifier":  Classifier,
}

func Lookup(name string) (Processor, error) {
	proc, ok := processors[name]
	if !ok {
		return nil, xerrors.Errorf("unknown mode %q (available: %v)", name, Names())
	}
	return proc, nil
}

func Names() []string {
	names := make([]string, 0, len(processors))
	for name := range processors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func procResult(datasvc data.IService, result model.Result) {
	err := datasvc.NewResult(result)
	if err != nil {
		lgr.Logger.Error(
			"failed to store result",
			slog.Any("error", err),
		)
	}
}

func procStats(datasvc data.IService, stats model.RunStats) {
	err := datasvc.NewRunStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store run stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err error) {
	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}
