package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/rtnet-go/camera"
	"github.com/khaledhikmat/rtnet-go/display"
	"github.com/khaledhikmat/rtnet-go/mode"
	"github.com/khaledhikmat/rtnet-go/pipeline"
	"github.com/khaledhikmat/rtnet-go/service/config"
	"github.com/khaledhikmat/rtnet-go/service/data"
	"github.com/khaledhikmat/rtnet-go/service/inference"
	"github.com/khaledhikmat/rtnet-go/service/inference/dnn"
	"github.com/khaledhikmat/rtnet-go/service/lgr"
)

func main() {
	app := &cli.App{
		Name:   "rtnet",
		Usage:  "sliding-window video inference on a camera or a video file",
		Flags:  appFlags(),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		lgr.Logger.Error("rtnet exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		if err := godotenv.Load(); err != nil {
			lgr.Logger.Debug("no .env file loaded", slog.String("reason", err.Error()))
		}
	}

	cfgSvc, err := config.NewFile(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(c, cfgSvc)

	logCloser := lgr.Setup(lgr.Options{
		Level: cfgSvc.GetLogLevel(),
		File:  cfgSvc.GetLogFile(),
	})
	defer logCloser.Close()

	modeProc, err := mode.Lookup(cfgSvc.GetMode())
	if err != nil {
		return err
	}

	canxCtx, canxFn := context.WithCancel(c.Context)
	defer canxFn()

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			lgr.Logger.Info(
				"received kill signal",
				slog.Any("signal", sig),
			)
			canxFn()
		case <-canxCtx.Done():
		}
	}()

	// Create the services needed for the mode processor
	// Data service
	dataSvc := data.NewFilesDB(cfgSvc)
	defer dataSvc.Close()

	// inference service
	inferenceSvc, err := newInferenceService(cfgSvc, dataSvc)
	if err != nil {
		return err
	}
	defer inferenceSvc.Close()

	svcs := mode.ServicesFactory{
		CfgSvc:       cfgSvc,
		DataSvc:      dataSvc,
		InferenceSvc: inferenceSvc,
		Source:       newSource(cfgSvc),
		Opener:       camera.WriterOpener{FourCC: cfgSvc.GetFourCC()},
	}
	if !cfgSvc.IsHeadless() {
		svcs.NewDisplay = func(r *display.Renderer) (pipeline.Display, error) {
			return camera.NewWindow(cfgSvc.GetTitle(), r), nil
		}
	}

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		// OpenCV windows must stay on one OS thread
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	// Wait for cancellation or mode proc
	select {
	case err := <-modeProcResult:
		return err

	case <-canxCtx.Done():
		lgr.Logger.Info(
			"rtnet context cancelled",
		)
	}

	// The controller cleans up once it sees the cancellation. Give it a
	// bounded amount of time to do so.
	waitOnShutdown := time.Duration(cfgSvc.GetModeMaxShutdownTime()) * time.Second
	lgr.Logger.Info(
		"rtnet is waiting for the mode processor to exit",
		slog.Duration("period", waitOnShutdown),
	)

	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case err := <-modeProcResult:
		return err
	case <-timer.C:
		return xerrors.Errorf("mode processor did not exit within %s", waitOnShutdown)
	}
}

func newInferenceService(cfgSvc config.IService, dataSvc data.IService) (inference.IService, error) {
	if path := cfgSvc.GetModelPath(); path != "" {
		return dnn.New(dnn.Options{
			ModelPath: path,
			UseGPU:    cfgSvc.UseGPU(),
			Softmax:   cfgSvc.IsModelSoftmax(),
			Scale:     cfgSvc.GetModelScale(),
		})
	}

	labels, err := dataSvc.RetrieveLabels()
	if err != nil {
		return nil, err
	}
	lgr.Logger.Warn("no model configured, using the fake model",
		slog.Int("classes", labels.Len()),
	)
	return inference.NewFake(labels.Len(), time.Duration(cfgSvc.GetFakeLatencyMS())*time.Millisecond), nil
}

func newSource(cfgSvc config.IService) pipeline.FrameSource {
	mw, mh := cfgSvc.GetModelSize()
	dw, dh := cfgSvc.GetDisplaySize()

	if n := cfgSvc.GetSyntheticFrames(); n > 0 {
		src := pipeline.NewSyntheticSource(n, mw, mh, dw, dh)
		src.Interval = time.Duration(float64(time.Second) / cfgSvc.GetFPS())
		return src
	}
	return camera.NewSource(cfgSvc.GetCameraID(), cfgSvc.GetPathIn(), mw, mh, dw, dh, cfgSvc.GetFPS())
}
