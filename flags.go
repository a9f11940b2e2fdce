package main

import (
	"github.com/urfave/cli/v2"

	"github.com/khaledhikmat/rtnet-go/service/config"
)

func appFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "YAML settings file"},
		&cli.StringFlag{Name: "mode", Usage: "run mode: rep-counter or classifier"},
		&cli.IntFlag{Name: "camera-id", Usage: "camera index used when no input path is given"},
		&cli.StringFlag{Name: "path-in", Usage: "input video file (overrides the camera)"},
		&cli.StringFlag{Name: "path-out", Usage: "output video file; a _raw copy is written next to it"},
		&cli.StringFlag{Name: "title", Usage: "banner and window title"},
		&cli.BoolFlag{Name: "use-gpu", Usage: "run the model on CUDA"},
		&cli.StringFlag{Name: "model", Usage: "ONNX clip model; the fake model is used when empty"},
		&cli.StringFlag{Name: "labels", Usage: "labels JSON file"},
		&cli.BoolFlag{Name: "model-softmax", Usage: "apply softmax to the model output (for models emitting logits)"},
		&cli.Float64Flag{Name: "model-scale", Usage: "factor applied to 0-255 pixel values before inference"},
		&cli.IntFlag{Name: "step-size", Usage: "frames per clip"},
		&cli.Float64Flag{Name: "fps", Usage: "capture and recording rate"},
		&cli.BoolFlag{Name: "headless", Usage: "do not open a window"},
		&cli.IntFlag{Name: "synthetic", Usage: "generate this many frames instead of reading a camera"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: "log-file", Usage: "rotating JSON log file"},
	}
}

// applyFlags overrides settings with the flags given on the command line.
func applyFlags(c *cli.Context, cfgSvc config.IService) {
	cfgSvc.Override(func(s *config.Settings) {
		if c.IsSet("mode") {
			s.Mode = c.String("mode")
		}
		if c.IsSet("camera-id") {
			s.CameraID = c.Int("camera-id")
		}
		if c.IsSet("path-in") {
			s.PathIn = c.String("path-in")
		}
		if c.IsSet("path-out") {
			s.PathOut = c.String("path-out")
		}
		if c.IsSet("title") {
			s.Title = c.String("title")
		}
		if c.IsSet("use-gpu") {
			s.UseGPU = c.Bool("use-gpu")
		}
		if c.IsSet("model") {
			s.ModelPath = c.String("model")
		}
		if c.IsSet("labels") {
			s.LabelsPath = c.String("labels")
		}
		if c.IsSet("model-softmax") {
			s.ModelSoftmax = c.Bool("model-softmax")
		}
		if c.IsSet("model-scale") {
			s.ModelScale = float32(c.Float64("model-scale"))
		}
		if c.IsSet("step-size") {
			s.StepSize = c.Int("step-size")
		}
		if c.IsSet("fps") {
			s.FPS = c.Float64("fps")
		}
		if c.IsSet("headless") {
			s.Headless = c.Bool("headless")
		}
		if c.IsSet("synthetic") {
			s.Synthetic = c.Int("synthetic")
		}
		if c.IsSet("log-level") {
			s.LogLevel = c.String("log-level")
		}
		if c.IsSet("log-file") {
			s.LogFile = c.String("log-file")
		}
	})
}
