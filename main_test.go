package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/khaledhikmat/rtnet-go/service/config"
)

func parse(t *testing.T, args ...string) config.Settings {
	t.Helper()
	cfgSvc := config.NewHardCoded()
	app := &cli.App{
		Name:  "rtnet",
		Flags: appFlags(),
		Action: func(c *cli.Context) error {
			applyFlags(c, cfgSvc)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"rtnet"}, args...)))
	return cfgSvc.Settings()
}

func TestFlagsOverrideSettings(t *testing.T) {
	s := parse(t,
		"--mode", "classifier",
		"--camera-id", "2",
		"--path-out", "out/run.mp4",
		"--title", "Squats",
		"--use-gpu",
		"--step-size", "8",
		"--fps", "30",
		"--headless",
		"--synthetic", "64",
		"--log-level", "debug",
		"--model", "clip.onnx",
		"--model-softmax",
		"--model-scale", "0.25",
	)

	assert.Equal(t, "classifier", s.Mode)
	assert.Equal(t, 2, s.CameraID)
	assert.Equal(t, "out/run.mp4", s.PathOut)
	assert.Equal(t, "Squats", s.Title)
	assert.True(t, s.UseGPU)
	assert.Equal(t, 8, s.StepSize)
	assert.Equal(t, 30.0, s.FPS)
	assert.True(t, s.Headless)
	assert.Equal(t, 64, s.Synthetic)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "clip.onnx", s.ModelPath)
	assert.True(t, s.ModelSoftmax)
	assert.Equal(t, float32(0.25), s.ModelScale)
}

func TestUnsetFlagsKeepDefaults(t *testing.T) {
	s := parse(t, "--path-in", "clip.mp4")

	d := config.Defaults()
	assert.Equal(t, "clip.mp4", s.PathIn)
	assert.Equal(t, d.Mode, s.Mode)
	assert.Equal(t, d.StepSize, s.StepSize)
	assert.Equal(t, d.FPS, s.FPS)
	assert.False(t, s.Headless)
	assert.False(t, s.ModelSoftmax)
	assert.Equal(t, d.ModelScale, s.ModelScale)
}
