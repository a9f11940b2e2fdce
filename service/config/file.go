package config

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

const envPrefix = "RTNET_"

// NewFile loads a YAML settings file over the defaults. An empty path
// yields the defaults. Environment overrides are applied afterwards.
func NewFile(path string) (IService, error) {
	s := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, xerrors.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, xerrors.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnv(&s, os.LookupEnv); err != nil {
		return nil, err
	}
	return newWith(s), nil
}

// applyEnv overrides settings from RTNET_* variables, e.g. RTNET_STEP_SIZE=8.
// Variable names are the upper-cased yaml keys.
func applyEnv(s *Settings, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return xerrors.Errorf("env %s%s: %w", envPrefix, key, err)
		}
		*dst = n
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return xerrors.Errorf("env %s%s: %w", envPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("PATH_IN", &s.PathIn)
	str("PATH_OUT", &s.PathOut)
	str("TITLE", &s.Title)
	str("MODE", &s.Mode)
	str("MODEL_PATH", &s.ModelPath)
	str("LABELS_PATH", &s.LabelsPath)
	str("LOG_LEVEL", &s.LogLevel)
	str("LOG_FILE", &s.LogFile)
	str("STATS_FILE", &s.StatsFile)
	str("RESULT_FILE", &s.ResultFile)

	for key, dst := range map[string]*int{
		"CAMERA_ID":        &s.CameraID,
		"STEP_SIZE":        &s.StepSize,
		"SYNTHETIC_FRAMES": &s.Synthetic,
		"FAKE_LATENCY_MS":  &s.FakeDelay,
		"BORDER_SIZE":      &s.BorderSize,
	} {
		if err := integer(key, dst); err != nil {
			return err
		}
	}

	for key, dst := range map[string]*bool{
		"USE_GPU":       &s.UseGPU,
		"HEADLESS":      &s.Headless,
		"MODEL_SOFTMAX": &s.ModelSoftmax,
	} {
		if err := boolean(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup(envPrefix + "FPS"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return xerrors.Errorf("env %sFPS: %w", envPrefix, err)
		}
		s.FPS = f
	}
	if v, ok := lookup(envPrefix + "MODEL_SCALE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
		if err != nil {
			return xerrors.Errorf("env %sMODEL_SCALE: %w", envPrefix, err)
		}
		s.ModelScale = float32(f)
	}
	return nil
}
