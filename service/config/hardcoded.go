package config

import (
	"sync"
)

type hardcodedService struct {
	mu sync.RWMutex
	s  Settings
}

// Defaults match the fitness rep counter: 160x160 model input at 16 fps,
// 4 frames per clip, 640x480 display with a 100px banner.
func Defaults() Settings {
	return Settings{
		CameraID:        0,
		Title:           "rtnet",
		Mode:            "rep-counter",
		FourCC:          "mp4v",
		StepSize:        4,
		FPS:             16,
		ModelWidth:      160,
		ModelHeight:     160,
		WarmupFill:      "zero",
		FakeDelay:       40,
		ModelScale:      1.0 / 255.0,
		DisplayWidth:    640,
		DisplayHeight:   480,
		BorderSize:      100,
		TopK:            1,
		Threshold:       0.5,
		Smoothing:       1,
		RepThreshold:    0.4,
		LogLevel:        "info",
		MaxShutdownTime: 5,
	}
}

func NewHardCoded() IService {
	return &hardcodedService{s: Defaults()}
}

func newWith(s Settings) IService {
	return &hardcodedService{s: withDefaults(s)}
}

// withDefaults fills zero numeric/string fields from Defaults.
func withDefaults(s Settings) Settings {
	d := Defaults()
	if s.Title == "" {
		s.Title = d.Title
	}
	if s.Mode == "" {
		s.Mode = d.Mode
	}
	if s.FourCC == "" {
		s.FourCC = d.FourCC
	}
	if s.StepSize <= 0 {
		s.StepSize = d.StepSize
	}
	if s.FPS <= 0 {
		s.FPS = d.FPS
	}
	if s.ModelWidth <= 0 || s.ModelHeight <= 0 {
		s.ModelWidth, s.ModelHeight = d.ModelWidth, d.ModelHeight
	}
	if s.WarmupFill == "" {
		s.WarmupFill = d.WarmupFill
	}
	if s.ModelScale <= 0 {
		s.ModelScale = d.ModelScale
	}
	if s.DisplayWidth <= 0 || s.DisplayHeight <= 0 {
		s.DisplayWidth, s.DisplayHeight = d.DisplayWidth, d.DisplayHeight
	}
	if s.BorderSize < 0 {
		s.BorderSize = 0
	}
	if s.TopK <= 0 {
		s.TopK = d.TopK
	}
	if s.Smoothing <= 0 {
		s.Smoothing = d.Smoothing
	}
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
	if s.MaxShutdownTime <= 0 {
		s.MaxShutdownTime = d.MaxShutdownTime
	}
	return s
}

func (svc *hardcodedService) get() Settings {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.s
}

func (svc *hardcodedService) Settings() Settings {
	return svc.get()
}

// Override applies fn and re-applies defaults for anything it zeroed.
func (svc *hardcodedService) Override(fn func(s *Settings)) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	fn(&svc.s)
	svc.s = withDefaults(svc.s)
}

func (svc *hardcodedService) GetCameraID() int         { return svc.get().CameraID }
func (svc *hardcodedService) GetPathIn() string        { return svc.get().PathIn }
func (svc *hardcodedService) GetPathOut() string       { return svc.get().PathOut }
func (svc *hardcodedService) GetSyntheticFrames() int  { return svc.get().Synthetic }
func (svc *hardcodedService) GetTitle() string         { return svc.get().Title }
func (svc *hardcodedService) IsHeadless() bool         { return svc.get().Headless }
func (svc *hardcodedService) GetMode() string          { return svc.get().Mode }
func (svc *hardcodedService) GetFourCC() string        { return svc.get().FourCC }
func (svc *hardcodedService) GetStatsFile() string     { return svc.get().StatsFile }
func (svc *hardcodedService) GetResultFile() string    { return svc.get().ResultFile }
func (svc *hardcodedService) GetModelPath() string     { return svc.get().ModelPath }
func (svc *hardcodedService) GetLabelsPath() string    { return svc.get().LabelsPath }
func (svc *hardcodedService) UseGPU() bool             { return svc.get().UseGPU }
func (svc *hardcodedService) GetStepSize() int         { return svc.get().StepSize }
func (svc *hardcodedService) GetFPS() float64          { return svc.get().FPS }
func (svc *hardcodedService) GetWarmupFill() string    { return svc.get().WarmupFill }
func (svc *hardcodedService) GetFakeLatencyMS() int    { return svc.get().FakeDelay }
func (svc *hardcodedService) GetModelScale() float32   { return svc.get().ModelScale }
func (svc *hardcodedService) IsModelSoftmax() bool     { return svc.get().ModelSoftmax }
func (svc *hardcodedService) GetBorderSize() int       { return svc.get().BorderSize }
func (svc *hardcodedService) GetTopK() int             { return svc.get().TopK }
func (svc *hardcodedService) GetThreshold() float32    { return svc.get().Threshold }
func (svc *hardcodedService) GetSmoothing() int        { return svc.get().Smoothing }
func (svc *hardcodedService) GetRepThreshold() float32 { return svc.get().RepThreshold }
func (svc *hardcodedService) GetLogLevel() string      { return svc.get().LogLevel }
func (svc *hardcodedService) GetLogFile() string       { return svc.get().LogFile }

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return svc.get().MaxShutdownTime
}

func (svc *hardcodedService) GetModelSize() (int, int) {
	s := svc.get()
	return s.ModelWidth, s.ModelHeight
}

func (svc *hardcodedService) GetDisplaySize() (int, int) {
	s := svc.get()
	return s.DisplayWidth, s.DisplayHeight
}
