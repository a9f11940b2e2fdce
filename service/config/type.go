package config

// Settings holds every tunable of a run. Zero values are replaced by defaults.
type Settings struct {
	// Input/Output
	CameraID   int    `yaml:"camera_id"`
	PathIn     string `yaml:"path_in"`
	PathOut    string `yaml:"path_out"`
	Synthetic  int    `yaml:"synthetic_frames"`
	Title      string `yaml:"title"`
	Headless   bool   `yaml:"headless"`
	Mode       string `yaml:"mode"`
	FourCC     string `yaml:"fourcc"`
	StatsFile  string `yaml:"stats_file"`
	ResultFile string `yaml:"result_file"`

	// Model
	ModelPath   string  `yaml:"model_path"`
	LabelsPath  string  `yaml:"labels_path"`
	UseGPU      bool    `yaml:"use_gpu"`
	StepSize    int     `yaml:"step_size"`
	FPS         float64 `yaml:"fps"`
	ModelWidth  int     `yaml:"model_width"`
	ModelHeight int     `yaml:"model_height"`
	WarmupFill  string  `yaml:"warmup_fill"`
	FakeDelay   int     `yaml:"fake_latency_ms"`
	// ModelScale multiplies 0-255 pixel values; ModelSoftmax normalises raw logits.
	ModelScale   float32 `yaml:"model_scale"`
	ModelSoftmax bool    `yaml:"model_softmax"`

	// Display
	DisplayWidth  int     `yaml:"display_width"`
	DisplayHeight int     `yaml:"display_height"`
	BorderSize    int     `yaml:"border_size"`
	TopK          int     `yaml:"top_k"`
	Threshold     float32 `yaml:"threshold"`
	Smoothing     int     `yaml:"smoothing"`
	RepThreshold  float32 `yaml:"rep_threshold"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Shutdown
	MaxShutdownTime int `yaml:"max_shutdown_seconds"`
}

type IService interface {
	GetCameraID() int
	GetPathIn() string
	GetPathOut() string
	GetSyntheticFrames() int
	GetTitle() string
	IsHeadless() bool
	GetMode() string
	GetFourCC() string
	GetStatsFile() string
	GetResultFile() string

	GetModelPath() string
	GetLabelsPath() string
	UseGPU() bool
	GetStepSize() int
	GetFPS() float64
	GetModelSize() (int, int)
	GetWarmupFill() string
	GetFakeLatencyMS() int
	GetModelScale() float32
	IsModelSoftmax() bool

	GetDisplaySize() (int, int)
	GetBorderSize() int
	GetTopK() int
	GetThreshold() float32
	GetSmoothing() int
	GetRepThreshold() float32

	GetLogLevel() string
	GetLogFile() string
	GetModeMaxShutdownTime() int

	Settings() Settings
	Override(fn func(s *Settings))
}
