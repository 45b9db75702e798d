package config

const (
	defaultConfigPath   = "~/.config/livecam/config.toml"
	defaultWidth        = 1920
	defaultHeight       = 1080
	defaultExposureMode = "auto"
	defaultLockDir      = "~/.cache/livecam"
	defaultPreviewW     = 960
	defaultPreviewH     = 540
	defaultDisplayMode  = "now"
	defaultBlendFactor  = 0.3
	defaultDiffGain     = 10
	defaultAutosaveDir  = "~/Pictures/livecam"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultLogOutput    = "stderr"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Camera: Camera{
			Width:        defaultWidth,
			Height:       defaultHeight,
			ExposureMode: defaultExposureMode,
			LockDir:      defaultLockDir,
		},
		Preview: Preview{
			Width:       defaultPreviewW,
			Height:      defaultPreviewH,
			DisplayMode: defaultDisplayMode,
			Window:      true,
		},
		Pipeline: Pipeline{
			BlendFactor: defaultBlendFactor,
			DiffGain:    defaultDiffGain,
		},
		Autosave: Autosave{
			Dir: defaultAutosaveDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Output: defaultLogOutput,
		},
	}
}
