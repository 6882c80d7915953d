package config

import (
	"os"
	"time"

	"github.com/smazurov/encodenode/internal/logging"
	"github.com/smazurov/encodenode/internal/types"
	"github.com/spf13/cobra"
)

// DefaultConfigPath is read when ENCODENODE_CONFIG is unset.
const DefaultConfigPath = "encodenode.toml"

// Settings are the ambient settings of encodenode. Encode parameters come
// from the command line, never from here.
type Settings struct {
	Config string `help:"Config file path"`

	LoggingLevel  string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `toml:"logging.format" env:"LOGGING_FORMAT"`

	// Build capabilities gating options and codecs
	CapabilitiesHEVC  bool `toml:"capabilities.hevc" env:"CAPABILITIES_HEVC"`
	CapabilitiesVP8   bool `toml:"capabilities.vp8" env:"CAPABILITIES_VP8"`
	CapabilitiesV4L2  bool `toml:"capabilities.v4l2" env:"CAPABILITIES_V4L2"`
	CapabilitiesD3D   bool `toml:"capabilities.d3d" env:"CAPABILITIES_D3D"`
	CapabilitiesVAAPI bool `toml:"capabilities.vaapi" env:"CAPABILITIES_VAAPI"`

	EngineBinary           string        `toml:"engine.binary" env:"ENGINE_BINARY"`
	EngineHWDevice         string        `toml:"engine.hw_device" env:"ENGINE_HW_DEVICE"`
	EngineShutdownTimeout  time.Duration `toml:"engine.shutdown_timeout" env:"ENGINE_SHUTDOWN_TIMEOUT"`
	EngineSkipEncoderCheck bool          `toml:"engine.skip_encoder_check" env:"ENGINE_SKIP_ENCODER_CHECK"`

	MetricsTextfile string `toml:"metrics.textfile" env:"METRICS_TEXTFILE"`
	MetricsListen   string `toml:"metrics.listen" env:"METRICS_LISTEN"`

	SystemdNotify bool `toml:"systemd.notify" env:"SYSTEMD_NOTIFY"`
}

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() Settings {
	caps := types.DefaultCapabilities()
	path := os.Getenv(EnvPrefix + "CONFIG")
	if path == "" {
		path = DefaultConfigPath
	}
	return Settings{
		Config:                path,
		LoggingLevel:          "info",
		LoggingFormat:         "text",
		CapabilitiesHEVC:      caps.HEVC,
		CapabilitiesVP8:       caps.VP8,
		CapabilitiesV4L2:      caps.V4L2,
		CapabilitiesD3D:       caps.D3D,
		CapabilitiesVAAPI:     caps.VAAPI,
		EngineBinary:          "ffmpeg",
		EngineHWDevice:        "/dev/dri/renderD128",
		EngineShutdownTimeout: 5 * time.Second,
		SystemdNotify:         true,
	}
}

// Load returns the defaults overridden by .env, the config file and the
// environment. A --config flag set on cmd selects the config file.
func Load(cmd *cobra.Command) (Settings, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Settings{}, err
	}
	s := DefaultSettings()
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Changed {
			s.Config = f.Value.String()
		}
	}
	if err := LoadConfig(&s, cmd); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Capabilities returns the capability flags the option registry is built with.
func (s Settings) Capabilities() types.Capabilities {
	return types.Capabilities{
		HEVC:  s.CapabilitiesHEVC,
		VP8:   s.CapabilitiesVP8,
		V4L2:  s.CapabilitiesV4L2,
		D3D:   s.CapabilitiesD3D,
		VAAPI: s.CapabilitiesVAAPI,
	}
}

// Logging returns the logging configuration: module levels from the config
// file, level and format from the resolved settings.
func (s Settings) Logging() logging.Config {
	cfg := LoadLoggingConfig(s.Config)
	cfg.Level = s.LoggingLevel
	cfg.Format = s.LoggingFormat
	return cfg
}
