// Package config loads the settings from flags, the environment and defaults,
// in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Video backends.
const (
	VideoMpv    = "mpv"
	VideoRemote = "remote"
	VideoNone   = "none"
)

type Config struct {
	DataDir  string `json:"data_dir" validate:"required"`
	LogLevel string `json:"log_level" validate:"oneof=trace debug info warn warning error"`
	LogPath  string `json:"log_path"`
	LogJSON  bool   `json:"log_json"`

	// Listen is the remote's address. Empty disables the remote.
	Listen       string `json:"listen" validate:"omitempty,hostname_port"`
	Mpv          string `json:"mpv" validate:"required"`
	VideoBackend string `json:"video_backend" validate:"oneof=mpv remote none"`
	MPRIS        bool   `json:"mpris"`
	Shell        bool   `json:"shell"`
	ProbeJobs    int    `json:"probe_jobs" validate:"gte=1,lte=64"`
}

// StateFile returns the path of the state file.
func (c *Config) StateFile() string {
	return filepath.Join(c.DataDir, "state.json")
}

// CoverDir returns the directory covers are cached in.
func (c *Config) CoverDir() string {
	return filepath.Join(c.DataDir, "covers")
}

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	dataDir = configVar[string]{
		envKey:       "MIRAGE_DATA_DIR",
		flagKey:      "data-dir",
		defaultValue: defaultDataDir(),
		usage:        "Directory for the library state and covers",
	}
	logLevel = configVar[string]{
		envKey:       "MIRAGE_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "info",
		usage:        "Logging level",
	}
	logPath = configVar[string]{
		envKey:       "MIRAGE_LOG_PATH",
		flagKey:      "log-path",
		defaultValue: "",
		usage:        "Log file path, stderr if empty",
	}
	logJSON = configVar[bool]{
		envKey:       "MIRAGE_LOG_JSON",
		flagKey:      "log-json",
		defaultValue: false,
		usage:        "Log as JSON",
	}
	listen = configVar[string]{
		envKey:       "MIRAGE_LISTEN",
		flagKey:      "listen",
		defaultValue: "127.0.0.1:8734",
		usage:        "Remote API address, disabled if empty",
	}
	mpv = configVar[string]{
		envKey:       "MIRAGE_MPV",
		flagKey:      "mpv",
		defaultValue: "mpv",
		usage:        "mpv executable",
	}
	videoBackend = configVar[string]{
		envKey:       "MIRAGE_VIDEO",
		flagKey:      "video",
		defaultValue: VideoMpv,
		usage:        "Video player: mpv, remote or none",
	}
	mpris = configVar[bool]{
		envKey:       "MIRAGE_MPRIS",
		flagKey:      "mpris",
		defaultValue: true,
		usage:        "Expose MPRIS on the session bus",
	}
	shell = configVar[bool]{
		envKey:       "MIRAGE_SHELL",
		flagKey:      "shell",
		defaultValue: true,
		usage:        "Run the interactive shell",
	}
	probeJobs = configVar[int]{
		envKey:       "MIRAGE_PROBE_JOBS",
		flagKey:      "probe-jobs",
		defaultValue: 4,
		usage:        "Number of files probed at once",
	}
)

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "mirage")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mirage")
	}

	return filepath.Join(home, ".local", "share", "mirage")
}

func bind[T any](v *viper.Viper, c configVar[T]) {
	v.BindEnv(c.flagKey, c.envKey)
	v.SetDefault(c.flagKey, c.defaultValue)
}

// Load parses the arguments, without the program name, and loads the config.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("mirage", pflag.ContinueOnError)
	flags.String(dataDir.flagKey, dataDir.defaultValue, dataDir.usage)
	flags.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	flags.String(logPath.flagKey, logPath.defaultValue, logPath.usage)
	flags.Bool(logJSON.flagKey, logJSON.defaultValue, logJSON.usage)
	flags.String(listen.flagKey, listen.defaultValue, listen.usage)
	flags.String(mpv.flagKey, mpv.defaultValue, mpv.usage)
	flags.String(videoBackend.flagKey, videoBackend.defaultValue, videoBackend.usage)
	flags.Bool(mpris.flagKey, mpris.defaultValue, mpris.usage)
	flags.Bool(shell.flagKey, shell.defaultValue, shell.usage)
	flags.Int(probeJobs.flagKey, probeJobs.defaultValue, probeJobs.usage)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()

	if err := v.BindPFlags(flags); err != nil {
		return nil, errors.Wrap(err, "failed to bind flags")
	}

	bind(v, dataDir)
	bind(v, logLevel)
	bind(v, logPath)
	bind(v, logJSON)
	bind(v, listen)
	bind(v, mpv)
	bind(v, videoBackend)
	bind(v, mpris)
	bind(v, shell)
	bind(v, probeJobs)

	cfg := &Config{
		DataDir:      v.GetString(dataDir.flagKey),
		LogLevel:     strings.ToLower(v.GetString(logLevel.flagKey)),
		LogPath:      v.GetString(logPath.flagKey),
		LogJSON:      v.GetBool(logJSON.flagKey),
		Listen:       v.GetString(listen.flagKey),
		Mpv:          v.GetString(mpv.flagKey),
		VideoBackend: strings.ToLower(v.GetString(videoBackend.flagKey)),
		MPRIS:        v.GetBool(mpris.flagKey),
		Shell:        v.GetBool(shell.flagKey),
		ProbeJobs:    v.GetInt(probeJobs.flagKey),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	if cfg.VideoBackend == VideoRemote && cfg.Listen == "" {
		return nil, errors.New("invalid config: the remote video player needs --listen")
	}

	return cfg, nil
}
