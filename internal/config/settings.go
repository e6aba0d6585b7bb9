package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
)

// Settings keys, as persisted in the JSON file
const (
	KeyFFmpegDir     = "ffmpeg_path"
	KeyYtDlpPath     = "ytdlp_path"
	KeyPandocPath    = "pandoc_path"
	KeyDefaultOutput = "default_output"
	KeyMaxParallel   = "max_parallel_jobs"
	KeyLogLevel      = "log_level"
	KeyAutoReveal    = "auto_reveal"
	KeyLanguage      = "language"
)

// Default values
const (
	FileName           = ".media_toolkit_settings.json"
	EnvPrefix          = "MEDIA_TOOLKIT"
	DefaultMaxParallel = 0 // unlimited
	MaxParallelLimit   = 16
	DefaultLogLevel    = "info"
	DefaultAutoReveal  = false
	DefaultLanguage    = "en"
	filePermissions    = 0o644
)

// Settings is the user configuration consulted when a job is submitted.
// Values are copied into each job; jobs never write back.
type Settings struct {
	// FFmpegDir is the folder holding ffmpeg/ffprobe; empty means PATH.
	FFmpegDir        string `mapstructure:"ffmpeg_path" json:"ffmpeg_path"`
	YtDlpPath        string `mapstructure:"ytdlp_path" json:"ytdlp_path,omitempty"`
	PandocPath       string `mapstructure:"pandoc_path" json:"pandoc_path,omitempty"`
	DefaultOutputDir string `mapstructure:"default_output" json:"default_output"`
	MaxParallelJobs  int    `mapstructure:"max_parallel_jobs" json:"max_parallel_jobs"`
	LogLevel         string `mapstructure:"log_level" json:"log_level,omitempty"`
	AutoReveal       bool   `mapstructure:"auto_reveal" json:"auto_reveal"`
	Language         string `mapstructure:"language" json:"language,omitempty"`
}

// Tools returns the tool-location overrides carried by each job.
func (s Settings) Tools() model.Tools {
	return model.Tools{
		FFmpegDir:  s.FFmpegDir,
		YtDlpPath:  s.YtDlpPath,
		PandocPath: s.PandocPath,
	}
}

// Provider hands out read-only settings snapshots.
type Provider interface {
	Settings() Settings
}

// Static is a fixed Provider.
type Static Settings

func (s Static) Settings() Settings {
	return Settings(s)
}

// Defaults returns the settings used when no file exists.
func Defaults() Settings {
	out, err := platform.GetHomeDownloadsDir()
	if err != nil {
		out = filepath.Join(os.TempDir(), "media-toolkit")
	}
	return Settings{
		DefaultOutputDir: out,
		MaxParallelJobs:  DefaultMaxParallel,
		LogLevel:         DefaultLogLevel,
		AutoReveal:       DefaultAutoReveal,
		Language:         DefaultLanguage,
	}
}

// DefaultPath returns ~/.media_toolkit_settings.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(home, FileName)
}

// Store loads settings from a JSON file layered over defaults, with
// MEDIA_TOOLKIT_* environment overrides, and persists edits back.
type Store struct {
	path string

	mu      sync.RWMutex
	current Settings
}

// NewStore creates a store for path (DefaultPath when empty) holding
// defaults until Load is called.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path, current: Defaults()}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the file and environment. A missing file is not an error.
func (s *Store) Load() (Settings, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	def := Defaults()
	v.SetDefault(KeyFFmpegDir, def.FFmpegDir)
	v.SetDefault(KeyYtDlpPath, def.YtDlpPath)
	v.SetDefault(KeyPandocPath, def.PandocPath)
	v.SetDefault(KeyDefaultOutput, def.DefaultOutputDir)
	v.SetDefault(KeyMaxParallel, def.MaxParallelJobs)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyAutoReveal, def.AutoReveal)
	v.SetDefault(KeyLanguage, def.Language)

	if _, err := os.Stat(s.path); err == nil {
		v.SetConfigFile(s.path)
		if err := v.ReadInConfig(); err != nil {
			return s.Settings(), fmt.Errorf("read settings %s: %w", s.path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return s.Settings(), fmt.Errorf("stat settings %s: %w", s.path, err)
	}

	var loaded Settings
	if err := v.Unmarshal(&loaded); err != nil {
		return s.Settings(), fmt.Errorf("decode settings: %w", err)
	}
	loaded = normalize(loaded)

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return loaded, nil
}

// Settings returns the current snapshot.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save writes settings as indented JSON and makes them current.
func (s *Store) Save(settings Settings) error {
	settings = normalize(settings)

	if err := os.MkdirAll(filepath.Dir(s.path), platform.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), filePermissions); err != nil {
		return fmt.Errorf("write settings %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}

func normalize(s Settings) Settings {
	s.FFmpegDir = strings.TrimSpace(s.FFmpegDir)
	s.YtDlpPath = strings.TrimSpace(s.YtDlpPath)
	s.PandocPath = strings.TrimSpace(s.PandocPath)
	s.DefaultOutputDir = platform.ExpandHome(strings.TrimSpace(s.DefaultOutputDir))
	if s.DefaultOutputDir == "" {
		s.DefaultOutputDir = Defaults().DefaultOutputDir
	}
	if s.MaxParallelJobs < 0 {
		s.MaxParallelJobs = 0
	}
	if s.MaxParallelJobs > MaxParallelLimit {
		s.MaxParallelJobs = MaxParallelLimit
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.Language = strings.TrimSpace(s.Language); s.Language == "" {
		s.Language = DefaultLanguage
	}
	return s
}
